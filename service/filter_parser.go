package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"magit/domain"
	"magit/logger"
)

// FilterParser turns a free-text query into a structured filter. It must
// not fail: unparseable input yields an empty filter.
type FilterParser interface {
	Parse(ctx context.Context, query string) domain.SearchFilter
}

// LLMFilterParser asks the language model for a JSON filter.
type LLMFilterParser struct {
	ai *AIService
}

func NewLLMFilterParser(ai *AIService) *LLMFilterParser {
	return &LLMFilterParser{ai: ai}
}

func filterSystemPrompt() string {
	types := make([]string, len(domain.PropertyTypes))
	for i, t := range domain.PropertyTypes {
		types[i] = string(t)
	}
	return fmt.Sprintf(`Ты помощник поиска недвижимости в Ташкенте (Узбекистан).
Преобразуй запрос пользователя в JSON-объект со следующими необязательными полями:
- priceMin, priceMax: цена в долларах США (числа)
- bedroomsMin: минимальное количество комнат (целое число)
- verifiedOnly: true, если нужны только проверенные объявления
- financing: true, если нужна халяль-рассрочка
- districts: массив районов только из списка: %s
- propertyType: одно из: %s
- lifestyle: одно из: %s
Не добавляй поля, о которых пользователь не говорил. Отвечай только JSON без пояснений.`,
		strings.Join(domain.DistrictNames(), ", "),
		strings.Join(types, ", "),
		strings.Join(domain.LifestyleTags, ", "))
}

func (p *LLMFilterParser) Parse(ctx context.Context, query string) domain.SearchFilter {
	text, err := p.ai.Complete(ctx, filterSystemPrompt(), query, 300)
	if err != nil {
		logger.Warn().Err(err).Str("query", query).Msg("filter parsing failed")
		return domain.SearchFilter{}
	}

	filter, err := decodeFilterJSON(text)
	if err != nil {
		logger.Warn().Err(err).Str("query", query).Str("response", text).Msg("model returned malformed filter")
		return domain.SearchFilter{}
	}
	return filter
}

// decodeFilterJSON extracts the first JSON object from text, tolerating code
// fences, prose around it and loosely typed values.
func decodeFilterJSON(text string) (domain.SearchFilter, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return domain.SearchFilter{}, fmt.Errorf("no JSON object in response")
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return domain.SearchFilter{}, err
	}
	return filterFromMap(raw), nil
}

func filterFromMap(raw map[string]any) domain.SearchFilter {
	var f domain.SearchFilter

	if v, ok := toFloat(raw["priceMin"]); ok && v > 0 {
		f.PriceMin = domain.Float64Ptr(v)
	}
	if v, ok := toFloat(raw["priceMax"]); ok && v > 0 {
		f.PriceMax = domain.Float64Ptr(v)
	}
	if f.PriceMin != nil && f.PriceMax != nil && *f.PriceMin > *f.PriceMax {
		f.PriceMin, f.PriceMax = f.PriceMax, f.PriceMin
	}
	if v, ok := toFloat(raw["bedroomsMin"]); ok && v >= 1 {
		f.BedroomsMin = domain.IntPtr(int(min(v, maxBedroomsFilter)))
	}
	f.VerifiedOnly = toBool(raw["verifiedOnly"])
	f.Financing = toBool(raw["financing"])

	for _, d := range toStrings(raw["districts"]) {
		name := domain.CanonicalDistrict(d)
		if contains(domain.DistrictNames(), name) && !contains(f.Districts, name) {
			f.Districts = append(f.Districts, name)
		}
	}

	if t, ok := raw["propertyType"].(string); ok {
		t = strings.ToLower(strings.TrimSpace(t))
		for _, known := range domain.PropertyTypes {
			if string(known) == t {
				f.PropertyType = known
			}
		}
	}
	if l, ok := raw["lifestyle"].(string); ok {
		l = strings.ToLower(strings.TrimSpace(l))
		if contains(domain.LifestyleTags, l) {
			f.Lifestyle = l
		}
	}
	return f
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	case string:
		if amount, ok := parseAmount(n, ""); ok {
			return amount, true
		}
	}
	return 0, false
}

func toBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		return err == nil && parsed
	}
	return false
}

func toStrings(v any) []string {
	switch s := v.(type) {
	case string:
		if strings.TrimSpace(s) == "" {
			return nil
		}
		return []string{s}
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			if str, ok := item.(string); ok && strings.TrimSpace(str) != "" {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// RuleFilterParser is a deterministic keyword parser for Russian, Uzbek and
// English queries. It stands in for the model when none is configured.
type RuleFilterParser struct{}

func NewRuleFilterParser() *RuleFilterParser {
	return &RuleFilterParser{}
}

const (
	numberPattern = `(\d{1,3}(?:[ ,.]\d{3})+|\d+(?:[.,]\d+)?)`
	scaleWord     = `(k|к|тыс[а-яё.]*|млн|mln|million|ming)`
	scalePattern  = `(?:\s*` + scaleWord + `(?:[^\p{L}]|$))?`
)

var (
	maxPriceRe   = regexp.MustCompile(`(?:^|[\s,(])(?:до|не дороже|максимум|under|below|up to|max|maximum)\s*\$?\s*` + numberPattern + scalePattern)
	minPriceRe   = regexp.MustCompile(`(?:^|[\s,(])(?:от|не дешевле|минимум|from|over|above|min|minimum)\s*\$?\s*` + numberPattern + scalePattern)
	rangeRe      = regexp.MustCompile(`\$?` + numberPattern + `(?:\s*` + scaleWord + `)?\s*[-–]\s*\$?` + numberPattern + scalePattern + `\s*(?:\$|usd|долл|у\.е)`)
	bedroomsRe   = regexp.MustCompile(`(\d+)\s*[-–]?\s*(?:х\s*)?(?:комн|комнат|спальн|bedroom|bed|br|room|xona)`)
	bedroomWords = []struct {
		prefix string
		count  int
	}{
		{"однокомнат", 1}, {"двухкомнат", 2}, {"трехкомнат", 3}, {"трёхкомнат", 3},
		{"четырехкомнат", 4}, {"четырёхкомнат", 4}, {"пятикомнат", 5},
	}
)

var typeKeywords = []struct {
	t        domain.PropertyType
	keywords []string
}{
	{domain.TypeStudio, []string{"студи", "studio"}},
	{domain.TypeApartment, []string{"квартир", "apartment", "flat", "kvartira"}},
	{domain.TypeCommercial, []string{"коммерч", "офис", "магазин", "commercial", "office", "ofis"}},
	{domain.TypeLand, []string{"участок", "земл", "land", "plot", "yer uchastka"}},
	{domain.TypeHouse, []string{"дом", "коттедж", "house", "villa", "hovli", "uy "}},
}

var lifestyleKeywords = []struct {
	tag      string
	keywords []string
}{
	{"family", []string{"семь", "детей", "дети", "школ", "family", "kids", "oila"}},
	{"investment", []string{"инвест", "сдачи", "аренд", "invest", "rental"}},
	{"student", []string{"студент", "универ", "student", "university"}},
	{"luxury", []string{"люкс", "элит", "премиум", "luxury", "premium"}},
	{"budget", []string{"дешев", "дешёв", "недорог", "бюджет", "cheap", "budget", "arzon"}},
	{"quiet", []string{"тих", "спокойн", "quiet", "calm", "tinch"}},
}

var (
	verifiedKeywords  = []string{"проверен", "верифиц", "verified", "tasdiqlangan", "ishonchli"}
	financingKeywords = []string{"халял", "халяль", "halal", "рассрочк", "исламск", "islamic", "financing", "nasiya", "muddatli"}
)

func (p *RuleFilterParser) Parse(_ context.Context, query string) domain.SearchFilter {
	text := " " + strings.ToLower(strings.TrimSpace(query)) + " "
	var f domain.SearchFilter

	if m := rangeRe.FindStringSubmatch(text); m != nil {
		lo, okLo := parseAmount(m[1], m[2])
		hi, okHi := parseAmount(m[3], m[4])
		if okLo && okHi {
			if m[2] == "" && m[4] != "" {
				lo, _ = parseAmount(m[1], m[4])
			}
			f.PriceMin, f.PriceMax = domain.Float64Ptr(lo), domain.Float64Ptr(hi)
		}
	}
	if f.PriceMax == nil {
		if m := maxPriceRe.FindStringSubmatch(text); m != nil {
			if v, ok := parseAmount(m[1], m[2]); ok {
				f.PriceMax = domain.Float64Ptr(v)
			}
		}
	}
	if f.PriceMin == nil {
		if m := minPriceRe.FindStringSubmatch(text); m != nil {
			if v, ok := parseAmount(m[1], m[2]); ok {
				f.PriceMin = domain.Float64Ptr(v)
			}
		}
	}
	if f.PriceMin != nil && f.PriceMax != nil && *f.PriceMin > *f.PriceMax {
		f.PriceMin, f.PriceMax = f.PriceMax, f.PriceMin
	}

	if m := bedroomsRe.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 && n <= maxBedroomsFilter {
			f.BedroomsMin = domain.IntPtr(n)
		}
	}
	if f.BedroomsMin == nil {
		for _, w := range bedroomWords {
			if strings.Contains(text, w.prefix) {
				f.BedroomsMin = domain.IntPtr(w.count)
				break
			}
		}
	}

	f.VerifiedOnly = containsAny(text, verifiedKeywords)
	f.Financing = containsAny(text, financingKeywords)
	f.Districts = domain.MatchDistricts(text)

	for _, tk := range typeKeywords {
		if containsAny(text, tk.keywords) {
			f.PropertyType = tk.t
			break
		}
	}
	for _, lk := range lifestyleKeywords {
		if containsAny(text, lk.keywords) {
			f.Lifestyle = lk.tag
			break
		}
	}

	return f
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

// parseAmount reads "100 000", "85,000", "1.5" with an optional scale word
// ("k", "тыс", "млн").
func parseAmount(number, scale string) (float64, bool) {
	s := strings.TrimSpace(number)
	if s == "" {
		return 0, false
	}
	s = strings.ReplaceAll(s, " ", "")

	// A separator followed by exactly three digits groups thousands; any
	// other separator is a decimal point.
	if idx := strings.LastIndexAny(s, ".,"); idx >= 0 {
		if len(s)-idx-1 == 3 && !strings.ContainsAny(scale, "kкмm") {
			s = strings.NewReplacer(",", "", ".", "").Replace(s)
		} else {
			s = strings.NewReplacer(",", ".").Replace(s)
		}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, false
	}

	scale = strings.TrimSpace(scale)
	switch {
	case scale == "":
	case scale == "k" || scale == "к" || strings.HasPrefix(scale, "тыс") || scale == "ming":
		v *= 1_000
	case scale == "млн" || scale == "mln" || scale == "million":
		v *= 1_000_000
	}
	return v, true
}
