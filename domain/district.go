package domain

import "strings"

type District struct {
	Name     string
	Synonyms []string
}

// Districts of Tashkent with the spellings found in listings and geocoder
// output (Russian, Uzbek Latin/Cyrillic, English). Synonyms are lower case.
var Districts = []District{
	{Name: "Almazar", Synonyms: []string{"almazar", "olmazor", "алмазар", "олмазор"}},
	{Name: "Bektemir", Synonyms: []string{"bektemir", "бектемир"}},
	{Name: "Chilanzar", Synonyms: []string{"chilanzar", "chilonzor", "чиланзар", "чилонзор"}},
	{Name: "Mirabad", Synonyms: []string{"mirabad", "mirobod", "мирабад", "миробод"}},
	{Name: "Mirzo Ulugbek", Synonyms: []string{"mirzo ulugbek", "mirzo-ulugbek", "mirzo ulug'bek", "mirzo-ulug'bek", "мирзо улугбек", "мирзо-улугбек", "улугбек"}},
	{Name: "Sergeli", Synonyms: []string{"sergeli", "сергели"}},
	{Name: "Shaykhantahur", Synonyms: []string{"shaykhantahur", "shaykhantaur", "shayxontohur", "шайхантахур", "шайхантаур", "шайхонтохур"}},
	{Name: "Uchtepa", Synonyms: []string{"uchtepa", "учтепа", "учтепин"}},
	{Name: "Yakkasaray", Synonyms: []string{"yakkasaray", "yakkasaroy", "яккасарай", "яккасарой"}},
	{Name: "Yashnabad", Synonyms: []string{"yashnabad", "yashnobod", "яшнабад", "яшнобод"}},
	{Name: "Yunusabad", Synonyms: []string{"yunusabad", "yunusobod", "юнусабад", "юнусобод"}},
	{Name: "Yangihayot", Synonyms: []string{"yangihayot", "yangi hayot", "янгихаёт", "янгихает", "янги хаёт"}},
}

var apostrophes = strings.NewReplacer("‘", "'", "’", "'", "ʻ", "'", "ʼ", "'", "`", "'")

func normalizeText(s string) string {
	return apostrophes.Replace(strings.ToLower(s))
}

// MatchDistrict returns the first district whose synonym occurs in text.
func MatchDistrict(text string) (District, bool) {
	norm := normalizeText(text)
	if norm == "" {
		return District{}, false
	}
	for _, d := range Districts {
		for _, syn := range d.Synonyms {
			if strings.Contains(norm, syn) {
				return d, true
			}
		}
	}
	return District{}, false
}

// MatchDistricts returns every district mentioned in text, in table order.
func MatchDistricts(text string) []string {
	norm := normalizeText(text)
	var out []string
	for _, d := range Districts {
		for _, syn := range d.Synonyms {
			if strings.Contains(norm, syn) {
				out = append(out, d.Name)
				break
			}
		}
	}
	return out
}

// DistrictNames lists canonical names, used as market context for the parser.
func DistrictNames() []string {
	names := make([]string, len(Districts))
	for i, d := range Districts {
		names[i] = d.Name
	}
	return names
}

// CanonicalDistrict maps any known spelling to its canonical name; unknown
// values are returned unchanged.
func CanonicalDistrict(name string) string {
	norm := strings.TrimSpace(normalizeText(name))
	for _, d := range Districts {
		if strings.ToLower(d.Name) == norm {
			return d.Name
		}
		for _, syn := range d.Synonyms {
			if syn == norm {
				return d.Name
			}
		}
	}
	return strings.TrimSpace(name)
}

// BackfillReport summarizes one district backfill run.
type BackfillReport struct {
	Processed int `json:"processed"`
	Updated   int `json:"updated"`
	Unmatched int `json:"unmatched"`
	Failed    int `json:"failed"`
}
