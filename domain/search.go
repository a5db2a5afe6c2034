package domain

// SearchFilter is the structured form of a free-text query. Every field is
// optional; nil or empty means "no constraint".
type SearchFilter struct {
	PriceMin     *float64     `json:"priceMin,omitempty"`
	PriceMax     *float64     `json:"priceMax,omitempty"`
	BedroomsMin  *int         `json:"bedroomsMin,omitempty"`
	VerifiedOnly bool         `json:"verifiedOnly,omitempty"`
	Financing    bool         `json:"financing,omitempty"`
	Districts    []string     `json:"districts,omitempty"`
	PropertyType PropertyType `json:"propertyType,omitempty"`
	Lifestyle    string       `json:"lifestyle,omitempty"`
}

func (f SearchFilter) IsEmpty() bool {
	return f.PriceMin == nil && f.PriceMax == nil && f.BedroomsMin == nil &&
		!f.VerifiedOnly && !f.Financing && len(f.Districts) == 0 &&
		f.PropertyType == "" && f.Lifestyle == ""
}

type SearchMode string

const (
	ModeStrict  SearchMode = "strict"
	ModeRelaxed SearchMode = "relaxed"
)

type SearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

// ScoredProperty is a search hit. Score and Rationale are only set in relaxed mode.
type ScoredProperty struct {
	Property
	Score     *float64 `json:"score,omitempty"`
	Rationale string   `json:"rationale,omitempty"`
}

type SearchResult struct {
	Mode       SearchMode       `json:"mode"`
	Filters    SearchFilter     `json:"filters"`
	Properties []ScoredProperty `json:"properties"`
	Suggestion string           `json:"suggestion,omitempty"`
	Warnings   []string         `json:"warnings,omitempty"`
}

// Lifestyle tags the parser may infer.
var LifestyleTags = []string{"family", "investment", "student", "luxury", "budget", "quiet"}

func Float64Ptr(v float64) *float64 { return &v }

func IntPtr(v int) *int { return &v }
