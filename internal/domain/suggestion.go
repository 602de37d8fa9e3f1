package domain

// SuggestionType identifies where a suggestion came from.
type SuggestionType string

const (
	SuggestionHistory SuggestionType = "history"
	SuggestionItem    SuggestionType = "item"
	SuggestionVendor  SuggestionType = "vendor"
)

// Suggestion is one autocomplete entry.
type Suggestion struct {
	Type  SuggestionType `json:"type"`
	Text  string         `json:"text"`
	Count int            `json:"count,omitempty"`
	Image string         `json:"image,omitempty"`
	ID    string         `json:"id,omitempty"`
	Slug  string         `json:"slug,omitempty"`
}
