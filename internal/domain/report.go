package domain

import "encoding/json"

// Report is one generated daily digest.
type Report struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Content     string `json:"content"`
	GeneratedAt string `json:"generated_at"`
}

// ReportLog is the persisted reports collection.
type ReportLog struct {
	Reports []Report `json:"reports"`
}

// Blogger is an entry of the recommendation list maintained by signal-only contributors.
type Blogger struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Source       string `json:"source"`
	Active       bool   `json:"active"`
	MentionCount int    `json:"mention_count"`
	LastSeen     string `json:"last_seen"`
}

// UnmarshalJSON treats a missing "active" key as true.
func (b *Blogger) UnmarshalJSON(data []byte) error {
	type plain Blogger
	decoded := plain{Active: true}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*b = Blogger(decoded)
	return nil
}

// BloggerList is the persisted recommendation list.
type BloggerList struct {
	Bloggers []Blogger `json:"bloggers"`
}

// AuxiliaryItem is side-channel content surfaced to the report but kept out of the ranked item flow.
type AuxiliaryItem struct {
	ID     string   `json:"id"`
	Title  string   `json:"title"`
	URL    string   `json:"url"`
	Source string   `json:"source"`
	SeenAt string   `json:"seen_at"`
	Refs   []string `json:"refs,omitempty"`
}

// AuxiliaryLog is the persisted list of recent auxiliary items, newest first.
type AuxiliaryLog struct {
	Items []AuxiliaryItem `json:"items"`
}
