package domain

import "strings"

// Item is a unit of aggregated content (paper, repository, post) moving through the daily stages.
type Item struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	URL         string   `json:"url"`
	Source      string   `json:"source"`
	PublishedAt string   `json:"published_at"`
	Score       float64  `json:"score"`
	Tags        []string `json:"tags"`
	Summary     string   `json:"summary,omitempty"`
	// StarsToday is the trend metric reported by trending sources.
	StarsToday int `json:"stars_today,omitempty"`
}

// HasTag reports whether the item carries tag, ignoring case.
func (i Item) HasTag(tag string) bool {
	for _, t := range i.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// ItemSnapshot is the persisted shape of the collect and process artifacts.
type ItemSnapshot struct {
	Date    string `json:"date,omitempty"`
	Updates []Item `json:"updates"`
}

// Batch is the working set threaded through one run of the pipeline.
type Batch struct {
	Items   []Item
	Signals []Signal
	Trends  *TrendStats
}

// Reset drops everything derived from a previous stage call.
func (b *Batch) Reset() {
	b.Items = nil
	b.Signals = nil
	b.Trends = nil
}
