package domain

// Signal types.
const (
	SignalPaper = "paper"
	SignalCode  = "code"
	SignalBlog  = "blog"
	SignalVideo = "video"
	SignalOther = "other"
)

// Signal platforms.
const (
	PlatformGitHub = "github"
	PlatformArxiv  = "arxiv"
	PlatformRSS    = "rss"
	PlatformOther  = "other"
)

// Signal is the unified shape every item is normalized into for downstream consumers.
type Signal struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	Source      string         `json:"source"`
	Title       string         `json:"title"`
	Summary     string         `json:"summary"`
	URL         string         `json:"url"`
	PublishedAt string         `json:"published_at"`
	Topics      []string       `json:"topics"`
	Score       float64        `json:"score"`
	Metrics     map[string]any `json:"metrics"`
}

// TrendStats groups categories by the direction of their recent movement.
type TrendStats struct {
	Rising  []string `json:"rising_topics"`
	Falling []string `json:"falling_topics"`
	Stable  []string `json:"stable_topics"`
}

// Empty reports whether no category was classified.
func (t *TrendStats) Empty() bool {
	return t == nil || (len(t.Rising) == 0 && len(t.Falling) == 0 && len(t.Stable) == 0)
}

// TrendingEntry is one repository row of a trending listing.
type TrendingEntry struct {
	Repo       string `json:"repo"`
	URL        string `json:"url"`
	StarsToday int    `json:"stars_today"`
	Language   string `json:"language"`
}

// TrendingDay is a dated trending listing; the history artifact is a list of them, oldest first.
type TrendingDay struct {
	Date  string          `json:"date"`
	Items []TrendingEntry `json:"items"`
}

// TrendingHistory is the persisted day-indexed trending history.
type TrendingHistory struct {
	History []TrendingDay `json:"history"`
}
