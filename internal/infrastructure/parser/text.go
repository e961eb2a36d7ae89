package parser

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"SignalDigest/internal/clock"
)

// cleanText strips HTML, collapses whitespace and truncates to maxLen runes (0 keeps everything).
func cleanText(value string, maxLen int) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	text := value
	if strings.ContainsAny(value, "<&") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(value)); err == nil {
			text = doc.Text()
		}
	}
	text = strings.Join(strings.Fields(text), " ")
	if maxLen > 0 && utf8.RuneCountInString(text) > maxLen {
		runes := []rune(text)
		text = strings.TrimRight(string(runes[:maxLen]), " ") + "…"
	}
	return text
}

// entryTime returns the best published timestamp of a feed entry in loc.
func entryTime(item *gofeed.Item, loc *time.Location) (time.Time, bool) {
	if item.PublishedParsed != nil {
		return item.PublishedParsed.In(loc), true
	}
	if item.UpdatedParsed != nil {
		return item.UpdatedParsed.In(loc), true
	}
	for _, raw := range []string{item.Published, item.Updated} {
		if t, ok := clock.ParsePublished(raw, loc); ok {
			return t.In(loc), true
		}
	}
	return time.Time{}, false
}

// withinDays keeps undated entries and those no older than days; days <= 0 disables the check.
func withinDays(published time.Time, dated bool, now time.Time, days int) bool {
	if days <= 0 || !dated {
		return true
	}
	return !published.Before(now.AddDate(0, 0, -days))
}
