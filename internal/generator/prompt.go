package generator

import (
	"fmt"
	"strings"

	"SignalDigest/internal/domain"
)

// BuildPrompt renders the user message for the daily digest. signals must be index-aligned with items.
func BuildPrompt(items []domain.Item, signals []domain.Signal, trends *domain.TrendStats, aux []domain.AuxiliaryItem) string {
	var b strings.Builder
	b.WriteString("Write a short daily technology intelligence digest from today's selected updates.\n")
	b.WriteString("Summarize the key points and highlight notable research and open-source work.\n\n")

	b.WriteString("--- Updates ---\n")
	for i, item := range items {
		kind := domain.SignalOther
		if i < len(signals) {
			kind = signals[i].Type
		}
		fmt.Fprintf(&b, "%d. [%s] %s (%s)\n", i+1, item.Source, item.Title, kind)
		fmt.Fprintf(&b, "   Link: %s (score: %.1f)\n", item.URL, item.Score)
		if item.Summary != "" {
			fmt.Fprintf(&b, "   %s\n", item.Summary)
		}
	}

	if !trends.Empty() {
		b.WriteString("\n--- Trending languages ---\n")
		writeTopicLine(&b, "Rising", trends.Rising)
		writeTopicLine(&b, "Falling", trends.Falling)
		writeTopicLine(&b, "Stable", trends.Stable)
	}

	if len(aux) > 0 {
		b.WriteString("\n--- Also mentioned ---\n")
		for _, a := range aux {
			fmt.Fprintf(&b, "- %s %s\n", a.Title, a.URL)
		}
	}

	b.WriteString("\n--- Write the digest ---\n")
	return b.String()
}

func writeTopicLine(b *strings.Builder, label string, topics []string) {
	if len(topics) == 0 {
		return
	}
	fmt.Fprintf(b, "%s: %s\n", label, strings.Join(topics, ", "))
}
