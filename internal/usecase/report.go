package usecase

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"NewsRelay/internal/domain"
)

// CategoryCount is the number of articles one category contributed.
type CategoryCount struct {
	Name     string
	Articles int
}

// HarvestReport summarizes one harvest run.
type HarvestReport struct {
	RunID       string
	Started     time.Time
	Completed   time.Time
	Discovered  int
	Articles    int
	Categories  int
	PerCategory []CategoryCount
	Failures    map[domain.Reason]int
}

// Digest renders the report as a short Markdown message.
func (r HarvestReport) Digest() string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Harvest* `%s`\nArticles: %d in %d categories (%d urls discovered)\n",
		shortID(r.RunID), r.Articles, r.Categories, r.Discovered)
	for _, c := range r.PerCategory {
		fmt.Fprintf(&b, "- %s: %d\n", escapeMarkdown(c.Name), c.Articles)
	}
	if len(r.Failures) > 0 {
		fmt.Fprintf(&b, "Failures: %s\n", escapeMarkdown(formatFailures(r.Failures)))
	}
	return b.String()
}

// ComposeReport summarizes one composer run.
type ComposeReport struct {
	Loaded     int
	Skipped    int
	Considered int
	Failed     int
	Drafted    int
}

// Digest renders the report as a short Markdown message.
func (r ComposeReport) Digest() string {
	return fmt.Sprintf("*Compose*\nDrafts: %d of %d selected (%d loaded, %d without text, %d failed)\n",
		r.Drafted, r.Considered, r.Loaded, r.Skipped, r.Failed)
}

// PublishReport summarizes one publisher run.
type PublishReport struct {
	RunID      string
	Queued     int
	Skipped    int
	Duplicates int
	Attempted  int
	Published  int
	Failed     int
	Strategies map[string]int
}

// Digest renders the report as a short Markdown message.
func (r PublishReport) Digest() string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Publish* `%s`\nPosted: %d, failed: %d, already published: %d\n",
		shortID(r.RunID), r.Published, r.Failed, r.Duplicates)
	names := make([]string, 0, len(r.Strategies))
	for name := range r.Strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, "- %s: %d\n", escapeMarkdown(name), r.Strategies[name])
	}
	return b.String()
}

func formatFailures(failures map[domain.Reason]int) string {
	reasons := make([]string, 0, len(failures))
	for reason := range failures {
		reasons = append(reasons, string(reason))
	}
	sort.Strings(reasons)

	parts := make([]string, 0, len(reasons))
	for _, reason := range reasons {
		parts = append(parts, fmt.Sprintf("%s=%d", reason, failures[domain.Reason(reason)]))
	}
	return strings.Join(parts, ", ")
}

// Digests are sent with Telegram's legacy Markdown parse mode, where a lone
// entity character makes the whole message unparseable.
var markdownEscaper = strings.NewReplacer("_", `\_`, "*", `\*`, "`", "\\`", "[", `\[`)

func escapeMarkdown(text string) string {
	return markdownEscaper.Replace(text)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
