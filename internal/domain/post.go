package domain

import (
	"strings"
	"time"
)

const (
	// PostCharLimit is the platform limit applied to every post text.
	PostCharLimit = 280
	// Ellipsis marks a hard truncation.
	Ellipsis = "..."
	// MaxHashtags bounds the hashtags attached to one draft.
	MaxHashtags = 5
)

// Truncate cuts s to at most limit characters, replacing the tail with an
// ellipsis when a cut happens. Lengths are counted in runes.
func Truncate(s string, limit int) string {
	runes := []rune(s)
	if limit <= 0 || len(runes) <= limit {
		return s
	}
	if limit <= len(Ellipsis) {
		return string(runes[:limit])
	}
	return string(runes[:limit-len(Ellipsis)]) + Ellipsis
}

// Preview shortens text for log lines and error subjects: at most limit
// characters, then Ellipsis when anything was cut.
func Preview(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + Ellipsis
}

// CharCount counts characters the way Truncate does.
func CharCount(s string) int {
	return len([]rune(s))
}

// PostDraft is one post-ready record of the Post Queue.
type PostDraft struct {
	Text       string   `json:"tweet"`
	Hashtags   []string `json:"hashtags"`
	ArticleURL string   `json:"article_url"`
	Topics     []string `json:"topics"`
	FullPost   string   `json:"tweet_with_hashtags"`
}

// NewPostDraft assembles a draft and precomputes the full post within limit.
func NewPostDraft(text string, hashtags []string, article Article, limit int) PostDraft {
	if hashtags == nil {
		hashtags = []string{}
	}
	topics := append([]string{}, article.Topics...)
	return PostDraft{
		Text:       text,
		Hashtags:   hashtags,
		ArticleURL: article.URL,
		Topics:     topics,
		FullPost:   FullPost(text, hashtags, limit),
	}
}

// FullPost joins the text and hashtags and bounds the result to limit.
func FullPost(text string, hashtags []string, limit int) string {
	parts := []string{strings.TrimSpace(text)}
	parts = append(parts, hashtags...)
	return Truncate(strings.TrimSpace(strings.Join(parts, " ")), limit)
}

// PostText returns what should be submitted for a queued draft.
func (d PostDraft) PostText() string {
	if strings.TrimSpace(d.FullPost) != "" {
		return d.FullPost
	}
	return d.Text
}

// PublishedPost is a ledger row for a confirmed post.
type PublishedPost struct {
	ArticleURL  string
	PostText    string
	Strategy    string
	RunID       string
	PublishedAt time.Time
}
