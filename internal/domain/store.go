package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// CrawlMetadata describes one harvest run.
type CrawlMetadata struct {
	RunID     string         `json:"run_id"`
	Started   time.Time      `json:"started"`
	Completed time.Time      `json:"completed"`
	Method    string         `json:"method"`
	ModelUsed string         `json:"model_used"`
	Version   string         `json:"version"`
	Success   bool           `json:"success"`
	Failures  map[Reason]int `json:"failures,omitempty"`
}

// TopicCount is serialized as a two element [topic, count] array.
type TopicCount struct {
	Topic string
	Count int
}

func (t TopicCount) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{t.Topic, t.Count})
}

func (t *TopicCount) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("topic count: want 2 elements, got %d", len(pair))
	}
	if err := json.Unmarshal(pair[0], &t.Topic); err != nil {
		return fmt.Errorf("topic count name: %w", err)
	}
	if err := json.Unmarshal(pair[1], &t.Count); err != nil {
		return fmt.Errorf("topic count value: %w", err)
	}
	return nil
}

// SentimentDistribution always carries the three known sentiments.
type SentimentDistribution map[Sentiment]int

// CategoryStatistics aggregates one category.
type CategoryStatistics struct {
	AvgWordCount          float64               `json:"avg_word_count"`
	SentimentDistribution SentimentDistribution `json:"sentiment_distribution"`
	TopTopics             []TopicCount          `json:"top_topics"`
}

// CategorySummary is the per-category section of the store.
type CategorySummary struct {
	CategoryName  string             `json:"category_name"`
	TotalArticles int                `json:"total_articles"`
	Articles      []Article          `json:"articles"`
	Statistics    CategoryStatistics `json:"statistics"`
}

// Categories keeps harvest order while serializing as a JSON object keyed by
// category name.
type Categories []CategorySummary

func (c Categories) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, cat := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(cat.CategoryName)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(cat)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (c *Categories) UnmarshalJSON(data []byte) error {
	entries, err := DecodeOrderedObject(data)
	if err != nil {
		return err
	}
	out := make(Categories, 0, len(entries))
	for _, entry := range entries {
		var cat CategorySummary
		if err := json.Unmarshal(entry.Value, &cat); err != nil {
			return fmt.Errorf("category %s: %w", entry.Key, err)
		}
		if cat.CategoryName == "" {
			cat.CategoryName = entry.Key
		}
		out = append(out, cat)
	}
	*c = out
	return nil
}

// GlobalSummary aggregates the whole harvest.
type GlobalSummary struct {
	TotalArticles   int                   `json:"total_articles"`
	TotalCategories int                   `json:"total_categories"`
	AvgWordCount    float64               `json:"avg_word_count"`
	GlobalSentiment SentimentDistribution `json:"global_sentiment"`
	UniqueTopics    int                   `json:"unique_topics"`
	AllTopics       []string              `json:"all_topics"`
}

// ArticleStore is the Harvester output and Composer input.
type ArticleStore struct {
	CrawlMetadata CrawlMetadata `json:"crawl_metadata"`
	Categories    Categories    `json:"categories"`
	Summary       GlobalSummary `json:"summary"`
	AllArticles   []Article     `json:"all_articles"`
}

// StoredCategory holds the undecoded article records of one stored category
// so that readers can skip malformed records one by one.
type StoredCategory struct {
	Name    string
	Records []json.RawMessage
}

// ObjectEntry is one key/value pair of a JSON object in document order.
type ObjectEntry struct {
	Key   string
	Value json.RawMessage
}

// DecodeOrderedObject splits a JSON object into its entries, preserving the
// order in which they appear.
func DecodeOrderedObject(data []byte) ([]ObjectEntry, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read object start: %w", err)
	}
	if tok == nil {
		return nil, nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	var entries []ObjectEntry
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("expected string key, got %v", keyTok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("read value of %s: %w", key, err)
		}
		entries = append(entries, ObjectEntry{Key: key, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("read object end: %w", err)
	}
	return entries, nil
}
