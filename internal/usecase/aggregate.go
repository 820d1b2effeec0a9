package usecase

import (
	"sort"

	"NewsRelay/internal/domain"
)

const (
	topTopicsLimit = 10
	allTopicsLimit = 20
)

// SummarizeCategory computes the statistics block of one category.
func SummarizeCategory(name string, articles []domain.Article) domain.CategorySummary {
	if articles == nil {
		articles = []domain.Article{}
	}
	return domain.CategorySummary{
		CategoryName:  name,
		TotalArticles: len(articles),
		Articles:      articles,
		Statistics: domain.CategoryStatistics{
			AvgWordCount:          avgWordCount(articles),
			SentimentDistribution: sentimentDistribution(articles),
			TopTopics:             topTopics(articles, topTopicsLimit),
		},
	}
}

// SummarizeAll computes the global summary over every harvested article.
func SummarizeAll(articles []domain.Article) domain.GlobalSummary {
	categories := map[string]struct{}{}
	for _, a := range articles {
		categories[a.Category] = struct{}{}
	}

	topics := distinctTopics(articles)
	all := topics
	if len(all) > allTopicsLimit {
		all = all[:allTopicsLimit]
	}

	return domain.GlobalSummary{
		TotalArticles:   len(articles),
		TotalCategories: len(categories),
		AvgWordCount:    avgWordCount(articles),
		GlobalSentiment: sentimentDistribution(articles),
		UniqueTopics:    len(topics),
		AllTopics:       all,
	}
}

func avgWordCount(articles []domain.Article) float64 {
	if len(articles) == 0 {
		return 0
	}
	total := 0
	for _, a := range articles {
		total += a.WordCount
	}
	return float64(total) / float64(len(articles))
}

// sentimentDistribution always reports the three known sentiments.
func sentimentDistribution(articles []domain.Article) domain.SentimentDistribution {
	dist := domain.SentimentDistribution{
		domain.SentimentPositive: 0,
		domain.SentimentNegative: 0,
		domain.SentimentNeutral:  0,
	}
	for _, a := range articles {
		if _, known := dist[a.Sentiment]; known {
			dist[a.Sentiment]++
		}
	}
	return dist
}

// topTopics ranks topics by frequency; ties keep first-appearance order.
func topTopics(articles []domain.Article, limit int) []domain.TopicCount {
	index := map[string]int{}
	counts := []domain.TopicCount{}
	for _, a := range articles {
		for _, topic := range a.Topics {
			if i, ok := index[topic]; ok {
				counts[i].Count++
				continue
			}
			index[topic] = len(counts)
			counts = append(counts, domain.TopicCount{Topic: topic, Count: 1})
		}
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	if len(counts) > limit {
		counts = counts[:limit]
	}
	return counts
}

func distinctTopics(articles []domain.Article) []string {
	seen := map[string]struct{}{}
	topics := []string{}
	for _, a := range articles {
		for _, topic := range a.Topics {
			if _, ok := seen[topic]; ok {
				continue
			}
			seen[topic] = struct{}{}
			topics = append(topics, topic)
		}
	}
	return topics
}
