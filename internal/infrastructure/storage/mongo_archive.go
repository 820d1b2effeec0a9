package storage

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"NewsRelay/internal/domain"
	"NewsRelay/internal/ports"
)

// MongoArchive upserts every harvested article into a collection keyed by URL.
type MongoArchive struct {
	client   *mongo.Client
	articles *mongo.Collection
}

var _ ports.ArticleArchive = (*MongoArchive)(nil)

// NewMongoArchive connects, pings and ensures the unique url index.
func NewMongoArchive(ctx context.Context, uri, database, collection string) (*MongoArchive, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	coll := client.Database(database).Collection(collection)
	_, err = coll.Indexes().CreateOne(connectCtx, mongo.IndexModel{
		Keys:    bson.D{{Key: "url", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("create url index: %w", err)
	}

	return &MongoArchive{client: client, articles: coll}, nil
}

// Archive upserts articles in one unordered bulk write.
func (m *MongoArchive) Archive(ctx context.Context, articles []domain.Article) error {
	if len(articles) == 0 {
		return nil
	}

	models := make([]mongo.WriteModel, 0, len(articles))
	for _, article := range articles {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"url": article.URL}).
			SetUpdate(bson.M{"$set": articleDocument(article)}).
			SetUpsert(true))
	}

	if _, err := m.articles.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false)); err != nil {
		return fmt.Errorf("archive articles: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (m *MongoArchive) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func articleDocument(a domain.Article) bson.M {
	topics := a.Topics
	if topics == nil {
		topics = []string{}
	}
	return bson.M{
		"url":          a.URL,
		"title":        a.Title,
		"content":      a.Content,
		"category":     a.Category,
		"word_count":   a.WordCount,
		"extracted_at": a.ExtractedAt,
		"summary":      a.Summary,
		"topics":       topics,
		"sentiment":    string(a.Sentiment),
		"urgency":      string(a.Urgency),
		"headline":     a.Analysis.Headline,
		"archived_at":  time.Now().UTC(),
	}
}
