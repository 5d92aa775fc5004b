// Package mongostore reads articles from and writes view snapshots to MongoDB.
package mongostore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"NewsroomStats/internal/domain"
	"NewsroomStats/internal/ports"
)

const defaultTimeout = 30 * time.Second

// Connect dials MongoDB and verifies the connection.
func Connect(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// SourceOptions configures ArticleSource.
type SourceOptions struct {
	// RequireRef keeps only documents with a non-zero ref counter.
	RequireRef bool
	Timeout    time.Duration
}

// ArticleSource queries a collection of article documents.
type ArticleSource struct {
	collection *mongo.Collection
	opts       SourceOptions
	logger     *slog.Logger
}

var _ ports.ArticleSource = (*ArticleSource)(nil)

// NewArticleSource wires a collection handle.
func NewArticleSource(collection *mongo.Collection, opts SourceOptions, log *slog.Logger) *ArticleSource {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	return &ArticleSource{collection: collection, opts: opts, logger: log}
}

// Name identifies the source in the registry.
func (s *ArticleSource) Name() string { return "mongo" }

// Fetch returns the newest documents published within the query window.
func (s *ArticleSource) Fetch(ctx context.Context, q domain.Query) ([]domain.ArticleRecord, error) {
	if s.collection == nil {
		return nil, fmt.Errorf("mongo collection is not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	filter := buildFilter(q, s.opts.RequireRef)
	findOpts := options.Find().SetSort(bson.D{{Key: "newsdate", Value: -1}})
	if q.Limit > 0 {
		findOpts.SetLimit(int64(q.Limit))
	}

	cursor, err := s.collection.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("find articles: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []articleDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode articles: %w", err)
	}

	records := make([]domain.ArticleRecord, 0, len(docs))
	for _, doc := range docs {
		records = append(records, toRecord(doc))
	}
	s.debug("mongo articles loaded", "collection", s.collection.Name(), "count", len(records))
	return records, nil
}

func buildFilter(q domain.Query, requireRef bool) bson.M {
	filter := bson.M{}
	dateRange := bson.M{}
	if !q.From.IsZero() {
		dateRange["$gte"] = q.From.UTC()
	}
	if !q.To.IsZero() {
		dateRange["$lte"] = q.To.UTC()
	}
	if len(dateRange) > 0 {
		filter["newsdate"] = dateRange
	}
	if requireRef {
		filter["ref"] = bson.M{"$exists": true, "$nin": bson.A{nil, 0, "0", ""}}
	}
	return filter
}

func (s *ArticleSource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
