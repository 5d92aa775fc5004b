package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"NewsroomStats/internal/domain"
	"NewsroomStats/internal/observation"
	"NewsroomStats/internal/ports"
)

// SnapshotStore appends daily view counts to article documents, creating the
// document on first sight.
type SnapshotStore struct {
	collection *mongo.Collection
	timeout    time.Duration
}

var _ ports.SnapshotStore = (*SnapshotStore)(nil)

// NewSnapshotStore wires a collection handle.
func NewSnapshotStore(collection *mongo.Collection, timeout time.Duration) *SnapshotStore {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &SnapshotStore{collection: collection, timeout: timeout}
}

// RecordSnapshot stores the article's current ref counter as a snapshot taken
// at at. At most one snapshot is kept per UTC day.
func (s *SnapshotStore) RecordSnapshot(ctx context.Context, article domain.ArticleRecord, at time.Time) (domain.SnapshotOutcome, error) {
	if s.collection == nil {
		return "", fmt.Errorf("mongo collection is not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	count := observation.Coerce(article.Ref.Raw())
	filter := bson.M{"newskey": article.ID}

	var existing articleDocument
	err := s.collection.FindOne(ctx, filter).Decode(&existing)
	if errors.Is(err, mongo.ErrNoDocuments) {
		doc := metadataFields(article)
		doc["newskey"] = article.ID
		doc["visits"] = bson.A{snapshotDocument(at, count)}
		if _, err := s.collection.InsertOne(ctx, doc); err != nil {
			return "", fmt.Errorf("insert article %s: %w", article.ID, err)
		}
		return domain.SnapshotInserted, nil
	}
	if err != nil {
		return "", fmt.Errorf("find article %s: %w", article.ID, err)
	}

	if hasSnapshotOn(toRecord(existing).Visits, at) {
		return domain.SnapshotUnchanged, nil
	}

	update := bson.M{
		"$push": bson.M{"visits": snapshotDocument(at, count)},
		"$set":  metadataFields(article),
	}
	if _, err := s.collection.UpdateOne(ctx, filter, update); err != nil {
		return "", fmt.Errorf("append snapshot %s: %w", article.ID, err)
	}
	return domain.SnapshotAppended, nil
}

// MarkDeleted flags the article document as deleted.
func (s *SnapshotStore) MarkDeleted(ctx context.Context, id string) (bool, error) {
	if s.collection == nil {
		return false, fmt.Errorf("mongo collection is not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.collection.UpdateOne(ctx, bson.M{"newskey": id}, bson.M{"$set": bson.M{"deleted": true}})
	if err != nil {
		return false, fmt.Errorf("mark deleted %s: %w", id, err)
	}
	return res.MatchedCount > 0, nil
}

func metadataFields(article domain.ArticleRecord) bson.M {
	doc := bson.M{
		"newsdate":  article.PublishedAt.UTC(),
		"code_name": article.DepartmentCode,
		"gijaname":  article.ReporterName,
		"newstitle": article.Title,
		"keyword":   article.Keyword,
		"level":     article.Level,
		"deleted":   article.Deleted,
	}
	if article.DepartmentID != 0 {
		doc["buseid"] = article.DepartmentID
	}
	if article.Category != "" {
		doc["newsclass_names"] = article.Category
	}
	return doc
}
