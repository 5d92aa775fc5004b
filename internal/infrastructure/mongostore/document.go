package mongostore

import (
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"

	"NewsroomStats/internal/domain"
	"NewsroomStats/internal/observation"
	"NewsroomStats/internal/textclean"
)

// articleDocument mirrors the newsroom collections. Field types drifted over
// the years (numbers stored as strings and back), so loosely typed fields are
// read as raw values.
type articleDocument struct {
	NewsKey      bson.RawValue `bson:"newskey"`
	NewsDate     bson.RawValue `bson:"newsdate"`
	CodeName     bson.RawValue `bson:"code_name"`
	BuseID       bson.RawValue `bson:"buseid"`
	BylineName   bson.RawValue `bson:"byline_gijaname"`
	ReporterName bson.RawValue `bson:"gijaname"`
	ClassNames   bson.RawValue `bson:"newsclass_names"`
	ClassID      bson.RawValue `bson:"newsclassid"`
	Title        bson.RawValue `bson:"newstitle"`
	Keyword      bson.RawValue `bson:"keyword"`
	Level        bson.RawValue `bson:"level"`
	Ref          bson.RawValue `bson:"ref"`
	Visits       bson.RawValue `bson:"visits"`
	Deleted      bson.RawValue `bson:"deleted"`
	DeleteFlag   bson.RawValue `bson:"delete"`
}

type visitDocument struct {
	At    bson.RawValue `bson:"datetime"`
	Count bson.RawValue `bson:"visits"`
}

func present(rv bson.RawValue) bool {
	return rv.Type != 0 && rv.Type != bsontype.Null && rv.Type != bsontype.Undefined
}

func rawString(rv bson.RawValue) string {
	switch rv.Type {
	case bsontype.String:
		return rv.StringValue()
	case bsontype.Int32:
		return strconv.FormatInt(int64(rv.Int32()), 10)
	case bsontype.Int64:
		return strconv.FormatInt(rv.Int64(), 10)
	case bsontype.Double:
		return strconv.FormatFloat(rv.Double(), 'f', -1, 64)
	case bsontype.ObjectID:
		return rv.ObjectID().Hex()
	default:
		return ""
	}
}

func rawInt(rv bson.RawValue) int {
	n, err := strconv.Atoi(strings.TrimSpace(rawString(rv)))
	if err != nil {
		return 0
	}
	return n
}

func rawTime(rv bson.RawValue) (time.Time, bool) {
	switch rv.Type {
	case bsontype.DateTime:
		return time.UnixMilli(rv.DateTime()).UTC(), true
	case bsontype.String:
		return domain.ParseTimestamp(rv.StringValue())
	default:
		return time.Time{}, false
	}
}

func rawBool(rv bson.RawValue) bool {
	switch rv.Type {
	case bsontype.Boolean:
		return rv.Boolean()
	case bsontype.Int32, bsontype.Int64, bsontype.Double, bsontype.String:
		return rawInt(rv) == 1 || strings.EqualFold(rawString(rv), "true")
	default:
		return false
	}
}

func firstString(values ...bson.RawValue) string {
	for _, rv := range values {
		if s := textclean.Clean(rawString(rv)); s != "" {
			return s
		}
	}
	return ""
}

// toRecord maps a stored document to an ArticleRecord. The publish time is
// truncated to its UTC day; a missing level becomes domain.DefaultLevel.
func toRecord(doc articleDocument) domain.ArticleRecord {
	rec := domain.ArticleRecord{
		ID:             textclean.Clean(rawString(doc.NewsKey)),
		DepartmentCode: firstString(doc.CodeName),
		DepartmentID:   rawInt(doc.BuseID),
		ReporterName:   firstString(doc.BylineName, doc.ReporterName),
		Title:          firstString(doc.Title),
		Category:       firstString(doc.ClassNames, doc.ClassID),
		Keyword:        firstString(doc.Keyword),
		Level:          firstString(doc.Level),
		Deleted:        rawBool(doc.Deleted) || rawBool(doc.DeleteFlag),
	}
	if rec.Level == "" {
		rec.Level = domain.DefaultLevel
	}
	if published, ok := rawTime(doc.NewsDate); ok {
		rec.PublishedAt = time.Date(published.Year(), published.Month(), published.Day(), 0, 0, 0, 0, time.UTC)
	}
	if present(doc.Ref) {
		rec.Ref = domain.NewCounter(strings.TrimSpace(rawString(doc.Ref)))
	}
	if present(doc.Visits) {
		rec.Visits = toSnapshots(doc.Visits)
	}
	return rec
}

func toSnapshots(rv bson.RawValue) []domain.VisitSnapshot {
	snapshots := []domain.VisitSnapshot{}
	var visits []visitDocument
	if rv.Type != bsontype.Array || rv.Unmarshal(&visits) != nil {
		return snapshots
	}
	for _, v := range visits {
		at, ok := rawTime(v.At)
		if !ok {
			continue
		}
		snapshots = append(snapshots, domain.VisitSnapshot{At: at, Count: observation.Coerce(rawString(v.Count))})
	}
	return snapshots
}

// snapshotDocument is the shape written by the snapshot store.
func snapshotDocument(at time.Time, count int64) bson.M {
	return bson.M{"datetime": at.UTC(), "visits": count}
}

// hasSnapshotOn reports whether a snapshot exists on the UTC day of at.
func hasSnapshotOn(snapshots []domain.VisitSnapshot, at time.Time) bool {
	y, m, d := at.UTC().Date()
	for _, s := range snapshots {
		sy, sm, sd := s.At.UTC().Date()
		if sy == y && sm == m && sd == d {
			return true
		}
	}
	return false
}
