package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jonwraymond/tokencache/token"
)

// MongoConfig configures the MongoDB-backed store.
type MongoConfig struct {
	// Collection holds the entry documents. Required. Connection and
	// collection management belong to the caller.
	Collection *mongo.Collection

	// GracePeriod is how long a logically expired document stays physically
	// present when AutoExpire is enabled. Default: DefaultGracePeriod.
	GracePeriod time.Duration

	// AutoExpire controls whether EnsureIndexes creates the TTL index that
	// physically removes documents GracePeriod after their expiration.
	AutoExpire bool

	// Tracer, if set, wraps every store operation in a span.
	Tracer trace.Tracer
}

// MongoStore persists entries in a MongoDB collection.
//
// Document shape:
//
//	{
//	  entry: { tokenizedId: <binary, unique>, value: <any>, expires: <date> },
//	  meta:  { created: <date>, updated: <date> },
//	}
//
// Logical freshness is enforced in Find by comparing expires to the current
// time; the TTL index only bounds physical growth and deliberately lags by
// the grace period.
type MongoStore struct {
	coll       *mongo.Collection
	grace      time.Duration
	autoExpire bool
	tracer     trace.Tracer
}

// NewMongoStore creates a MongoDB-backed store.
func NewMongoStore(cfg MongoConfig) (*MongoStore, error) {
	if cfg.Collection == nil {
		return nil, ErrNilCollection
	}
	if cfg.GracePeriod <= 0 {
		cfg.GracePeriod = DefaultGracePeriod
	}
	return &MongoStore{
		coll:       cfg.Collection,
		grace:      cfg.GracePeriod,
		autoExpire: cfg.AutoExpire,
		tracer:     cfg.Tracer,
	}, nil
}

// entryDoc is the BSON document shape.
type entryDoc struct {
	Entry struct {
		TokenizedID []byte    `bson:"tokenizedId"`
		Value       any       `bson:"value"`
		Expires     time.Time `bson:"expires"`
	} `bson:"entry"`
	Meta struct {
		Created time.Time `bson:"created"`
		Updated time.Time `bson:"updated"`
	} `bson:"meta"`
}

func (d *entryDoc) toEntry() *Entry {
	return &Entry{
		TokenizedID: token.ID(d.Entry.TokenizedID),
		Value:       d.Entry.Value,
		Expires:     d.Entry.Expires,
		Created:     d.Meta.Created,
		Updated:     d.Meta.Updated,
	}
}

// EnsureIndexes creates the uniqueness constraint on entry.tokenizedId and,
// when auto-expiration is enabled, the TTL index on entry.expires with the
// grace period as expireAfterSeconds.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "entry.tokenizedId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("entry_tokenizedId_unique"),
		},
	}
	if s.autoExpire {
		models = append(models, mongo.IndexModel{
			Keys: bson.D{{Key: "entry.expires", Value: 1}},
			Options: options.Index().
				SetExpireAfterSeconds(int32(s.grace / time.Second)).
				SetName("entry_expires_ttl"),
		})
	}
	if _, err := s.coll.Indexes().CreateMany(ctx, models); err != nil {
		return &FailureError{Op: "ensure indexes", Err: err}
	}
	return nil
}

// Upsert performs an atomic merge-on-conflict write matched on the tokenized
// id: value, expires and updated are overwritten, created is set only on
// insert, and the id itself is the match key and never altered. The merge is
// commutative per field, so no optimistic-locking retry loop is needed.
func (s *MongoStore) Upsert(ctx context.Context, id token.ID, value any, ttl time.Duration) (*Entry, error) {
	ctx, end := s.startSpan(ctx, "store.upsert")

	now := time.Now().UTC()
	filter := bson.M{"entry.tokenizedId": []byte(id)}
	update := bson.M{
		"$set": bson.M{
			"entry.value":   value,
			"entry.expires": now.Add(ttl),
			"meta.updated":  now,
		},
		"$setOnInsert": bson.M{
			"meta.created": now,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc entryDoc
	err := s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err != nil {
		err = &FailureError{Op: "upsert", Err: err}
		end(err)
		return nil, err
	}
	end(nil)
	return doc.toEntry(), nil
}

// Find performs a point lookup on the tokenized id and rejects a logically
// expired document even if physical removal has not happened yet.
func (s *MongoStore) Find(ctx context.Context, id token.ID) (*Entry, error) {
	ctx, end := s.startSpan(ctx, "store.find")

	var doc entryDoc
	err := s.coll.FindOne(ctx, bson.M{"entry.tokenizedId": []byte(id)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		end(nil)
		return nil, &NotFoundError{Key: id.CacheKey()}
	}
	if err != nil {
		err = &FailureError{Op: "find", Err: err}
		end(err)
		return nil, err
	}

	e := doc.toEntry()
	if e.Expired(time.Now().UTC()) {
		end(nil)
		return nil, &NotFoundError{Key: id.CacheKey()}
	}
	end(nil)
	return e, nil
}

// ExplainFind returns the query planner's diagnostics for the point lookup
// as extended JSON.
func (s *MongoStore) ExplainFind(ctx context.Context, id token.ID) ([]byte, error) {
	ctx, end := s.startSpan(ctx, "store.explain_find")

	cmd := bson.D{
		{Key: "explain", Value: bson.D{
			{Key: "find", Value: s.coll.Name()},
			{Key: "filter", Value: bson.M{"entry.tokenizedId": []byte(id)}},
		}},
		{Key: "verbosity", Value: "queryPlanner"},
	}
	raw, err := s.coll.Database().RunCommand(ctx, cmd).Raw()
	if err != nil {
		err = &FailureError{Op: "explain find", Err: err}
		end(err)
		return nil, err
	}
	end(nil)
	return []byte(raw.String()), nil
}

// ExplainUpsert returns the query planner's diagnostics for the upsert as
// extended JSON. The explained command does not modify any document.
func (s *MongoStore) ExplainUpsert(ctx context.Context, id token.ID, value any, ttl time.Duration) ([]byte, error) {
	ctx, end := s.startSpan(ctx, "store.explain_upsert")

	now := time.Now().UTC()
	cmd := bson.D{
		{Key: "explain", Value: bson.D{
			{Key: "findAndModify", Value: s.coll.Name()},
			{Key: "query", Value: bson.M{"entry.tokenizedId": []byte(id)}},
			{Key: "update", Value: bson.M{
				"$set": bson.M{
					"entry.value":   value,
					"entry.expires": now.Add(ttl),
					"meta.updated":  now,
				},
				"$setOnInsert": bson.M{"meta.created": now},
			}},
			{Key: "upsert", Value: true},
			{Key: "new", Value: true},
		}},
		{Key: "verbosity", Value: "queryPlanner"},
	}
	raw, err := s.coll.Database().RunCommand(ctx, cmd).Raw()
	if err != nil {
		err = &FailureError{Op: "explain upsert", Err: err}
		end(err)
		return nil, err
	}
	end(nil)
	return []byte(raw.String()), nil
}

// startSpan begins a span when a tracer is configured. The returned func
// records the terminal error and ends the span.
func (s *MongoStore) startSpan(ctx context.Context, name string) (context.Context, func(error)) {
	if s.tracer == nil {
		return ctx, func(error) {}
	}
	ctx, span := s.tracer.Start(ctx, name,
		trace.WithAttributes(attribute.String("db.collection", s.coll.Name())))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

// Ensure MongoStore implements Store and Explainer
var (
	_ Store     = (*MongoStore)(nil)
	_ Explainer = (*MongoStore)(nil)
)
