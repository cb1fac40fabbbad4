package db

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"snipbin/pkg/domain"
)

// Mongo holds the paste collection. All serialization between concurrent
// requests and the sweeper happens here, through the unique index on slug
// and per-document operations; the service keeps no in-memory cache.
type Mongo struct {
	client *mongo.Client
	pastes *mongo.Collection
}

func NewMongo(ctx context.Context, uri, dbname string) (*Mongo, error) {
	cli, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetRetryWrites(true).
		SetMaxPoolSize(50),
	)
	if err != nil {
		return nil, errors.Wrap(err, "connect mongo")
	}
	if err := cli.Ping(ctx, nil); err != nil {
		return nil, errors.Wrap(err, "ping mongo")
	}
	db := cli.Database(dbname)
	return &Mongo{
		client: cli,
		pastes: db.Collection("pastes"),
	}, nil
}

// EnsureIndexes creates the unique slug index plus the lookup indexes the
// list and sweep paths rely on. Safe to run on every start.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	_, err := m.pastes.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_slug"),
		},
		{
			Keys:    bson.D{{Key: "iden", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetName("iden_created"),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: 1}},
			Options: options.Index().SetName("created_asc"),
		},
	})
	return errors.Wrap(err, "create indexes")
}

func (m *Mongo) Insert(ctx context.Context, p *domain.Paste) error {
	_, err := m.pastes.InsertOne(ctx, p)
	if isDup(err) {
		return domain.ErrSlugTaken
	}
	return errors.Wrap(err, "insert paste")
}

// FindBySlug returns (nil, nil) when no paste carries the slug. Absence is
// a normal outcome on this path, not an error.
func (m *Mongo) FindBySlug(ctx context.Context, slug string) (*domain.Paste, error) {
	var p domain.Paste
	err := m.pastes.FindOne(ctx, bson.M{"slug": slug}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "find paste")
	}
	return &p, nil
}

// FindByCreator returns every paste for the creator id regardless of age;
// pruning stale rows is the sweeper's job, not the read path's.
func (m *Mongo) FindByCreator(ctx context.Context, creatorID string) ([]domain.Paste, error) {
	cur, err := m.pastes.Find(ctx,
		bson.M{"iden": creatorID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "find by creator")
	}
	defer cur.Close(ctx)

	var out []domain.Paste
	for cur.Next(ctx) {
		var p domain.Paste
		if err := cur.Decode(&p); err != nil {
			return nil, errors.Wrap(err, "decode paste")
		}
		out = append(out, p)
	}
	return out, errors.Wrap(cur.Err(), "cursor")
}

// DeleteOlderThan removes every paste created strictly before threshold and
// reports how many went. A second pass with no new old rows deletes zero.
func (m *Mongo) DeleteOlderThan(ctx context.Context, threshold time.Time) (int64, error) {
	res, err := m.pastes.DeleteMany(ctx, bson.M{
		"created_at": bson.M{"$lt": threshold},
	})
	if err != nil {
		return 0, errors.Wrap(err, "delete expired")
	}
	return res.DeletedCount, nil
}

func (m *Mongo) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// isDup reports whether err is the server's duplicate-key violation (11000)
// on the unique slug index.
func isDup(err error) bool {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	return false
}
