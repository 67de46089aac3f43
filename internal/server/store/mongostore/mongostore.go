// Package mongostore implements store.Collection on MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/dmitrijs2005/fitkeeper/internal/common"
	"github.com/dmitrijs2005/fitkeeper/internal/server/store"
)

const pingTimeout = 10 * time.Second

// Dial returns a dial function connecting to uri, selecting database and
// creating the unique indexes declared by schemas.
func Dial(uri, database string, schemas ...store.Schema) store.DialFunc[*mongo.Database] {
	return func(ctx context.Context) (*mongo.Database, error) {
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
		if err != nil {
			return nil, fmt.Errorf("mongo connect: %w", err)
		}

		pctx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if err := client.Ping(pctx, readpref.Primary()); err != nil {
			_ = client.Disconnect(ctx)
			return nil, fmt.Errorf("mongo ping: %w", err)
		}

		db := client.Database(database)
		if err := EnsureIndexes(ctx, db, schemas...); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		return db, nil
	}
}

// Disconnect closes the client behind db.
func Disconnect(db *mongo.Database) error {
	return db.Client().Disconnect(context.Background())
}

func EnsureIndexes(ctx context.Context, db *mongo.Database, schemas ...store.Schema) error {
	for _, sc := range schemas {
		if len(sc.Unique) == 0 {
			continue
		}
		indexes := make([]mongo.IndexModel, 0, len(sc.Unique))
		for _, fields := range sc.Unique {
			keys := bson.D{}
			for _, f := range fields {
				keys = append(keys, bson.E{Key: f, Value: 1})
			}
			indexes = append(indexes, mongo.IndexModel{Keys: keys, Options: options.Index().SetUnique(true)})
		}
		if _, err := db.Collection(sc.Name).Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("create indexes on %s: %w", sc.Name, err)
		}
	}
	return nil
}

type Collection[D store.Document] struct {
	conn   *store.Lazy[*mongo.Database]
	name   string
	newDoc func() D
}

func NewCollection[D store.Document](conn *store.Lazy[*mongo.Database], schema store.Schema, newDoc func() D) *Collection[D] {
	return &Collection[D]{conn: conn, name: schema.Name, newDoc: newDoc}
}

func (c *Collection[D]) coll(ctx context.Context) (*mongo.Collection, error) {
	db, err := c.conn.Get(ctx)
	if err != nil {
		return nil, err
	}
	return db.Collection(c.name), nil
}

func (c *Collection[D]) Find(ctx context.Context, f store.Filter, opts store.FindOptions) ([]D, error) {
	coll, err := c.coll(ctx)
	if err != nil {
		return nil, err
	}

	fo := options.Find()
	if len(opts.Sort) > 0 {
		fo.SetSort(sortDoc(opts.Sort))
	}
	if opts.Skip > 0 {
		fo.SetSkip(opts.Skip)
	}
	if opts.Limit > 0 {
		fo.SetLimit(opts.Limit)
	}

	cur, err := coll.Find(ctx, filterDoc(f), fo)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer cur.Close(ctx)

	out := make([]D, 0)
	for cur.Next(ctx) {
		doc := c.newDoc()
		if err := cur.Decode(doc); err != nil {
			return nil, fmt.Errorf("decode %s: %w", c.name, err)
		}
		out = append(out, doc)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (c *Collection[D]) Count(ctx context.Context, f store.Filter) (int64, error) {
	coll, err := c.coll(ctx)
	if err != nil {
		return 0, err
	}
	n, err := coll.CountDocuments(ctx, filterDoc(f))
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (c *Collection[D]) FindOne(ctx context.Context, f store.Filter) (D, error) {
	var zero D
	coll, err := c.coll(ctx)
	if err != nil {
		return zero, err
	}

	doc := c.newDoc()
	err = coll.FindOne(ctx, filterDoc(f)).Decode(doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return zero, common.NotFound("%s: document not found", c.name)
	}
	if err != nil {
		return zero, fmt.Errorf("db error: %w", err)
	}
	return doc, nil
}

func (c *Collection[D]) Create(ctx context.Context, doc D) error {
	coll, err := c.coll(ctx)
	if err != nil {
		return err
	}

	meta := doc.Meta()
	if meta.ID == "" {
		meta.ID = primitive.NewObjectID().Hex()
	}
	if _, err := coll.InsertOne(ctx, doc); err != nil {
		return c.classify(err)
	}
	return nil
}

func (c *Collection[D]) FindOneAndUpdate(ctx context.Context, f store.Filter, patch store.Patch) (D, error) {
	var zero D
	coll, err := c.coll(ctx)
	if err != nil {
		return zero, err
	}

	set := bson.M{}
	for k, v := range patch {
		set[k] = v
	}
	delete(set, "_id")

	doc := c.newDoc()
	res := coll.FindOneAndUpdate(ctx, filterDoc(f), bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After))
	if err := res.Decode(doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return zero, nil
		}
		return zero, c.classify(err)
	}
	return doc, nil
}

func (c *Collection[D]) DeleteOne(ctx context.Context, f store.Filter) (int64, error) {
	coll, err := c.coll(ctx)
	if err != nil {
		return 0, err
	}
	res, err := coll.DeleteOne(ctx, filterDoc(f))
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return res.DeletedCount, nil
}

func (c *Collection[D]) classify(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return common.Wrap(common.KindDuplicateEntry, err, fmt.Sprintf("%s: duplicate entry", c.name))
	}
	return fmt.Errorf("db error: %w", err)
}

func sortDoc(fields []store.SortField) bson.D {
	d := make(bson.D, 0, len(fields))
	for _, sf := range fields {
		d = append(d, bson.E{Key: sf.Field, Value: int(sf.Dir)})
	}
	return d
}

// filterDoc renders f as a query document. Multiple conditions are joined
// with $and so several predicates on one field do not collide.
func filterDoc(f store.Filter) bson.D {
	switch len(f) {
	case 0:
		return bson.D{}
	case 1:
		return condDoc(f[0])
	}
	all := make(bson.A, 0, len(f))
	for _, c := range f {
		all = append(all, condDoc(c))
	}
	return bson.D{{Key: "$and", Value: all}}
}

func condDoc(c store.Condition) bson.D {
	op := func(name string) bson.D {
		return bson.D{{Key: c.Field, Value: bson.D{{Key: name, Value: c.Value}}}}
	}

	switch c.Op {
	case store.OpOr:
		alts := make(bson.A, 0, len(c.Or))
		for _, sub := range c.Or {
			alts = append(alts, filterDoc(sub))
		}
		return bson.D{{Key: "$or", Value: alts}}
	case store.OpNe:
		return op("$ne")
	case store.OpGt:
		return op("$gt")
	case store.OpGte:
		return op("$gte")
	case store.OpLt:
		return op("$lt")
	case store.OpLte:
		return op("$lte")
	case store.OpIn:
		return op("$in")
	case store.OpExists:
		return op("$exists")
	case store.OpContains:
		s, _ := c.Value.(string)
		return bson.D{{Key: c.Field, Value: primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}}}
	}
	return bson.D{{Key: c.Field, Value: c.Value}}
}
