// Package pgstore implements store.Collection on PostgreSQL. Every
// collection shares one documents table; each row keeps the document as
// relaxed Extended JSON in a jsonb column.
package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/dmitrijs2005/fitkeeper/internal/common"
	"github.com/dmitrijs2005/fitkeeper/internal/dbx"
	"github.com/dmitrijs2005/fitkeeper/internal/server/migrations"
	"github.com/dmitrijs2005/fitkeeper/internal/server/models"
	"github.com/dmitrijs2005/fitkeeper/internal/server/store"
)

const uniqueViolation = "23505"

// sqlOpen is a seam for testing sql.Open.
var sqlOpen = sql.Open

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// Dial returns a dial function that opens dsn, checks the connection and
// applies the embedded migrations.
func Dial(dsn string) store.DialFunc[*sql.DB] {
	return func(ctx context.Context) (*sql.DB, error) {
		db, err := sqlOpen("pgx", dsn)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ping database: %w", err)
		}
		if err := RunMigrations(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	}
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

type Collection[D store.Document] struct {
	conn   *store.Lazy[*sql.DB]
	name   string
	newDoc func() D
}

func NewCollection[D store.Document](conn *store.Lazy[*sql.DB], schema store.Schema, newDoc func() D) *Collection[D] {
	return &Collection[D]{conn: conn, name: schema.Name, newDoc: newDoc}
}

func (c *Collection[D]) decode(data []byte) (D, error) {
	doc := c.newDoc()
	if err := bson.UnmarshalExtJSON(data, false, doc); err != nil {
		var zero D
		return zero, fmt.Errorf("decode %s: %w", c.name, err)
	}
	return doc, nil
}

func (c *Collection[D]) Find(ctx context.Context, f store.Filter, opts store.FindOptions) ([]D, error) {
	db, err := c.conn.Get(ctx)
	if err != nil {
		return nil, err
	}

	q := &query{}
	coll := q.arg(c.name)
	where, err := q.where(f)
	if err != nil {
		return nil, err
	}
	order, err := q.orderBy(opts.Sort)
	if err != nil {
		return nil, err
	}

	s := `SELECT doc FROM documents WHERE collection = ` + coll + ` AND ` + where + order
	if opts.Limit > 0 {
		s += ` LIMIT ` + q.arg(opts.Limit)
	}
	if opts.Skip > 0 {
		s += ` OFFSET ` + q.arg(opts.Skip)
	}

	return c.query(ctx, db, s, q.args...)
}

func (c *Collection[D]) query(ctx context.Context, db dbx.DBTX, s string, args ...any) ([]D, error) {
	rows, err := db.QueryContext(ctx, s, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := make([]D, 0)
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		doc, err := c.decode(data)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (c *Collection[D]) Count(ctx context.Context, f store.Filter) (int64, error) {
	db, err := c.conn.Get(ctx)
	if err != nil {
		return 0, err
	}

	q := &query{}
	coll := q.arg(c.name)
	where, err := q.where(f)
	if err != nil {
		return 0, err
	}

	var n int64
	s := `SELECT COUNT(*) FROM documents WHERE collection = ` + coll + ` AND ` + where
	if err := db.QueryRowContext(ctx, s, q.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (c *Collection[D]) FindOne(ctx context.Context, f store.Filter) (D, error) {
	var zero D
	docs, err := c.Find(ctx, f, store.FindOptions{Limit: 1})
	if err != nil {
		return zero, err
	}
	if len(docs) == 0 {
		return zero, common.NotFound("%s: document not found", c.name)
	}
	return docs[0], nil
}

func (c *Collection[D]) Create(ctx context.Context, doc D) error {
	db, err := c.conn.Get(ctx)
	if err != nil {
		return err
	}

	meta := doc.Meta()
	if meta.ID == "" {
		meta.ID = uuid.NewString()
	}
	data, err := bson.MarshalExtJSON(doc, false, false)
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.name, err)
	}

	query :=
		`INSERT INTO documents (collection, id, doc)
		 VALUES ($1, $2, $3::jsonb)
		 `
	if _, err := db.ExecContext(ctx, query, c.name, meta.ID, string(data)); err != nil {
		return c.classify(err)
	}
	return nil
}

func (c *Collection[D]) FindOneAndUpdate(ctx context.Context, f store.Filter, patch store.Patch) (D, error) {
	var zero D
	db, err := c.conn.Get(ctx)
	if err != nil {
		return zero, err
	}

	set := bson.M{}
	for k, v := range patch {
		if k != models.FieldID {
			set[k] = v
		}
	}
	data, err := bson.MarshalExtJSON(set, false, false)
	if err != nil {
		return zero, fmt.Errorf("encode patch: %w", err)
	}

	q := &query{}
	coll := q.arg(c.name)
	where, err := q.where(f)
	if err != nil {
		return zero, err
	}
	sel := `SELECT id FROM documents WHERE collection = ` + coll + ` AND ` + where + ` LIMIT 1 FOR UPDATE`

	var out D
	err = dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var id string
		if err := tx.QueryRowContext(ctx, sel, q.args...).Scan(&id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			return fmt.Errorf("db error: %w", err)
		}

		upd :=
			`UPDATE documents SET doc = doc || $3::jsonb
			 WHERE collection = $1 AND id = $2
			 RETURNING doc
			 `
		var doc []byte
		if err := tx.QueryRowContext(ctx, upd, c.name, id, string(data)).Scan(&doc); err != nil {
			return c.classify(err)
		}
		d, err := c.decode(doc)
		if err != nil {
			return err
		}
		out = d
		return nil
	})
	if err != nil {
		return zero, err
	}
	return out, nil
}

func (c *Collection[D]) DeleteOne(ctx context.Context, f store.Filter) (int64, error) {
	db, err := c.conn.Get(ctx)
	if err != nil {
		return 0, err
	}

	q := &query{}
	coll := q.arg(c.name)
	where, err := q.where(f)
	if err != nil {
		return 0, err
	}

	s := `DELETE FROM documents WHERE collection = ` + coll + ` AND id IN (SELECT id FROM documents WHERE collection = ` + coll + ` AND ` + where + ` LIMIT 1)`
	res, err := db.ExecContext(ctx, s, q.args...)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (c *Collection[D]) classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return common.Wrap(common.KindDuplicateEntry, err, fmt.Sprintf("%s: duplicate entry", c.name))
	}
	return fmt.Errorf("db error: %w", err)
}
