// Package memstore is an in-process store backend. Documents are kept as
// BSON so they go through the same encoding as the MongoDB backend.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/dmitrijs2005/fitkeeper/internal/common"
	"github.com/dmitrijs2005/fitkeeper/internal/server/models"
	"github.com/dmitrijs2005/fitkeeper/internal/server/store"
)

type table struct {
	schema store.Schema
	ids    []string
	docs   map[string]bson.Raw
}

// Store holds every collection of one in-memory database.
type Store struct {
	mu     sync.RWMutex
	tables map[string]*table
}

func New(schemas ...store.Schema) *Store {
	s := &Store{tables: make(map[string]*table)}
	for _, sc := range schemas {
		s.table(sc)
	}
	return s
}

func (s *Store) table(sc store.Schema) *table {
	t, ok := s.tables[sc.Name]
	if !ok {
		t = &table{schema: sc, docs: make(map[string]bson.Raw)}
		s.tables[sc.Name] = t
	}
	return t
}

// Collection implements store.Collection on a Store.
type Collection[D store.Document] struct {
	s      *Store
	schema store.Schema
	newDoc func() D
}

func NewCollection[D store.Document](s *Store, schema store.Schema, newDoc func() D) *Collection[D] {
	s.mu.Lock()
	s.table(schema)
	s.mu.Unlock()
	return &Collection[D]{s: s, schema: schema, newDoc: newDoc}
}

type row struct {
	id  string
	raw bson.Raw
	m   bson.M
}

// scan returns the rows matching f in insertion order. The caller holds the
// lock.
func (c *Collection[D]) scan(f store.Filter) ([]row, error) {
	t := c.s.tables[c.schema.Name]
	var out []row
	for _, id := range t.ids {
		raw := t.docs[id]
		var m bson.M
		if err := bson.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", c.schema.Name, id, err)
		}
		if matches(m, f) {
			out = append(out, row{id: id, raw: raw, m: m})
		}
	}
	return out, nil
}

func (c *Collection[D]) decode(raw bson.Raw) (D, error) {
	doc := c.newDoc()
	if err := bson.Unmarshal(raw, doc); err != nil {
		var zero D
		return zero, err
	}
	return doc, nil
}

func (c *Collection[D]) Find(ctx context.Context, f store.Filter, opts store.FindOptions) ([]D, error) {
	c.s.mu.RLock()
	rows, err := c.scan(f)
	c.s.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	if len(opts.Sort) > 0 {
		sort.SliceStable(rows, func(i, j int) bool {
			for _, sf := range opts.Sort {
				cmp, ok := compare(lookup(rows[i].m, sf.Field), lookup(rows[j].m, sf.Field))
				if !ok || cmp == 0 {
					continue
				}
				if sf.Dir == store.Desc {
					return cmp > 0
				}
				return cmp < 0
			}
			return false
		})
	}

	if opts.Skip > 0 {
		if opts.Skip >= int64(len(rows)) {
			rows = nil
		} else {
			rows = rows[opts.Skip:]
		}
	}
	if opts.Limit > 0 && opts.Limit < int64(len(rows)) {
		rows = rows[:opts.Limit]
	}

	out := make([]D, 0, len(rows))
	for _, r := range rows {
		doc, err := c.decode(r.raw)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

func (c *Collection[D]) Count(ctx context.Context, f store.Filter) (int64, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()
	rows, err := c.scan(f)
	return int64(len(rows)), err
}

func (c *Collection[D]) FindOne(ctx context.Context, f store.Filter) (D, error) {
	c.s.mu.RLock()
	rows, err := c.scan(f)
	c.s.mu.RUnlock()

	var zero D
	if err != nil {
		return zero, err
	}
	if len(rows) == 0 {
		return zero, common.NotFound("%s: document not found", c.schema.Name)
	}
	return c.decode(rows[0].raw)
}

func (c *Collection[D]) Create(ctx context.Context, doc D) error {
	meta := doc.Meta()
	if meta.ID == "" {
		meta.ID = uuid.NewString()
	}
	raw, err := bson.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.schema.Name, err)
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return err
	}

	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	t := c.s.tables[c.schema.Name]
	if _, ok := t.docs[meta.ID]; ok {
		return common.DuplicateEntry("%s: duplicate id %s", c.schema.Name, meta.ID)
	}
	if err := c.checkUnique(t, meta.ID, m); err != nil {
		return err
	}
	t.ids = append(t.ids, meta.ID)
	t.docs[meta.ID] = raw
	return nil
}

// checkUnique reports a duplicate when another document has the same values
// for all fields of some unique index. Documents missing any of the fields
// are not constrained.
func (c *Collection[D]) checkUnique(t *table, id string, m bson.M) error {
	for _, fields := range t.schema.Unique {
		if !hasAll(m, fields) {
			continue
		}
		for _, other := range t.ids {
			if other == id {
				continue
			}
			var om bson.M
			if err := bson.Unmarshal(t.docs[other], &om); err != nil {
				return err
			}
			if hasAll(om, fields) && sameValues(m, om, fields) {
				return common.DuplicateEntry("%s: duplicate %v", c.schema.Name, fields)
			}
		}
	}
	return nil
}

func hasAll(m bson.M, fields []string) bool {
	for _, f := range fields {
		if _, ok := m[f]; !ok {
			return false
		}
	}
	return true
}

func sameValues(a, b bson.M, fields []string) bool {
	for _, f := range fields {
		if !equal(a[f], b[f]) {
			return false
		}
	}
	return true
}

func (c *Collection[D]) FindOneAndUpdate(ctx context.Context, f store.Filter, patch store.Patch) (D, error) {
	var zero D

	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	rows, err := c.scan(f)
	if err != nil || len(rows) == 0 {
		return zero, err
	}
	r := rows[0]

	// round-trip the patch through BSON so stored values have the same
	// types as freshly inserted ones
	praw, err := bson.Marshal(bson.M(patch))
	if err != nil {
		return zero, fmt.Errorf("encode patch: %w", err)
	}
	var pm bson.M
	if err := bson.Unmarshal(praw, &pm); err != nil {
		return zero, err
	}
	for k, v := range pm {
		if k == models.FieldID {
			continue
		}
		r.m[k] = v
	}

	t := c.s.tables[c.schema.Name]
	if err := c.checkUnique(t, r.id, r.m); err != nil {
		return zero, err
	}
	raw, err := bson.Marshal(r.m)
	if err != nil {
		return zero, err
	}
	t.docs[r.id] = raw
	return c.decode(raw)
}

func (c *Collection[D]) DeleteOne(ctx context.Context, f store.Filter) (int64, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	rows, err := c.scan(f)
	if err != nil || len(rows) == 0 {
		return 0, err
	}
	t := c.s.tables[c.schema.Name]
	id := rows[0].id
	delete(t.docs, id)
	for i, v := range t.ids {
		if v == id {
			t.ids = append(t.ids[:i], t.ids[i+1:]...)
			break
		}
	}
	return 1, nil
}
