// Package store defines the persistence gateway shared by every resource:
// a typed Collection over a document store, the filter vocabulary used to
// query it, and the lazily-established connection handle the backends use.
//
// Backends live in the mongostore, pgstore and memstore subpackages.
package store

import (
	"context"

	"github.com/dmitrijs2005/fitkeeper/internal/server/models"
)

// Document constrains collection element types: pointers to models.
type Document interface {
	comparable
	models.Document
}

// Collection is the gateway for one resource collection.
//
// Find returns an empty slice, not an error, when nothing matches.
// FindOne fails with a NOT_FOUND error when nothing matches.
// Create assigns the identity and fails with DUPLICATE_ENTRY on a unique
// index violation. FindOneAndUpdate returns the updated document, or the
// zero value and a nil error when nothing matches. DeleteOne returns the
// number of deleted documents (0 or 1).
type Collection[D Document] interface {
	Find(ctx context.Context, filter Filter, opts FindOptions) ([]D, error)
	Count(ctx context.Context, filter Filter) (int64, error)
	FindOne(ctx context.Context, filter Filter) (D, error)
	Create(ctx context.Context, doc D) error
	FindOneAndUpdate(ctx context.Context, filter Filter, patch Patch) (D, error)
	DeleteOne(ctx context.Context, filter Filter) (int64, error)
}

// Patch lists store field names and the values to set.
type Patch map[string]any

type Direction int

const (
	Asc  Direction = 1
	Desc Direction = -1
)

type SortField struct {
	Field string
	Dir   Direction
}

// FindOptions controls ordering and paging of Find. A zero Limit means no
// limit.
type FindOptions struct {
	Sort  []SortField
	Skip  int64
	Limit int64
}

// Schema describes a collection: its name and the field sets that must be
// unique across its documents.
type Schema struct {
	Name   string
	Unique [][]string
}
