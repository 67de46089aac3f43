package store

import "github.com/dmitrijs2005/fitkeeper/internal/server/models"

type Op int

const (
	OpEq Op = iota
	OpNe
	OpGt
	OpGte
	OpLt
	OpLte
	// OpIn matches when the field equals any element of a slice value.
	OpIn
	// OpContains is a case-insensitive substring match on strings.
	OpContains
	// OpExists matches on presence (Value true) or absence (false).
	OpExists
	// OpOr matches when any filter in Or matches.
	OpOr
)

func (o Op) String() string {
	switch o {
	case OpEq:
		return "eq"
	case OpNe:
		return "ne"
	case OpGt:
		return "gt"
	case OpGte:
		return "gte"
	case OpLt:
		return "lt"
	case OpLte:
		return "lte"
	case OpIn:
		return "in"
	case OpContains:
		return "contains"
	case OpExists:
		return "exists"
	case OpOr:
		return "or"
	}
	return "unknown"
}

// Condition is one predicate on a document field.
type Condition struct {
	Field string
	Op    Op
	Value any
	Or    []Filter
}

// Filter is a conjunction of conditions. The empty filter matches all.
type Filter []Condition

// And returns a new filter with conds appended; f is not modified.
func (f Filter) And(conds ...Condition) Filter {
	out := make(Filter, 0, len(f)+len(conds))
	out = append(out, f...)
	return append(out, conds...)
}

func Eq(field string, v any) Condition       { return Condition{Field: field, Op: OpEq, Value: v} }
func Ne(field string, v any) Condition       { return Condition{Field: field, Op: OpNe, Value: v} }
func Gt(field string, v any) Condition       { return Condition{Field: field, Op: OpGt, Value: v} }
func Gte(field string, v any) Condition      { return Condition{Field: field, Op: OpGte, Value: v} }
func Lt(field string, v any) Condition       { return Condition{Field: field, Op: OpLt, Value: v} }
func Lte(field string, v any) Condition      { return Condition{Field: field, Op: OpLte, Value: v} }
func In(field string, v any) Condition       { return Condition{Field: field, Op: OpIn, Value: v} }
func Contains(field, s string) Condition     { return Condition{Field: field, Op: OpContains, Value: s} }
func Exists(field string, ok bool) Condition { return Condition{Field: field, Op: OpExists, Value: ok} }
func Or(filters ...Filter) Condition         { return Condition{Op: OpOr, Or: filters} }

// ByID matches the document with the given identity.
func ByID(id string) Filter {
	return Filter{Eq(models.FieldID, id)}
}
