package pgstore

import (
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/dmitrijs2005/fitkeeper/internal/server/models"
	"github.com/dmitrijs2005/fitkeeper/internal/server/store"
)

var fieldName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// query accumulates positional arguments while SQL is rendered.
type query struct {
	args []any
}

func (q *query) arg(v any) string {
	q.args = append(q.args, v)
	return "$" + strconv.Itoa(len(q.args))
}

func field(name string) (string, error) {
	if !fieldName.MatchString(name) {
		return "", fmt.Errorf("invalid field name %q", name)
	}
	return "'" + name + "'", nil
}

// where renders f as a boolean SQL expression over the doc column.
func (q *query) where(f store.Filter) (string, error) {
	if len(f) == 0 {
		return "TRUE", nil
	}
	parts := make([]string, 0, len(f))
	for _, c := range f {
		s, err := q.cond(c)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " AND "), nil
}

func (q *query) cond(c store.Condition) (string, error) {
	if c.Op == store.OpOr {
		if len(c.Or) == 0 {
			return "FALSE", nil
		}
		alts := make([]string, 0, len(c.Or))
		for _, sub := range c.Or {
			s, err := q.where(sub)
			if err != nil {
				return "", err
			}
			alts = append(alts, "("+s+")")
		}
		return "(" + strings.Join(alts, " OR ") + ")", nil
	}

	if c.Field == models.FieldID {
		switch c.Op {
		case store.OpEq:
			return "id = " + q.arg(c.Value), nil
		case store.OpNe:
			return "id <> " + q.arg(c.Value), nil
		}
	}

	f, err := field(c.Field)
	if err != nil {
		return "", err
	}

	switch c.Op {
	case store.OpEq, store.OpNe:
		v, err := jsonValue(c.Value)
		if err != nil {
			return "", err
		}
		// containment also matches an element of an array field
		s := "doc->" + f + " @> " + q.arg(v) + "::jsonb"
		if c.Op == store.OpNe {
			return "NOT COALESCE(" + s + ", FALSE)", nil
		}
		return s, nil
	case store.OpIn:
		rv := reflect.ValueOf(c.Value)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return "", fmt.Errorf("in: %s value is not a slice", c.Field)
		}
		if rv.Len() == 0 {
			return "FALSE", nil
		}
		alts := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			v, err := jsonValue(rv.Index(i).Interface())
			if err != nil {
				return "", err
			}
			alts = append(alts, "doc->"+f+" @> "+q.arg(v)+"::jsonb")
		}
		return "(" + strings.Join(alts, " OR ") + ")", nil
	case store.OpContains:
		s, _ := c.Value.(string)
		return "doc->>" + f + " ILIKE " + q.arg("%"+escapeLike(s)+"%"), nil
	case store.OpExists:
		if ok, _ := c.Value.(bool); ok {
			return "doc->" + f + " IS NOT NULL", nil
		}
		return "doc->" + f + " IS NULL", nil
	case store.OpGt, store.OpGte, store.OpLt, store.OpLte:
		return q.compare(f, c)
	}
	return "", fmt.Errorf("unsupported operator %s", c.Op)
}

func (q *query) compare(f string, c store.Condition) (string, error) {
	ops := map[store.Op]string{store.OpGt: ">", store.OpGte: ">=", store.OpLt: "<", store.OpLte: "<="}
	op := ops[c.Op]

	switch v := c.Value.(type) {
	case time.Time:
		return "(doc->" + f + "->>'$date')::timestamptz " + op + " " + q.arg(v), nil
	case string:
		return "doc->>" + f + " " + op + " " + q.arg(v), nil
	case int, int32, int64, float32, float64:
		return "(doc->>" + f + ")::numeric " + op + " " + q.arg(v), nil
	}
	return "", fmt.Errorf("%s: cannot compare %T", c.Field, c.Value)
}

func (q *query) orderBy(sort []store.SortField) (string, error) {
	if len(sort) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(sort))
	for _, sf := range sort {
		dir := "ASC"
		if sf.Dir == store.Desc {
			dir = "DESC"
		}
		if sf.Field == models.FieldID {
			parts = append(parts, "id "+dir)
			continue
		}
		f, err := field(sf.Field)
		if err != nil {
			return "", err
		}
		parts = append(parts, "doc->"+f+" "+dir)
	}
	return " ORDER BY " + strings.Join(parts, ", "), nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// jsonValue encodes v the way it appears inside a stored document.
func jsonValue(v any) (string, error) {
	b, err := bson.MarshalExtJSON(bson.D{{Key: "v", Value: v}}, false, false)
	if err != nil {
		return "", fmt.Errorf("encode filter value: %w", err)
	}
	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(b, &wrapped); err != nil {
		return "", err
	}
	return string(wrapped["v"]), nil
}
