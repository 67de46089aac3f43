package memstore

import (
	"reflect"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dmitrijs2005/fitkeeper/internal/server/store"
)

func lookup(m bson.M, field string) any {
	return m[field]
}

func matches(m bson.M, f store.Filter) bool {
	for _, c := range f {
		if !matchCond(m, c) {
			return false
		}
	}
	return true
}

func matchCond(m bson.M, c store.Condition) bool {
	if c.Op == store.OpOr {
		for _, sub := range c.Or {
			if matches(m, sub) {
				return true
			}
		}
		return false
	}

	v, present := m[c.Field]
	switch c.Op {
	case store.OpExists:
		want, _ := c.Value.(bool)
		return present == want
	case store.OpEq:
		return present && anyElem(v, func(e any) bool { return equal(e, c.Value) })
	case store.OpNe:
		return !present || !anyElem(v, func(e any) bool { return equal(e, c.Value) })
	case store.OpIn:
		if !present {
			return false
		}
		rv := reflect.ValueOf(c.Value)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return false
		}
		for i := 0; i < rv.Len(); i++ {
			want := rv.Index(i).Interface()
			if anyElem(v, func(e any) bool { return equal(e, want) }) {
				return true
			}
		}
		return false
	case store.OpContains:
		s, ok := v.(string)
		sub, _ := c.Value.(string)
		return ok && strings.Contains(strings.ToLower(s), strings.ToLower(sub))
	case store.OpGt, store.OpGte, store.OpLt, store.OpLte:
		if !present || v == nil {
			return false
		}
		cmp, ok := compare(v, c.Value)
		if !ok {
			return false
		}
		switch c.Op {
		case store.OpGt:
			return cmp > 0
		case store.OpGte:
			return cmp >= 0
		case store.OpLt:
			return cmp < 0
		default:
			return cmp <= 0
		}
	}
	return false
}

// anyElem applies pred to v, or to each element when v is an array, the
// way MongoDB matches scalar predicates against array fields.
func anyElem(v any, pred func(any) bool) bool {
	if arr, ok := v.(bson.A); ok {
		for _, e := range arr {
			if pred(e) {
				return true
			}
		}
		return false
	}
	return pred(v)
}

func normalize(v any) any {
	switch x := v.(type) {
	case int:
		return float64(x)
	case int8:
		return float64(x)
	case int16:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint:
		return float64(x)
	case uint32:
		return float64(x)
	case uint64:
		return float64(x)
	case float32:
		return float64(x)
	case primitive.DateTime:
		return x.Time().UTC()
	case time.Time:
		// stored dates have millisecond precision
		return primitive.NewDateTimeFromTime(x).Time().UTC()
	case *time.Time:
		if x == nil {
			return nil
		}
		return primitive.NewDateTimeFromTime(*x).Time().UTC()
	case primitive.ObjectID:
		return x.Hex()
	}
	return v
}

func equal(a, b any) bool {
	cmp, ok := compare(a, b)
	return ok && cmp == 0
}

// compare orders two scalar values. Missing values sort first. ok is false
// when the values are of incomparable types.
func compare(a, b any) (int, bool) {
	a, b = normalize(a), normalize(b)
	switch {
	case a == nil && b == nil:
		return 0, true
	case a == nil:
		return -1, true
	case b == nil:
		return 1, true
	}

	switch x := a.(type) {
	case float64:
		y, ok := b.(float64)
		if !ok {
			return 0, false
		}
		return cmpOrdered(x, y), true
	case string:
		y, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(x, y), true
	case bool:
		y, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case x == y:
			return 0, true
		case !x:
			return -1, true
		}
		return 1, true
	case time.Time:
		y, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return x.Compare(y), true
	}
	return 0, false
}

func cmpOrdered(x, y float64) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}
