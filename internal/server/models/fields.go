package models

import (
	"reflect"
	"strings"
)

// jsonFieldName returns the JSON key of a struct field, or "" when it is
// not serialised.
func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

func bsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("bson"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return strings.ToLower(f.Name)
	}
	return name
}

// PatchFields maps the JSON keys present in a request body to the store
// field names and typed values of doc. Embedded structs are flattened, the
// keys listed in protected are skipped, and keys that name no field of doc
// are ignored.
func PatchFields(doc any, present map[string]bool, protected ...string) map[string]any {
	skip := make(map[string]bool, len(protected))
	for _, p := range protected {
		skip[p] = true
	}

	out := make(map[string]any)
	collectFields(reflect.Indirect(reflect.ValueOf(doc)), present, skip, out)
	return out
}

func collectFields(v reflect.Value, present, skip map[string]bool, out map[string]any) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			collectFields(v.Field(i), present, skip, out)
			continue
		}
		jsonName := jsonFieldName(f)
		bsonName := bsonFieldName(f)
		if jsonName == "" || bsonName == "" || !present[jsonName] {
			continue
		}
		if skip[jsonName] || skip[bsonName] {
			continue
		}
		out[bsonName] = v.Field(i).Interface()
	}
}
