package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/dmitrijs2005/fitkeeper/internal/common"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(jsonFieldName)
	})
	return validate
}

// Validate checks doc against its `validate` tags and reports the first
// problems as a BAD_REQUEST error naming the JSON fields involved.
func Validate(doc any) error {
	err := validatorInstance().Struct(doc)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return common.Wrap(common.KindBadRequest, err, "invalid document")
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe.Field(), fe))
	}
	return common.BadRequest("%s", strings.Join(msgs, "; "))
}

// ValidateFields applies the `validate` tags of the fields whose JSON keys
// are in present, leaving the others unchecked. It is used for partial
// updates.
func ValidateFields(doc any, present map[string]bool) error {
	var msgs []string
	validateFields(reflect.Indirect(reflect.ValueOf(doc)), present, &msgs)
	if len(msgs) == 0 {
		return nil
	}
	return common.BadRequest("%s", strings.Join(msgs, "; "))
}

func validateFields(v reflect.Value, present map[string]bool, msgs *[]string) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			validateFields(v.Field(i), present, msgs)
			continue
		}
		name := jsonFieldName(f)
		tag := f.Tag.Get("validate")
		if name == "" || tag == "" || !present[name] {
			continue
		}
		err := validatorInstance().Var(v.Field(i).Interface(), tag)
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				*msgs = append(*msgs, describe(name, fe))
			}
		}
	}
}

func describe(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte", "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "len":
		return fmt.Sprintf("%s must have length %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
