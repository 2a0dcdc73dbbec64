// Package inputval validates request structs with go-playground/validator
// and turns failures into circleerr.ErrInvalidInput.
package inputval

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/dalemusser/brewcircles/internal/app/system/circleerr"
	"github.com/go-playground/validator/v10"
)

var (
	once sync.Once
	v    *validator.Validate
)

func get() *validator.Validate {
	once.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
	})
	return v
}

// Struct validates s against its `validate` tags. The returned error wraps
// circleerr.ErrInvalidInput and names the first failing field.
func Struct(s any) error {
	err := get().Struct(s)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if errors.As(err, &ves) && len(ves) > 0 {
		fe := ves[0]
		return circleerr.Invalid(fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return circleerr.Invalid(err.Error())
}

// Text checks a required or optional plain-text field length in runes.
func Text(field, s string, required bool, max int) error {
	n := utf8.RuneCountInString(s)
	if required && n == 0 {
		return circleerr.Invalid(field + " is required")
	}
	if max > 0 && n > max {
		return circleerr.Invalid(fmt.Sprintf("%s must be at most %d characters", field, max))
	}
	return nil
}
