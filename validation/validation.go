// Package validation wraps github.com/go-playground/validator/v10 with the
// struct-tag constraints this module's configuration and request types
// declare, plus the one cross-field rule (weights summing to 1) a
// struct-tag can't express on its own.
package validation

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
)

var instance = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("sumsto1", validateSumsTo1)
	return v
}

// validateSumsTo1 checks that a float64 field plus the field its tag param
// names sum to 1 within a small tolerance, for weight pairs like
// (dense_weight, sparse_weight) and (original_weight, rerank_weight).
func validateSumsTo1(fl validator.FieldLevel) bool {
	other := fl.Parent().FieldByName(fl.Param())
	if !other.IsValid() {
		return false
	}
	return math.Abs(fl.Field().Float()+other.Float()-1.0) <= 1e-3
}

// Struct validates every struct-tag constraint on s, returning a single
// error describing every violation found.
func Struct(s interface{}) error {
	if err := instance.Struct(s); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			return toError(verrs)
		}
		return err
	}
	return nil
}

func toError(verrs validator.ValidationErrors) error {
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q constraint (got %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("validation: %s", strings.Join(msgs, "; "))
}
