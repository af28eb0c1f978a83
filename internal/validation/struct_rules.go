package validation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/schoolhub-dev/schoolhub-api/pkg/result"
)

// StructRules adapts go-playground struct-tag rules into pipeline field
// errors, one per failing field in declaration order.
type StructRules[R any] struct {
	validate *validator.Validate
}

// NewStructRules wraps the shared validator instance.
func NewStructRules[R any](validate *validator.Validate) StructRules[R] {
	if validate == nil {
		validate = validator.New()
	}
	return StructRules[R]{validate: validate}
}

// Validate implements Validator.
func (s StructRules[R]) Validate(ctx context.Context, req R) []result.Error {
	err := s.validate.StructCtx(ctx, req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []result.Error{result.Validation("INVALID_PAYLOAD", err.Error())}
	}
	out := make([]result.Error, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, result.Validation(fieldCode(fe.Field()), fieldDescription(fe)))
	}
	return out
}

func fieldCode(field string) string {
	return "INVALID_" + strings.ToUpper(field)
}

func fieldDescription(fe validator.FieldError) string {
	if fe.Param() != "" {
		return fmt.Sprintf("field %s failed the %s=%s rule", fe.Field(), fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("field %s failed the %s rule", fe.Field(), fe.Tag())
}
