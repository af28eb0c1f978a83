// Package validation runs registered validators ahead of every operation
// handler. All validators run and every failure from every validator is
// collected before the request is rejected; a non-empty failure list always
// short-circuits the handler.
package validation

import (
	"context"

	"github.com/schoolhub-dev/schoolhub-api/pkg/result"
)

// Validator inspects one request type and reports zero or more field errors.
type Validator[R any] interface {
	Validate(ctx context.Context, req R) []result.Error
}

// Func adapts a plain function into a Validator.
type Func[R any] func(ctx context.Context, req R) []result.Error

// Validate implements Validator.
func (f Func[R]) Validate(ctx context.Context, req R) []result.Error {
	return f(ctx, req)
}

// Handler produces the operation outcome once validation has passed.
type Handler[R, T any] func(ctx context.Context, req R) result.Result[T]

// Run executes every validator in registration order, concatenates all of
// their failures, and only invokes the handler when the combined list is
// empty. The handler's result passes through unchanged. The payload type is
// fixed per request type, so callers expecting a payload receive a typed
// failure on the rejection path as well.
func Run[R, T any](ctx context.Context, req R, validators []Validator[R], handler Handler[R, T]) result.Result[T] {
	var fields []result.Error
	for _, v := range validators {
		fields = append(fields, v.Validate(ctx, req)...)
	}
	if len(fields) > 0 {
		return result.Invalid[T](fields)
	}
	return handler(ctx, req)
}
