package result

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOkCarriesValueAndNoneError(t *testing.T) {
	r := Ok("session-1")
	require.True(t, r.Succeeded())
	assert.Equal(t, "session-1", r.Value())
	assert.True(t, r.Err().IsNone())
	assert.Nil(t, r.FieldErrors())
	assert.False(t, r.IsInvalid())
}

func TestErrRejectsNoneSentinel(t *testing.T) {
	assert.Panics(t, func() {
		Err[string](Error{})
	})
}

func TestValueOnFailedResultPanics(t *testing.T) {
	r := Err[string](NotFound("ALLOCATION_NOT_FOUND", "allocation not found"))
	require.False(t, r.Succeeded())
	assert.Panics(t, func() {
		_ = r.Value()
	})
}

func TestErrorFactoriesTagKinds(t *testing.T) {
	cases := []struct {
		err  Error
		kind Kind
	}{
		{Failure("F", "f"), KindFailure},
		{Validation("V", "v"), KindValidation},
		{NotFound("N", "n"), KindNotFound},
		{Conflict("C", "c"), KindConflict},
		{Unauthorized("U", "u"), KindUnauthorized},
		{Forbidden("X", "x"), KindForbidden},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.kind, tc.err.Kind, tc.err.Code)
	}
}

func TestInvalidKeepsFieldOrderAndCopies(t *testing.T) {
	fields := []Error{
		Validation("TITLE_REQUIRED", "title is required"),
		Validation("DATE_INVALID", "date must be YYYY-MM-DD"),
	}
	r := Invalid[Unit](fields)

	require.False(t, r.Succeeded())
	assert.True(t, r.IsInvalid())
	assert.Equal(t, ErrValidationFailed, r.Err())
	require.Len(t, r.FieldErrors(), 2)
	assert.Equal(t, "TITLE_REQUIRED", r.FieldErrors()[0].Code)
	assert.Equal(t, "DATE_INVALID", r.FieldErrors()[1].Code)

	// Mutating the caller's slice must not leak into the result.
	fields[0] = Validation("MUTATED", "mutated")
	assert.Equal(t, "TITLE_REQUIRED", r.FieldErrors()[0].Code)
}

func TestInvalidRejectsEmptyAndNoneEntries(t *testing.T) {
	assert.Panics(t, func() { Invalid[Unit](nil) })
	assert.Panics(t, func() { Invalid[Unit]([]Error{{}}) })
}

func TestOfMapsAbsenceToNullValueFailure(t *testing.T) {
	value := 7
	ok := Of(&value)
	require.True(t, ok.Succeeded())
	assert.Equal(t, 7, ok.Value())

	missing := Of[int](nil)
	require.False(t, missing.Succeeded())
	assert.Equal(t, ErrNullValue, missing.Err())
}

func TestForwardRetypesFailures(t *testing.T) {
	failed := Err[Unit](Conflict("SESSION_DATE_TAKEN", "a session already exists for this date"))
	forwarded := Forward[string](failed)
	require.False(t, forwarded.Succeeded())
	assert.Equal(t, KindConflict, forwarded.Err().Kind)

	invalid := Invalid[Unit]([]Error{Validation("X", "x")})
	forwardedInvalid := Forward[int](invalid)
	assert.True(t, forwardedInvalid.IsInvalid())

	assert.Panics(t, func() {
		Forward[string](OK())
	})
}

func TestSingleDomainFailureIsNotInvalid(t *testing.T) {
	r := Err[Unit](Validation("DATE_INVALID", "bad date"))
	assert.False(t, r.IsInvalid())
	assert.Equal(t, KindValidation, r.Err().Kind)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "NONE", KindNone.String())
	assert.Equal(t, "CONFLICT", KindConflict.String())
	assert.Equal(t, "FORBIDDEN", KindForbidden.String())
}
