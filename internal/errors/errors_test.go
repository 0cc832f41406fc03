package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorPredicates(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{name: "not found", err: NotFound("x"), check: IsNotFound},
		{name: "conflict", err: Conflict("x"), check: IsConflict},
		{name: "validation", err: Validation("x"), check: IsValidation},
		{name: "unauthorized", err: Unauthorized("x"), check: IsUnauthorized},
		{name: "forbidden", err: Forbidden("x"), check: IsForbidden},
		{name: "internal", err: Internal("x"), check: IsInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
			assert.False(t, tt.check(errors.New("plain")))
		})
	}
}

func TestPredicatesSeeThroughWrapping(t *testing.T) {
	inner := NotFound("farmer not found")
	wrapped := fmt.Errorf("load farmer: %w", inner)
	assert.True(t, IsNotFound(wrapped))
	assert.Equal(t, ErrCodeNotFound, GetCode(wrapped))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(cause, ErrCodeInternal, "query users")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, ErrCodeInternal, GetCode(err))
	assert.Contains(t, err.Error(), "query users")

	assert.Nil(t, Wrap(nil, ErrCodeInternal, "no-op"))
}

func TestValidationField(t *testing.T) {
	err := ValidationField("password", "too short")
	assert.Equal(t, "password", GetField(err))
	assert.Empty(t, GetField(errors.New("plain")))
}

func TestGetCodeOnPlainError(t *testing.T) {
	assert.Equal(t, ErrorCode(""), GetCode(errors.New("plain")))
}
