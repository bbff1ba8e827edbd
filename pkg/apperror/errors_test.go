package apperror_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oksasatya/go-ddd-cqrs-users/pkg/apperror"
)

func TestKindOf_WrappedError(t *testing.T) {
	base := apperror.Conflict("email already registered", "email")
	wrapped := fmt.Errorf("creating user: %w", base)

	assert.Equal(t, apperror.KindConflict, apperror.KindOf(wrapped))
	assert.True(t, apperror.Is(wrapped, apperror.KindConflict))
	assert.True(t, errors.Is(wrapped, base))
	assert.Equal(t, http.StatusConflict, base.HTTPStatus())
}

func TestKindOf_PlainErrorIsInternal(t *testing.T) {
	assert.Equal(t, apperror.KindInternal, apperror.KindOf(errors.New("boom")))
	assert.False(t, apperror.Is(nil, apperror.KindInternal))
}

func TestValidation_MessageListsFieldsInOrder(t *testing.T) {
	err := apperror.Validation(map[string]string{"phone": "is invalid", "email": "is required"})

	assert.Equal(t, "validation failed (email: is required; phone: is invalid)", err.Error())
	assert.Equal(t, "VALIDATION_ERROR", err.Category())
}

func TestTransient_Unwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := apperror.Transient("read store unavailable", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusServiceUnavailable, err.HTTPStatus())
}
