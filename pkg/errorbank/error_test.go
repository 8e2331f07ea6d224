package errorbank_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"

	"github.com/bakery-bliss/bakery/pkg/errorbank"
)

func TestAppError_StatusAndGRPCCodes(t *testing.T) {
	testCases := []struct {
		err    *errorbank.AppError
		status int
		code   codes.Code
	}{
		{errorbank.BadRequest("bad"), http.StatusBadRequest, codes.InvalidArgument},
		{errorbank.Unauthorized("who"), http.StatusUnauthorized, codes.Unauthenticated},
		{errorbank.Forbidden("no"), http.StatusForbidden, codes.PermissionDenied},
		{errorbank.Conflict("again"), http.StatusConflict, codes.AlreadyExists},
		{errorbank.NotFound("gone"), http.StatusNotFound, codes.NotFound},
		{errorbank.Unprocessable("nope"), http.StatusUnprocessableEntity, codes.FailedPrecondition},
		{errorbank.Internal("boom"), http.StatusInternalServerError, codes.Internal},
	}

	for _, tc := range testCases {
		t.Run(string(tc.err.Kind()), func(t *testing.T) {
			assert.Equal(t, tc.status, tc.err.StatusCode())
			assert.Equal(t, tc.code, tc.err.GRPCCode())
		})
	}
}

func TestAppError_WrapsCause(t *testing.T) {
	cause := errors.New("stale version")
	err := errorbank.Conflict("order changed", errorbank.WithCause(cause), errorbank.WithCode("concurrent_modification"))

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "order changed: stale version", err.Error())
	assert.Equal(t, "concurrent_modification", err.Code())
	assert.Equal(t, "concurrent_modification", err.Details()["code"])
}

func TestFrom(t *testing.T) {
	t.Run("should return nil for nil error", func(t *testing.T) {
		assert.Nil(t, errorbank.From(nil))
	})

	t.Run("should unwrap an AppError from a wrapped chain", func(t *testing.T) {
		original := errorbank.NotFound("order not found")
		wrapped := fmt.Errorf("handler: %w", original)

		got := errorbank.From(wrapped)

		require.NotNil(t, got)
		assert.Same(t, original, got)
	})

	t.Run("should wrap unknown errors as internal", func(t *testing.T) {
		got := errorbank.From(errors.New("driver exploded"))

		require.NotNil(t, got)
		assert.Equal(t, errorbank.KindInternal, got.Kind())
		assert.Equal(t, "internal error", got.Message())
	})
}
