package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		err := New(CauseBadRequest, "test error")

		assert.Equal(t, CauseBadRequest, err.Cause)
		assert.Equal(t, "test error", err.Message)
		assert.Nil(t, err.Err)
		assert.Empty(t, err.Details)
		assert.Zero(t, err.Status)
	})

	t.Run("Wrap", func(t *testing.T) {
		cause := errors.New("underlying error")
		err := Wrap(cause, CauseServerError, "wrapped error")

		assert.Equal(t, CauseServerError, err.Cause)
		assert.Equal(t, "wrapped error", err.Message)
		assert.Equal(t, cause, err.Err)
	})

	t.Run("Error", func(t *testing.T) {
		err := New(CauseBadRequest, "test error")
		assert.Equal(t, "[BAD_REQUEST] test error", err.Error())

		cause := errors.New("underlying error")
		errWithCause := Wrap(cause, CauseServerError, "wrapped error")
		assert.Equal(t, "[SERVER_ERROR] wrapped error (caused by: underlying error)", errWithCause.Error())
	})

	t.Run("Unwrap", func(t *testing.T) {
		cause := errors.New("underlying error")
		err := Wrap(cause, CauseNetworkError, "wrapped error")

		assert.Equal(t, cause, err.Unwrap())
		assert.True(t, errors.Is(err, cause))

		errWithoutCause := New(CauseBadRequest, "test error")
		assert.Nil(t, errWithoutCause.Unwrap())
	})

	t.Run("WithDetail", func(t *testing.T) {
		err := New(CauseBadRequest, "test error")

		result := err.WithDetail("field", "username")
		assert.Same(t, err, result)
		assert.Equal(t, "username", err.Details["field"])

		err.WithDetail("value", 123).WithDetail("required", true)
		assert.Equal(t, 123, err.Details["value"])
		assert.Equal(t, true, err.Details["required"])
	})

	t.Run("WithStatus", func(t *testing.T) {
		err := New(CauseForbidden, "nope").WithStatus(403)
		assert.Equal(t, 403, err.Status)
	})

	t.Run("WithRequestID", func(t *testing.T) {
		err := New(CauseServerError, "boom")

		result := err.WithRequestID("req-123")
		assert.Same(t, err, result)
		assert.Equal(t, "req-123", err.RequestID)
	})
}

func TestConstructors(t *testing.T) {
	testCases := []struct {
		name     string
		err      *Error
		cause    Cause
		message  string
	}{
		{"BadRequest", NewBadRequest("bad field"), CauseBadRequest, "bad field"},
		{"BadRequestFallback", NewBadRequest(""), CauseBadRequest, MsgBadRequest},
		{"Unauthorized", NewUnauthorized("session expired"), CauseUnauthorized, "session expired"},
		{"UnauthorizedFallback", NewUnauthorized(""), CauseUnauthorized, MsgUnauthorized},
		{"Forbidden", NewForbidden(""), CauseForbidden, MsgForbidden},
		{"NotFound", NewNotFound(""), CauseNotFound, MsgNotFound},
		{"ServerError", NewServerError(""), CauseServerError, MsgServerError},
		{"ConfigError", NewConfigError("missing base url"), CauseConfigError, "missing base url"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.cause, tc.err.Cause)
			assert.Equal(t, tc.message, tc.err.Message)
		})
	}

	t.Run("NetworkError", func(t *testing.T) {
		cause := errors.New("dial tcp: connection refused")
		err := NewNetworkError(cause)

		assert.Equal(t, CauseNetworkError, err.Cause)
		assert.Equal(t, MsgNetworkError, err.Message)
		assert.Equal(t, cause, err.Err)
	})
}

func TestCauseForStatus(t *testing.T) {
	testCases := []struct {
		status int
		want   Cause
	}{
		{400, CauseBadRequest},
		{401, CauseUnauthorized},
		{403, CauseForbidden},
		{404, CauseNotFound},
		{405, CauseBadRequest},
		{422, CauseBadRequest},
		{500, CauseServerError},
		{502, CauseServerError},
		{599, CauseServerError},
		{1, CauseServerError},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("status_%d", tc.status), func(t *testing.T) {
			assert.Equal(t, tc.want, CauseForStatus(tc.status))
		})
	}
}

func TestFromStatus(t *testing.T) {
	t.Run("ServerMessageWins", func(t *testing.T) {
		err := FromStatus(400, "name too long")
		assert.Equal(t, CauseBadRequest, err.Cause)
		assert.Equal(t, "name too long", err.Message)
		assert.Equal(t, 400, err.Status)
	})

	t.Run("FallbackMessage", func(t *testing.T) {
		err := FromStatus(401, "")
		assert.Equal(t, CauseUnauthorized, err.Cause)
		assert.Equal(t, MsgUnauthorized, err.Message)
	})

	t.Run("ServerErrorFamily", func(t *testing.T) {
		err := FromStatus(503, "")
		assert.Equal(t, CauseServerError, err.Cause)
		assert.Equal(t, 503, err.Status)
	})
}

func TestChainHelpers(t *testing.T) {
	t.Run("CauseOf", func(t *testing.T) {
		err := NewForbidden("")
		cause, ok := CauseOf(err)
		require.True(t, ok)
		assert.Equal(t, CauseForbidden, cause)

		wrapped := fmt.Errorf("handler: %w", err)
		cause, ok = CauseOf(wrapped)
		require.True(t, ok)
		assert.Equal(t, CauseForbidden, cause)

		_, ok = CauseOf(errors.New("plain"))
		assert.False(t, ok)
	})

	t.Run("IsCause", func(t *testing.T) {
		err := fmt.Errorf("outer: %w", NewNotFound(""))
		assert.True(t, IsCause(err, CauseNotFound))
		assert.False(t, IsCause(err, CauseForbidden))
		assert.False(t, IsCause(nil, CauseNotFound))
	})

	t.Run("AsError", func(t *testing.T) {
		orig := NewBadRequest("bad")
		got := AsError(fmt.Errorf("outer: %w", orig))
		require.NotNil(t, got)
		assert.Same(t, orig, got)

		assert.Nil(t, AsError(errors.New("plain")))
	})

	t.Run("HumanMessage", func(t *testing.T) {
		assert.Equal(t, "bad", HumanMessage(NewBadRequest("bad")))
		assert.Equal(t, "plain", HumanMessage(errors.New("plain")))
		assert.Empty(t, HumanMessage(nil))
	})
}

func BenchmarkFromStatus(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = FromStatus(404, "user not found")
	}
}

func BenchmarkCauseOf(b *testing.B) {
	err := fmt.Errorf("outer: %w", NewUnauthorized(""))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = CauseOf(err)
	}
}
