package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(ErrCodePatentNotFound, "patent not found")
	require.NotNil(t, err)
	assert.Equal(t, ErrCodePatentNotFound, err.Code)
	assert.Equal(t, "patent not found", err.Message)
	assert.NotEmpty(t, err.Stack)
}

func TestErrorFormat(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "without detail",
			err:  &AppError{Code: ErrCodeInternal, Message: "boom"},
			want: "[COMMON_001] boom",
		},
		{
			name: "with detail",
			err:  &AppError{Code: ErrCodePatentNotFound, Message: "patent not found", Detail: "pub=US123"},
			want: "[PAT_001] patent not found: pub=US123",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestWrap(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		assert.Nil(t, Wrap(nil, ErrCodeInternal, "ignored"))
	})

	t.Run("wraps and unwraps", func(t *testing.T) {
		cause := stderrors.New("connection refused")
		err := Wrap(cause, ErrCodeDatabaseError, "query failed")
		require.NotNil(t, err)
		assert.Equal(t, ErrCodeDatabaseError, err.Code)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("CodeUnknown preserves the inner code", func(t *testing.T) {
		inner := New(ErrCodeAnnotationFailed, "engine down")
		err := Wrap(inner, CodeUnknown, "extraction aborted")
		assert.Equal(t, ErrCodeAnnotationFailed, err.Code)
	})
}

func TestIsCode(t *testing.T) {
	inner := New(ErrCodeAnnotationFailed, "engine down")
	wrapped := fmt.Errorf("pipeline: %w", Wrap(inner, ErrCodeExtractionFailed, "chunk 3"))

	assert.True(t, IsCode(wrapped, ErrCodeExtractionFailed))
	assert.True(t, IsCode(wrapped, ErrCodeAnnotationFailed))
	assert.False(t, IsCode(wrapped, ErrCodeDatabaseError))
	assert.False(t, IsCode(nil, ErrCodeInternal))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(NotFound("gone")))
	assert.True(t, IsNotFound(New(ErrCodePatentNotFound, "missing")))
	assert.False(t, IsNotFound(New(ErrCodeInternal, "boom")))
	assert.False(t, IsNotFound(stderrors.New("plain")))
	assert.False(t, IsNotFound(nil))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, CodeOK, GetCode(nil))
	assert.Equal(t, CodeUnknown, GetCode(stderrors.New("plain")))
	assert.Equal(t, ErrCodeCacheError, GetCode(New(ErrCodeCacheError, "miss")))
}

func TestWithDetail(t *testing.T) {
	base := New(ErrCodePatentInvalid, "bad application")
	detailed := base.WithDetail("application_number=13/999999")

	assert.Empty(t, base.Detail, "receiver must not be mutated")
	assert.Equal(t, "application_number=13/999999", detailed.Detail)

	var nilErr *AppError
	assert.Nil(t, nilErr.WithDetail("x"))
}

func TestHTTPStatusForCode(t *testing.T) {
	assert.Equal(t, 404, HTTPStatusForCode(ErrCodePatentNotFound))
	assert.Equal(t, 503, HTTPStatusForCode(ErrCodeAnnotatorUnavailable))
	assert.Equal(t, 500, HTTPStatusForCode(ErrorCode("NOPE_000")))
}

func TestModuleForCode(t *testing.T) {
	assert.Equal(t, "PAT", ModuleForCode(ErrCodePatentNotFound))
	assert.Equal(t, "ANN", ModuleForCode(ErrCodeAnnotationFailed))
	assert.Equal(t, "KG", ModuleForCode(ErrCodeGraphWriteFailed))
}

func TestIsClientServerError(t *testing.T) {
	assert.True(t, IsClientError(ErrCodeBadRequest))
	assert.False(t, IsClientError(ErrCodeInternal))
	assert.True(t, IsServerError(ErrCodeGraphWriteFailed))
	assert.False(t, IsServerError(ErrCodeValidation))
}
