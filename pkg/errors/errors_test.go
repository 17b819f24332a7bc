package errors_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/zatekoja/medanalyzer/pkg/errors"
)

func TestAppError_ErrorIncludesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := apperrors.NewExternalError("diagnosis request failed", nil, cause)

	assert.Equal(t, "EXTERNAL: diagnosis request failed: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestAs_FindsWrappedAppError(t *testing.T) {
	inner := apperrors.NewParseError("bad json", "not json", nil)
	wrapped := fmt.Errorf("analyze: %w", inner)

	appErr, ok := apperrors.As(wrapped)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrorTypeParse, appErr.Type)
	assert.Equal(t, "not json", appErr.Details)
	assert.True(t, apperrors.IsType(wrapped, apperrors.ErrorTypeParse))
	assert.False(t, apperrors.IsType(wrapped, apperrors.ErrorTypeExternal))
}

func TestAs_PlainError(t *testing.T) {
	_, ok := apperrors.As(errors.New("plain"))
	assert.False(t, ok)
}
