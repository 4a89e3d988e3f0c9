package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_UnwrapsToKind(t *testing.T) {
	err := fmt.Errorf("refresh: %w", Unauthorized("Refresh token has been revoked"))

	assert.True(t, errors.Is(err, ErrUnauthorized))
	assert.False(t, errors.Is(err, ErrConflict))
	assert.Equal(t, "Refresh token has been revoked", Detail(err, "x"))
}

func TestDetail_FallbackForForeignErrors(t *testing.T) {
	assert.Equal(t, "Internal server error", Detail(errors.New("disk I/O error"), "Internal server error"))
	assert.Equal(t, "fallback", Detail(New(ErrInternal, ""), "fallback"))
}
