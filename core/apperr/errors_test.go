package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHelpersWrapSentinels(t *testing.T) {
	err := fmt.Errorf("add song: %w", NotFound("song %d", 7))

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrForbidden))
	assert.Contains(t, err.Error(), "song 7")
}

func TestServiceError(t *testing.T) {
	cause := errors.New("quota exceeded")
	err := fmt.Errorf("lyrics: %w", NewServiceError("gemini", cause))

	assert.True(t, IsServiceError(err))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, IsServiceError(Validation("bad")))
}
