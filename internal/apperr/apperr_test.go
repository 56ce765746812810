package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{"invalid input", InvalidInput("bad"), ErrInvalidInput, true},
		{"conflict", Conflict("dup"), ErrConflict, true},
		{"wrapped conflict", fmt.Errorf("creating submission: %w", Conflict("dup")), ErrConflict, true},
		{"storage", Storage("down", errors.New("dial tcp")), ErrStorageUnavailable, true},
		{"kind mismatch", Conflict("dup"), ErrInvalidInput, false},
		{"plain error", errors.New("boom"), ErrStorageUnavailable, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errors.Is(tt.err, tt.target))
		})
	}
}

func TestKindOfAndMessage(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("listing submissions: %w", Storage("database unavailable", cause))

	assert.Equal(t, KindStorageUnavailable, KindOf(err))
	assert.Equal(t, "database unavailable", Message(err))
	assert.ErrorIs(t, err, cause)

	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, "server error", Message(errors.New("boom")))
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "conflict: already submitted", Conflict("already submitted").Error())
	assert.Equal(t, "upstream_unavailable: fetch failed: timeout",
		Upstream("fetch failed", errors.New("timeout")).Error())
}
