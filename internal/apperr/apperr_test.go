package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindsMatchThroughWrapping(t *testing.T) {
	err := fmt.Errorf("create lpo: %w", Conflict("requisition %d already has an LPO", 42))

	assert.True(t, errors.Is(err, ErrConflict))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "requisition 42 already has an LPO", Message(err))
}

func TestInvalidTransitionIsConflict(t *testing.T) {
	err := InvalidTransition("requisition", 7, "approved", "rejected")

	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, "requisition 7 is approved and cannot become rejected", err.Error())
}

func TestMessageOfPlainError(t *testing.T) {
	assert.Empty(t, Message(errors.New("boom")))
}
