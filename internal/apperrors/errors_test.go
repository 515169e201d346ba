package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKinds(t *testing.T) {
	err := Conflict("user %s is already a member", "u1")

	assert.True(t, errors.Is(err, ErrConflict))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "user u1 is already a member", err.Error())

	wrapped := fmt.Errorf("add member: %w", err)
	assert.True(t, errors.Is(wrapped, ErrConflict))

	msg, ok := Message(wrapped)
	assert.True(t, ok)
	assert.Equal(t, "user u1 is already a member", msg)

	_, ok = Message(errors.New("boom"))
	assert.False(t, ok)
}
