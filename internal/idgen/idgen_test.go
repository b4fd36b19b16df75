package idgen

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	id := New()
	_, err := uuid.Parse(id)
	assert.NoError(t, err)
	assert.NotEqual(t, id, New())
}

func TestSequence(t *testing.T) {
	next := Sequence("req")
	assert.Equal(t, "req-1", next())
	assert.Equal(t, "req-2", next())
}
