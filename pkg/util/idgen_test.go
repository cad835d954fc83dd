package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewID(t *testing.T) {
	require.NoError(t, InitNode(1))
	a, b := NewID(), NewID()
	assert.NotZero(t, a)
	assert.NotEqual(t, a, b)
}
