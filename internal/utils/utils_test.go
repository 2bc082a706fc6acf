package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratePassword(t *testing.T) {
	pw, err := GeneratePassword(12)
	require.NoError(t, err)
	require.Len(t, pw, 12)

	assert.True(t, strings.ContainsAny(pw, lowerChars))
	assert.True(t, strings.ContainsAny(pw, upperChars))
	assert.True(t, strings.ContainsAny(pw, digitChars))
	assert.True(t, strings.ContainsAny(pw, symbolChars))
	assert.False(t, strings.ContainsAny(pw, "lO01"))
}

func TestGeneratePassword_TooShort(t *testing.T) {
	_, err := GeneratePassword(3)
	assert.Error(t, err)
}

func TestNewPaginationParams(t *testing.T) {
	p := NewPaginationParams(3, 10, 20)
	assert.Equal(t, PaginationParams{Page: 3, Limit: 10, Offset: 20}, p)

	p = NewPaginationParams(0, 1000, 50)
	assert.Equal(t, PaginationParams{Page: 1, Limit: 50, Offset: 0}, p)
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0, 20))
	assert.Equal(t, 1, TotalPages(20, 20))
	assert.Equal(t, 2, TotalPages(21, 20))
	assert.Equal(t, 0, TotalPages(5, 0))
}
