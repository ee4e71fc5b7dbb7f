package utils

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAgentCode(t *testing.T) {
	pattern := regexp.MustCompile(`^AGT-[A-Z2-7]{8}$`)

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		code, err := GenerateAgentCode()
		require.NoError(t, err)
		assert.Regexp(t, pattern, code)
		assert.False(t, seen[code], "duplicate code %s", code)
		seen[code] = true
	}
}

func TestGenerateOrderReference(t *testing.T) {
	pattern := regexp.MustCompile(`^ORD-[0-9A-F]{8}$`)

	first := GenerateOrderReference()
	second := GenerateOrderReference()

	assert.Regexp(t, pattern, first)
	assert.Regexp(t, pattern, second)
	assert.NotEqual(t, first, second)
}
