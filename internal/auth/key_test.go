// ABOUTME: Tests for API key generation, hashing, and format validation.

package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateKey(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(key, KeyPrefix))
	assert.True(t, ValidFormat(key), "generated keys must pass the format check")

	other, err := GenerateKey()
	require.NoError(t, err)
	assert.NotEqual(t, key, other, "keys must be random")
}

func TestHashKey(t *testing.T) {
	h1 := HashKey("qbk_aaaaaaaaaaaaaaaaaaaa")
	h2 := HashKey("qbk_aaaaaaaaaaaaaaaaaaaa")
	h3 := HashKey("qbk_bbbbbbbbbbbbbbbbbbbb")

	assert.Equal(t, h1, h2, "hashing is deterministic")
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 64, "hex SHA-256 digest")
}

func TestValidFormat(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want bool
	}{
		{"valid key", "qbk_" + strings.Repeat("a", 20), true},
		{"longer than minimum", "qbk_" + strings.Repeat("a", 40), true},
		{"empty", "", false},
		{"wrong prefix", "sk_" + strings.Repeat("a", 20), false},
		{"prefix only", "qbk_", false},
		{"body too short", "qbk_" + strings.Repeat("a", 19), false},
		{"prefix missing entirely", strings.Repeat("a", 24), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidFormat(tt.key))
		})
	}
}

func TestParseScopes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []Scope
	}{
		{"read only", "read", []Scope{ScopeRead}},
		{"read write", "read write", []Scope{ScopeRead, ScopeWrite}},
		{"unknown tokens ignored", "read admin superuser", []Scope{ScopeRead}},
		{"empty", "", nil},
		{"only unknown", "admin", nil},
		{"extra whitespace", "  read   write  ", []Scope{ScopeRead, ScopeWrite}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseScopes(tt.raw))
		})
	}
}
