package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"basic", "Kambing Etawa Perah Super", "kambing-etawa-perah-super"},
		{"punctuation collapses", "Boer F1 (Unggul!)", "boer-f1-unggul"},
		{"leading and trailing junk", "  --Saanen--  ", "saanen"},
		{"digits kept", "Jawarandu 2 Tahun", "jawarandu-2-tahun"},
		{"empty", "", ""},
		{"only symbols", "!!! ---", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Slugify(tt.input))
		})
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("rahasia123")
	assert.NoError(t, err)
	assert.NotEqual(t, "rahasia123", hash)

	assert.True(t, VerifyPassword(hash, "rahasia123"))
	assert.False(t, VerifyPassword(hash, "salah"))
}
