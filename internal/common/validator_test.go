package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidURL(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"http://localhost:8000", true},
		{"https://jivas.example.com/", true},
		{"localhost:8000", false},
		{"ftp://example.com", false},
		{"", false},
		{"http://", false},
	}

	for _, test := range tests {
		assert.Equal(t, test.expected, IsValidURL(test.input), test.input)
	}
}

func TestValidators(t *testing.T) {
	assert.NoError(t, ValidateHost(" http://localhost:8000 "))
	assert.Error(t, ValidateHost("jivas"))

	assert.NoError(t, ValidateEmail("admin@jivas.com"))
	assert.Error(t, ValidateEmail("admin"))

	required := ValidateRequired("password")
	assert.NoError(t, required("secret"))
	assert.EqualError(t, required("  "), "password is required")
}

func TestContainsInsensitive(t *testing.T) {
	assert.True(t, ContainsInsensitive("Support Agent", "agent"))
	assert.False(t, ContainsInsensitive("Support Agent", "sales"))
}
