package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"  Dune  ", "Dune"},
		{"The   Left Hand\tof Darkness", "The Left Hand of Darkness"},
		{"Café", "Café"},
		{"Null\x00Byte", "NullByte"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Text(tt.input))
		})
	}
}

func TestFold(t *testing.T) {
	assert.Equal(t, "emile zola", Fold("Émile  Zola"))
	assert.Equal(t, "emile zola", Fold("Émile Zola"))
	assert.Equal(t, "dune", Fold("DUNE"))
}

func TestContainsFold(t *testing.T) {
	assert.True(t, ContainsFold("Les Misérables", "miser"))
	assert.True(t, ContainsFold("Frank Herbert", "HERB"))
	assert.True(t, ContainsFold("anything", ""))
	assert.False(t, ContainsFold("Dune", "dunes"))
}
