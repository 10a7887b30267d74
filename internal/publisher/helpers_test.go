package publisher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrequencyValue(t *testing.T) {
	tests := map[string]string{
		"Never":      "-1",
		"every year": "365",
		" As needed": "-2",
		"Live":       "0",
		"30":         "30",
	}

	for name, want := range tests {
		got, err := FrequencyValue(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := FrequencyValue("42")
	assert.ErrorIs(t, err, ErrUnknownFrequency)
}

func TestCleanTags(t *testing.T) {
	mappings := map[string]string{
		"Refugees":         "refugees;asylum seekers",
		"ngo":              "",
		"food security":    "food security",
		"needs assessment": "needs assessment",
	}

	got := CleanTags([]string{"refugees", "NGO", " Food Security ", "food security", "asylum seekers", "housing"}, mappings)

	assert.Equal(t, []string{"refugees", "asylum seekers", "food security", "housing"}, got)
	assert.Empty(t, CleanTags(nil, nil))
}
