package publisher

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownFrequency is returned for update frequencies the catalog does not know.
var ErrUnknownFrequency = errors.New("unknown update frequency")

// frequencies maps update frequency names to catalog values in days.
var frequencies = map[string]string{
	"live":               "0",
	"every day":          "1",
	"every week":         "7",
	"every two weeks":    "14",
	"every month":        "30",
	"every three months": "90",
	"every six months":   "180",
	"every year":         "365",
	"never":              "-1",
	"as needed":          "-2",
}

// FrequencyValue returns the catalog value of a frequency name.
// Values that already are known catalog numbers pass through.
func FrequencyValue(name string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(name))

	if value, ok := frequencies[key]; ok {
		return value, nil
	}

	if _, err := strconv.Atoi(key); err == nil {
		for _, value := range frequencies {
			if value == key {
				return value, nil
			}
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownFrequency, name)
}
