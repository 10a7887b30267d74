// Package models defines data structures shared by the lister, normalizer and publisher.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// EntryDescriptor identifies one upstream catalog entry selected for harvesting.
type EntryDescriptor struct {
	ChangedAt time.Time `json:"changedAt"`
	ID        string    `json:"id"`
	IDNo      string    `json:"idno"`
	Title     string    `json:"title"`
	SourceURL string    `json:"sourceUrl"`
}

// CatalogListing is the response of the upstream "latest" listing endpoint.
type CatalogListing struct {
	Result []CatalogItem `json:"result"`
	Found  int           `json:"found"`
	Limit  int           `json:"limit"`
}

// CatalogItem is one row of the upstream listing.
type CatalogItem struct {
	ID      FlexString `json:"id"`
	IDNo    string     `json:"idno"`
	Title   string     `json:"title"`
	Nation  string     `json:"nation"`
	Created string     `json:"created"`
	Changed string     `json:"changed"`
	URL     string     `json:"url"`
}

// FlexString accepts either a JSON string or a JSON number.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""

		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("failed to decode string id: %w", err)
		}

		*f = FlexString(s)

		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}

	*f = FlexString(n.String())

	return nil
}

// String returns the underlying value.
func (f FlexString) String() string {
	return string(f)
}
