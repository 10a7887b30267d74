package models

import (
	"fmt"
	"strings"
)

// FailureReason categorizes why an entry was skipped.
type FailureReason string

// Failure reasons.
const (
	ReasonMetadataFetch     FailureReason = "metadata_fetch_failed"
	ReasonInvalidMetadata   FailureReason = "invalid_metadata"
	ReasonCountryResolution FailureReason = "country_resolution_failed"
	ReasonNoCountries       FailureReason = "no_countries"
	ReasonInvalidDate       FailureReason = "invalid_date"
	ReasonInvalidCountry    FailureReason = "invalid_country"
	ReasonPublishRejected   FailureReason = "publish_rejected"
)

// FailureReport records one abandoned entry for the end-of-run summary.
type FailureReport struct {
	EntryID     string        `json:"entryId"`
	EntryURL    string        `json:"entryUrl"`
	MetadataURL string        `json:"metadataUrl"`
	Title       string        `json:"title"`
	Reason      FailureReason `json:"reason"`
	Detail      string        `json:"detail,omitempty"`
}

// String renders the report as an operator-facing message.
func (f FailureReport) String() string {
	var prefix string

	switch f.Reason {
	case ReasonInvalidDate:
		prefix = "Invalid date(s)"
	case ReasonCountryResolution, ReasonNoCountries, ReasonInvalidCountry:
		prefix = "Invalid country id"
		if f.Detail != "" {
			prefix += " " + f.Detail
		}
	default:
		prefix = strings.ReplaceAll(string(f.Reason), "_", " ")
		if f.Detail != "" {
			prefix += " (" + f.Detail + ")"
		}

		prefix = strings.ToUpper(prefix[:1]) + prefix[1:]
	}

	return fmt.Sprintf("%s in %s: %s. ( JSON url %s )!", prefix, f.EntryURL, f.Title, f.MetadataURL)
}
