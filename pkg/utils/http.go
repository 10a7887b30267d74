// Package utils provides common utility functions.
package utils

import "net/http"

// BuildHeaders creates HTTP headers for JSON API calls with the given user agent.
// Custom headers are added after the defaults and may repeat a key.
func BuildHeaders(userAgent string, customHeaders map[string]string) http.Header {
	headers := http.Header{}

	// Add default headers
	headers.Set("User-Agent", userAgent)
	headers.Set("Accept", "application/json")

	for key, value := range customHeaders {
		headers.Add(key, value)
	}

	return headers
}

// ApplyHeaders copies headers onto a request.
func ApplyHeaders(req *http.Request, headers http.Header) {
	for key, values := range headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
}
