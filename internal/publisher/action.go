// Package publisher hands normalized datasets to a CKAN-style catalog.
package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"microharvest/internal/logger"
	"microharvest/pkg/utils"
)

// Action API errors.
var (
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	ErrActionFailed         = errors.New("catalog action failed")
	ErrNoResult             = errors.New("no result in response")
)

// Catalog action names.
const (
	ActionPackageShow   = "package_show"
	ActionPackageCreate = "package_create"
	ActionPackageUpdate = "package_update"
	ActionGroupList     = "group_list"
)

// ErrorTypeNotFound is the error type returned for unknown packages.
const ErrorTypeNotFound = "Not Found Error"

// Client defines the interface for catalog action calls.
type Client interface {
	Call(ctx context.Context, action string, params any) (*ActionResponse, error)
}

// Ensure ActionClient implements Client.
var _ Client = (*ActionClient)(nil)

// ActionResponse is the envelope of every action API response.
type ActionResponse struct {
	Error   *APIError       `json:"error,omitempty"`
	Result  json.RawMessage `json:"result"`
	Success bool            `json:"success"`
}

// APIError is the error object of a failed action. Validation errors carry
// per-field messages next to the type and message.
type APIError struct {
	Fields  map[string]json.RawMessage `json:"-"`
	Type    string                     `json:"__type"`
	Message string                     `json:"message"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *APIError) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to decode action error: %w", err)
	}

	e.Fields = make(map[string]json.RawMessage, len(raw))

	for key, value := range raw {
		switch key {
		case "__type":
			if err := json.Unmarshal(value, &e.Type); err != nil {
				return fmt.Errorf("failed to decode action error type: %w", err)
			}
		case "message":
			if err := json.Unmarshal(value, &e.Message); err != nil {
				return fmt.Errorf("failed to decode action error message: %w", err)
			}
		default:
			e.Fields[key] = value
		}
	}

	return nil
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Type, e.Message)
	}

	fields := make([]string, 0, len(e.Fields))
	for key, value := range e.Fields {
		fields = append(fields, fmt.Sprintf("%s=%s", key, value))
	}

	return fmt.Sprintf("%s: %s", e.Type, strings.Join(fields, ", "))
}

// HasField reports whether the error names a specific field.
func (e *APIError) HasField(name string) bool {
	_, ok := e.Fields[name]

	return ok
}

// ActionClient calls the catalog action API over HTTP.
type ActionClient struct {
	httpClient *http.Client
	headers    http.Header
	endpoint   string
	apiKey     string
	logger     *logger.Logger
}

// NewActionClient creates a new action API client.
func NewActionClient(endpoint, apiKey, userAgent string, timeout time.Duration, log *logger.Logger) *ActionClient {
	if log == nil {
		log = logger.Discard()
	}

	return &ActionClient{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		headers:  utils.BuildHeaders(userAgent, map[string]string{"Content-Type": "application/json"}),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: log,
	}
}

// Call posts params to one action and decodes the envelope.
// A response with success=false is returned together with an error wrapping ErrActionFailed.
func (c *ActionClient) Call(ctx context.Context, action string, params any) (resp *ActionResponse, err error) {
	c.logger.Debug("Calling catalog action", "action", action)

	jsonBody, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/api/3/action/%s", c.endpoint, action)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	utils.ApplyHeaders(req, c.headers)

	if c.apiKey != "" {
		req.Header.Set("Authorization", c.apiKey)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if closeErr := httpResp.Body.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close response body: %w", closeErr)
		}
	}()

	// Limit response size to 10MB
	body, err := io.ReadAll(io.LimitReader(httpResp.Body, 10*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var envelope ActionResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		if httpResp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%w: %d: %s", ErrUnexpectedStatusCode, httpResp.StatusCode, string(body))
		}

		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if !envelope.Success || httpResp.StatusCode != http.StatusOK {
		if envelope.Error == nil {
			return &envelope, fmt.Errorf("%w: %s: status %d", ErrActionFailed, action, httpResp.StatusCode)
		}

		return &envelope, fmt.Errorf("%w: %s: %w", ErrActionFailed, action, envelope.Error)
	}

	return &envelope, nil
}

// DecodeResult unmarshals the result of a successful action into the target type.
func DecodeResult[T any](resp *ActionResponse) (*T, error) {
	if resp == nil || len(resp.Result) == 0 {
		return nil, ErrNoResult
	}

	var target T
	if err := json.Unmarshal(resp.Result, &target); err != nil {
		return nil, fmt.Errorf("failed to parse response result: %w", err)
	}

	return &target, nil
}
