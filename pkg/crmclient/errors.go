package crmclient

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
)

// ErrUnauthorized matches any 401 answer from the backend.
var ErrUnauthorized = errors.New("crm: unauthorized")

// APIError represents a non-2xx backend response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// Is lets errors.Is(err, ErrUnauthorized) see through 401 responses.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

// StatusOf returns the backend status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

func decodeAPIError(resp *http.Response) *APIError {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	msg := errorMessage(data)
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	if msg == "" {
		msg = resp.Status
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}

func errorMessage(data []byte) string {
	var body struct {
		Detail json.RawMessage `json:"detail"`
		Error  string          `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	if len(body.Detail) > 0 {
		var detail string
		if err := json.Unmarshal(body.Detail, &detail); err == nil {
			return strings.TrimSpace(detail)
		}
		// validation errors arrive as a list of {loc, msg, type}
		var issues []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(body.Detail, &issues); err == nil && len(issues) > 0 {
			return strings.TrimSpace(issues[0].Msg)
		}
	}
	return strings.TrimSpace(body.Error)
}
