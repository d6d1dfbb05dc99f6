package ekyc

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// NetworkMessage is shown when the eKYC service could not be reached.
const NetworkMessage = "Network error. Please check your connection and try again."

// APIError is returned for any non-2xx response from the eKYC service.
type APIError struct {
	Op      string
	Status  int
	Body    []byte
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ekyc.%s: status %d: %s", e.Op, e.Status, e.Message)
}

// HTTPStatus returns the upstream status code.
func (e *APIError) HTTPStatus() int { return e.Status }

// UserMessage returns the message extracted from the response.
func (e *APIError) UserMessage() string { return e.Message }

// NetworkError is returned when the request never produced a response.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("ekyc.%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// UserMessage returns the generic connectivity message.
func (e *NetworkError) UserMessage() string { return NetworkMessage }

// IsNetwork reports whether err is a transport-level failure.
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// IsUnauthorized reports whether err is a 401 from the eKYC service.
func IsUnauthorized(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Status == http.StatusUnauthorized
}

type errorEnvelope struct {
	Errors []struct {
		DisplayMessage string `json:"displayMessage"`
		Message        string `json:"message"`
	} `json:"errors"`
	Message      string          `json:"message"`
	Error        json.RawMessage `json:"error"`
	ErrorMessage string          `json:"errorMessage"`
}

func newAPIError(op string, resp *response) *APIError {
	return &APIError{
		Op:      op,
		Status:  resp.status,
		Body:    resp.body,
		Message: extractMessage(resp),
	}
}

// extractMessage picks the most specific human-readable message from an error body.
func extractMessage(resp *response) string {
	fallback := fmt.Sprintf("Request failed with status %d", resp.status)
	if !resp.isJSON {
		if text := strings.TrimSpace(string(resp.body)); text != "" {
			return text
		}
		return fallback
	}

	var env errorEnvelope
	if err := json.Unmarshal(resp.body, &env); err != nil {
		return fallback
	}
	if len(env.Errors) > 0 {
		if env.Errors[0].DisplayMessage != "" {
			return env.Errors[0].DisplayMessage
		}
		if env.Errors[0].Message != "" {
			return env.Errors[0].Message
		}
	}
	if env.Message != "" {
		return env.Message
	}
	if len(env.Error) > 0 {
		var s string
		if err := json.Unmarshal(env.Error, &s); err == nil && s != "" {
			return s
		}
	}
	if env.ErrorMessage != "" {
		return env.ErrorMessage
	}
	return fallback
}

// addressMessages replaces server messages on address lookups with fixed texts.
var addressMessages = map[int]string{
	http.StatusBadRequest:          "Invalid request. Please check your input and try again.",
	http.StatusUnauthorized:        "Authentication required. Please log in again.",
	http.StatusForbidden:           "Access denied. You do not have permission to access this resource.",
	http.StatusNotFound:            "Address data not found. Please try selecting a different option.",
	http.StatusUnprocessableEntity: "Invalid address code provided. Please try again.",
	http.StatusTooManyRequests:     "Too many requests. Please wait a moment and try again.",
	http.StatusInternalServerError: "Server error. Please try again later.",
	http.StatusBadGateway:          "Service temporarily unavailable. Please try again later.",
	http.StatusServiceUnavailable:  "Service temporarily unavailable. Please try again later.",
	http.StatusGatewayTimeout:      "Service temporarily unavailable. Please try again later.",
}

func withAddressMessage(err error) error {
	var ae *APIError
	if errors.As(err, &ae) {
		if msg, ok := addressMessages[ae.Status]; ok {
			ae.Message = msg
		}
	}
	return err
}
