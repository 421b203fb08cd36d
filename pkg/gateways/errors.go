package gateways

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	CodeNetwork         = "network_error"
	CodeBadResponse     = "bad_response"
	CodeInvalidRequest  = "invalid_request"
	CodeProviderUnknown = "provider_error"
)

// GatewayError is a provider failure with its raw payload kept for audit.
type GatewayError struct {
	Gateway    string
	Code       string
	Message    string
	StatusCode int
	Raw        json.RawMessage
	cause      error
}

func (e *GatewayError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: %s (%d): %s", e.Gateway, e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Gateway, e.Code, e.Message)
}

func (e *GatewayError) Unwrap() error {
	return e.cause
}

// NewError builds a GatewayError without an underlying cause.
func NewError(gateway, code, message string) *GatewayError {
	return &GatewayError{Gateway: gateway, Code: code, Message: message}
}

// AsGatewayError extracts a *GatewayError from err.
func AsGatewayError(err error) (*GatewayError, bool) {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr, true
	}
	return nil, false
}
