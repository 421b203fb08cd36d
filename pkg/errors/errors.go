// Package errors carries the typed error codes services return and the HTTP
// contract each code maps to.
package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation       Code = "VALIDATION_ERROR"
	CodeBusinessRule     Code = "BUSINESS_RULE_VIOLATION"
	CodeUnauthorized     Code = "UNAUTHORIZED"
	CodeSignatureInvalid Code = "SIGNATURE_INVALID"
	CodeForbidden        Code = "FORBIDDEN"
	CodeNotFound         Code = "NOT_FOUND"
	CodeConflict         Code = "CONFLICT"
	CodeStateConflict    Code = "STATE_CONFLICT"
	CodeIdempotency      Code = "IDEMPOTENCY_KEY_REUSED"
	CodeGone             Code = "GONE"
	CodeRateLimit        Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal         Code = "INTERNAL_ERROR"
	CodeGateway          Code = "GATEWAY_ERROR"
	CodeDependency       Code = "DEPENDENCY_ERROR"
)

// Metadata is what a client learns about a code. PublicMessage replaces the
// error's own message unless ExposeMessage is set.
type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	ExposeMessage  bool
	DetailsAllowed bool
}

type flag uint8

const (
	retryable flag = 1 << iota
	exposeMessage
	detailsAllowed
)

func meta(status int, public string, flags flag) Metadata {
	return Metadata{
		HTTPStatus:     status,
		PublicMessage:  public,
		Retryable:      flags&retryable != 0,
		ExposeMessage:  flags&exposeMessage != 0,
		DetailsAllowed: flags&detailsAllowed != 0,
	}
}

var metadataByCode = map[Code]Metadata{
	CodeValidation:       meta(http.StatusBadRequest, "validation failed", exposeMessage|detailsAllowed),
	CodeBusinessRule:     meta(http.StatusBadRequest, "request violates a business rule", exposeMessage|detailsAllowed),
	CodeUnauthorized:     meta(http.StatusUnauthorized, "authentication required", exposeMessage),
	CodeSignatureInvalid: meta(http.StatusUnauthorized, "signature verification failed", 0),
	CodeForbidden:        meta(http.StatusForbidden, "access denied", exposeMessage),
	CodeNotFound:         meta(http.StatusNotFound, "resource not found", exposeMessage),
	CodeConflict:         meta(http.StatusConflict, "conflict detected", exposeMessage),
	CodeStateConflict:    meta(http.StatusUnprocessableEntity, "state transition disallowed", exposeMessage|detailsAllowed),
	CodeIdempotency:      meta(http.StatusConflict, "idempotency key reused", exposeMessage|detailsAllowed),
	CodeGone:             meta(http.StatusGone, "resource no longer available", exposeMessage),
	CodeRateLimit:        meta(http.StatusTooManyRequests, "rate limit exceeded", exposeMessage),
	CodeInternal:         meta(http.StatusInternalServerError, "internal server error", retryable),
	CodeGateway:          meta(http.StatusBadGateway, "payment provider error", retryable),
	CodeDependency:       meta(http.StatusServiceUnavailable, "dependency unavailable", retryable|detailsAllowed),
}

// MetadataFor treats unknown codes as internal errors.
func MetadataFor(code Code) Metadata {
	if m, ok := metadataByCode[code]; ok {
		return m
	}
	return metadataByCode[CodeInternal]
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap keeps err reachable through errors.Is and errors.As.
func Wrap(code Code, err error, message string) *Error {
	return &Error{code: code, message: message, cause: err}
}

// Code, Message and Details are nil-safe so handlers can call them on the
// result of As without a check.
func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

// WithDetails sets the client-visible details and returns e for chaining.
func (e *Error) WithDetails(details any) *Error {
	if e != nil {
		e.details = details
	}
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return string(e.code) + ": " + e.message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As returns the outermost *Error in err's chain.
func As(err error) *Error {
	var typed *Error
	if err != nil && stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

func IsCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.code == code
}

// Retryable reports whether the caller may repeat the operation unchanged.
// Untyped errors count as internal and are retryable.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	return MetadataFor(As(err).Code()).Retryable
}
