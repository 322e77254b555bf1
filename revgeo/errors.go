// Copyright 2026 The Georelay Authors
// SPDX-License-Identifier: Apache-2.0

package revgeo

import (
	"errors"
	"fmt"
	"net/http"
)

// Error carries a classified resolution failure.
type Error struct {
	Type    ErrorType
	Message string
	Err     error
}

// ErrorType classifies resolution failures.
type ErrorType int

const (
	// ErrorTypeUnknown unclassified failure.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeInvalidInput malformed geohash, coordinates or language.
	ErrorTypeInvalidInput
	// ErrorTypeRateLimited the request exhausted its wait budget at the upstream gate.
	ErrorTypeRateLimited
	// ErrorTypeUpstreamFailure non-success response or transport error from upstream.
	ErrorTypeUpstreamFailure
	// ErrorTypeStorageFailure the cache could not be read or written.
	ErrorTypeStorageFailure
)

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsInvalidInput reports whether the error is a client input error.
func IsInvalidInput(err error) bool {
	return errType(err) == ErrorTypeInvalidInput
}

// IsRateLimited reports whether the error is a wait-budget rejection.
func IsRateLimited(err error) bool {
	return errType(err) == ErrorTypeRateLimited
}

// IsUpstreamFailure reports whether the error came from the upstream service.
func IsUpstreamFailure(err error) bool {
	return errType(err) == ErrorTypeUpstreamFailure
}

// IsStorageFailure reports whether the error came from the cache store.
func IsStorageFailure(err error) bool {
	return errType(err) == ErrorTypeStorageFailure
}

func errType(err error) ErrorType {
	var resErr *Error
	if errors.As(err, &resErr) {
		return resErr.Type
	}

	return ErrorTypeUnknown
}

// HTTPStatus maps a resolution failure to the status code the API returns.
// Unclassified errors are treated as internal.
func HTTPStatus(err error) int {
	switch errType(err) {
	case ErrorTypeInvalidInput:
		return http.StatusBadRequest
	case ErrorTypeRateLimited:
		return http.StatusTooManyRequests
	case ErrorTypeUpstreamFailure:
		return http.StatusBadGateway
	case ErrorTypeStorageFailure:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
