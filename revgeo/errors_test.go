// Copyright 2026 The Georelay Authors
// SPDX-License-Identifier: Apache-2.0

package revgeo

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

type errorCheckTestCase struct {
	name string
	err  error
	want bool
}

func runErrorCheckTest(t *testing.T, tests []errorCheckTestCase, checkFunc func(error) bool) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checkFunc(tt.err); got != tt.want {
				t.Errorf("checkFunc() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsInvalidInput(t *testing.T) {
	tests := []errorCheckTestCase{
		{
			name: "invalid input error type",
			err: &Error{
				Type:    ErrorTypeInvalidInput,
				Message: "geohash must be 8 characters",
			},
			want: true,
		},
		{
			name: "wrapped invalid input",
			err: fmt.Errorf("resolving: %w", &Error{
				Type:    ErrorTypeInvalidInput,
				Message: "unsupported language",
			}),
			want: true,
		},
		{
			name: "other error type",
			err: &Error{
				Type:    ErrorTypeRateLimited,
				Message: "wait budget exhausted",
			},
			want: false,
		},
		{
			name: "plain error",
			err:  errors.New("some other error"),
			want: false,
		},
	}

	runErrorCheckTest(t, tests, IsInvalidInput)
}

func TestIsRateLimited(t *testing.T) {
	tests := []errorCheckTestCase{
		{
			name: "rate limited error type",
			err: &Error{
				Type:    ErrorTypeRateLimited,
				Message: "wait budget exhausted",
			},
			want: true,
		},
		{
			name: "upstream 429 is not our rejection",
			err: &Error{
				Type:    ErrorTypeUpstreamFailure,
				Message: "nominatim returned status 429",
			},
			want: false,
		},
		{
			name: "plain error",
			err:  errors.New("too many requests"),
			want: false,
		},
	}

	runErrorCheckTest(t, tests, IsRateLimited)
}

func TestIsUpstreamFailure(t *testing.T) {
	tests := []errorCheckTestCase{
		{
			name: "upstream error type",
			err: &Error{
				Type:    ErrorTypeUpstreamFailure,
				Message: "nominatim returned status 500",
			},
			want: true,
		},
		{
			name: "storage error type",
			err: &Error{
				Type:    ErrorTypeStorageFailure,
				Message: "disk full",
			},
			want: false,
		},
	}

	runErrorCheckTest(t, tests, IsUpstreamFailure)
}

func TestIsStorageFailure(t *testing.T) {
	tests := []errorCheckTestCase{
		{
			name: "storage error type",
			err: &Error{
				Type:    ErrorTypeStorageFailure,
				Message: "disk full",
				Err:     errors.New("IO Error"),
			},
			want: true,
		},
		{
			name: "plain error",
			err:  errors.New("disk full"),
			want: false,
		},
	}

	runErrorCheckTest(t, tests, IsStorageFailure)
}

func TestErrorMessage(t *testing.T) {
	err := &Error{
		Type:    ErrorTypeStorageFailure,
		Message: "saving address",
		Err:     errors.New("disk full"),
	}

	if got := err.Error(); got != "saving address: disk full" {
		t.Errorf("Error() = %q", got)
	}

	bare := &Error{Type: ErrorTypeInvalidInput, Message: "language is required"}
	if got := bare.Error(); got != "language is required" {
		t.Errorf("Error() = %q", got)
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := &Error{Type: ErrorTypeStorageFailure, Message: "saving address", Err: cause}

	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the wrapped cause")
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid input", &Error{Type: ErrorTypeInvalidInput}, http.StatusBadRequest},
		{"rate limited", &Error{Type: ErrorTypeRateLimited}, http.StatusTooManyRequests},
		{"upstream failure", &Error{Type: ErrorTypeUpstreamFailure}, http.StatusBadGateway},
		{"storage failure", &Error{Type: ErrorTypeStorageFailure}, http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("resolving: %w", &Error{Type: ErrorTypeRateLimited}), http.StatusTooManyRequests},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatus(tt.err); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}
