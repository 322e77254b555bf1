// Copyright 2026 The Georelay Authors
// SPDX-License-Identifier: Apache-2.0

package revgeo

import (
	"testing"
)

func TestNormalizeLanguage(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"plain code", "en", "en", false},
		{"uppercase", "EN", "en", false},
		{"with region", "en-US", "en", false},
		{"portuguese brazil", "pt-BR", "pt", false},
		{"with script", "zh-Hans", "zh", false},
		{"padded", "  de  ", "de", false},
		{"empty", "", "", true},
		{"blank", "   ", "", true},
		{"unknown code", "xx", "", true},
		{"known but unsupported", "sv", "", true},
		{"garbage", "!!!", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeLanguage(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Errorf("NormalizeLanguage(%q) = %q, want error", tt.raw, got)
				}

				return
			}

			if err != nil {
				t.Fatalf("NormalizeLanguage(%q) error = %v", tt.raw, err)
			}

			if got != tt.want {
				t.Errorf("NormalizeLanguage(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     ResolveRequest
		wantErr bool
	}{
		{"coordinates", ResolveRequest{Lat: 40.7484, Lon: -73.9857}, false},
		{"geohash", ResolveRequest{Geohash: "dr5ru7re"}, false},
		{"both forms", ResolveRequest{Lat: 40.7484, Lon: -73.9857, Geohash: "dr5ru7re"}, true},
		{"stray latitude with geohash", ResolveRequest{Lat: 40.7484, Geohash: "dr5ru7re"}, true},
		{"neither form", ResolveRequest{}, true},
		{"latitude only", ResolveRequest{Lat: 40.7484}, true},
		{"longitude only", ResolveRequest{Lon: -73.9857}, true},
		{"latitude too large", ResolveRequest{Lat: 90.1, Lon: 1}, true},
		{"latitude too small", ResolveRequest{Lat: -90.1, Lon: 1}, true},
		{"longitude too large", ResolveRequest{Lat: 1, Lon: 180.1}, true},
		{"longitude too small", ResolveRequest{Lat: 1, Lon: -180.1}, true},
		{"southern hemisphere", ResolveRequest{Lat: -34.9011, Lon: -56.1645}, false},
		{"blank geohash", ResolveRequest{Geohash: "   "}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateRequest(&tt.req)
			if tt.wantErr && err == nil {
				t.Error("validateRequest() = nil, want error")
			}

			if !tt.wantErr && err != nil {
				t.Errorf("validateRequest() error = %v", err)
			}

			if err != nil && !IsInvalidInput(err) {
				t.Errorf("validateRequest() error = %v, want an invalid-input error", err)
			}
		})
	}
}
