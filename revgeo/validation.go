// Copyright 2026 The Georelay Authors
// SPDX-License-Identifier: Apache-2.0

package revgeo

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// supportedLanguages is the allow-list of answer languages, keyed by
// canonical ISO 639-1 base code.
var supportedLanguages = map[string]bool{
	"en": true,
	"de": true,
	"fr": true,
	"es": true,
	"it": true,
	"pt": true,
	"nl": true,
	"pl": true,
	"ru": true,
	"uk": true,
	"tr": true,
	"ar": true,
	"zh": true,
	"ja": true,
	"ko": true,
	"hi": true,
}

// NormalizeLanguage reduces a client language code to its canonical ISO
// 639-1 base ("EN", "en-US" and "en" all become "en") and checks it against
// the allow-list. The canonical code is part of the cache key, so spelling
// variants of one language share cache entries.
func NormalizeLanguage(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("language is required")
	}

	tag, err := language.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("unrecognized language %q", raw)
	}

	base, _ := tag.Base()

	code := base.String()
	if !supportedLanguages[code] {
		return "", fmt.Errorf("unsupported language %q", code)
	}

	return code, nil
}

// validateRequest checks that exactly one lookup form was supplied and that
// coordinates are inside their geographic ranges. An exact 0.0 latitude or
// longitude counts as absent, not equatorial.
func validateRequest(req *ResolveRequest) error {
	hasCoord := req.Lat != 0 || req.Lon != 0
	hasHash := strings.TrimSpace(req.Geohash) != ""

	switch {
	case hasCoord && hasHash:
		return &Error{Type: ErrorTypeInvalidInput, Message: "coordinates and geohash are mutually exclusive"}
	case !hasCoord && !hasHash:
		return &Error{Type: ErrorTypeInvalidInput, Message: "either lat and lon or a geohash is required"}
	case hasHash:
		return nil
	}

	if req.Lat == 0 || req.Lon == 0 {
		return &Error{Type: ErrorTypeInvalidInput, Message: "both lat and lon are required"}
	}

	if req.Lat < -90 || req.Lat > 90 {
		return &Error{
			Type:    ErrorTypeInvalidInput,
			Message: fmt.Sprintf("latitude must be between -90 and 90 (got: %f)", req.Lat),
		}
	}

	if req.Lon < -180 || req.Lon > 180 {
		return &Error{
			Type:    ErrorTypeInvalidInput,
			Message: fmt.Sprintf("longitude must be between -180 and 180 (got: %f)", req.Lon),
		}
	}

	return nil
}
