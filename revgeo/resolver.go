// Copyright 2026 The Georelay Authors
// SPDX-License-Identifier: Apache-2.0

package revgeo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/georelay/georelay/geohash"
)

// nullIsland is the all-zero cell at the equator/prime-meridian
// intersection. Requests landing there are degenerate input (usually a
// zero-initialized coordinate that slipped through a client) and are
// rejected before any upstream call.
const nullIsland = "s0000000"

// ResolveRequest is one lookup: either a coordinate pair or a geohash,
// plus the answer language. An exact 0.0 latitude or longitude counts as
// absent rather than equatorial.
type ResolveRequest struct {
	Lat      float64
	Lon      float64
	Geohash  string
	Language string
}

// ResolveResult is a resolved lookup: the normalized cache key and the
// address stored under it.
type ResolveResult struct {
	Geohash string         `json:"geohash"`
	Address *AddressRecord `json:"address"`

	CacheHit bool `json:"-"`
}

// Resolver runs the resolution pipeline: normalize the input to a cache
// key, serve from the cache when possible, otherwise fetch the cell center
// upstream through the rate limiter and persist the answer.
type Resolver struct {
	repo        AddressRepository
	geocoder    Geocoder
	limiter     *Limiter
	minInterval time.Duration
	maxWait     time.Duration
}

// NewResolver creates a resolver. minInterval is the spacing enforced
// between upstream calls; maxWait is how long one request may wait for its
// permit before being rejected.
func NewResolver(repo AddressRepository, geocoder Geocoder, limiter *Limiter, minInterval, maxWait time.Duration) *Resolver {
	return &Resolver{
		repo:        repo,
		geocoder:    geocoder,
		limiter:     limiter,
		minInterval: minInterval,
		maxWait:     maxWait,
	}
}

// Resolve answers one lookup request. Cache hits return without consulting
// the rate limiter; misses are fetched by cell center, so every coordinate
// inside a cell converges to a single upstream request.
func (r *Resolver) Resolve(ctx context.Context, req *ResolveRequest) (*ResolveResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	lang, err := NormalizeLanguage(req.Language)
	if err != nil {
		return nil, &Error{Type: ErrorTypeInvalidInput, Message: err.Error()}
	}

	hash, err := normalizeKey(req)
	if err != nil {
		return nil, err
	}

	cached, err := r.repo.Find(hash, lang)
	if err != nil {
		return nil, &Error{Type: ErrorTypeStorageFailure, Message: "reading address cache", Err: err}
	}

	if cached != nil {
		return &ResolveResult{Geohash: hash, Address: cached, CacheHit: true}, nil
	}

	if err := validateGeohash(hash); err != nil {
		return nil, err
	}

	center, err := geohash.DecodeToCenter(hash)
	if err != nil {
		return nil, &Error{Type: ErrorTypeInvalidInput, Message: "invalid geohash", Err: err}
	}

	if !r.limiter.AwaitPermit(r.minInterval, r.maxWait) {
		return nil, &Error{
			Type:    ErrorTypeRateLimited,
			Message: fmt.Sprintf("upstream wait budget of %v exhausted", r.maxWait),
		}
	}

	record, err := r.geocoder.Reverse(ctx, center, lang)
	if err != nil {
		var resErr *Error
		if errors.As(err, &resErr) {
			return nil, err
		}

		return nil, &Error{Type: ErrorTypeUpstreamFailure, Message: "upstream resolution failed", Err: err}
	}

	if err := r.repo.Save(hash, lang, record); err != nil {
		return nil, &Error{Type: ErrorTypeStorageFailure, Message: "saving address", Err: err}
	}

	// On a write race the store keeps the first writer's record, but this
	// request still returns what it fetched.
	return &ResolveResult{Geohash: hash, Address: record}, nil
}

// normalizeKey reduces the request to its cache key: coordinates are
// encoded at the fixed precision, a client geohash is lowercased as-is.
func normalizeKey(req *ResolveRequest) (string, error) {
	if hash := strings.TrimSpace(req.Geohash); hash != "" {
		return strings.ToLower(hash), nil
	}

	hash, err := geohash.Encode(req.Lat, req.Lon, geohash.Precision)
	if err != nil {
		return "", &Error{Type: ErrorTypeInvalidInput, Message: "encoding coordinates", Err: err}
	}

	return hash, nil
}

// validateGeohash applies the key rules the codec does not know about: the
// fixed key length and the null-island rejection.
func validateGeohash(hash string) error {
	if len(hash) != geohash.Precision {
		return &Error{
			Type:    ErrorTypeInvalidInput,
			Message: fmt.Sprintf("geohash must be %d characters (got: %d)", geohash.Precision, len(hash)),
		}
	}

	if hash == nullIsland {
		return &Error{Type: ErrorTypeInvalidInput, Message: "null island is not a resolvable location"}
	}

	return nil
}
