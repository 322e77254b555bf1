// Copyright 2026 The Georelay Authors
// SPDX-License-Identifier: Apache-2.0

package revgeo

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/georelay/georelay/geohash"
	"github.com/georelay/georelay/spatial"
)

type fakeGeocoder struct {
	mu        sync.Mutex
	centers   []spatial.Point
	languages []string
	record    *AddressRecord
	err       error

	// onReverse runs inside Reverse, before returning. Tests use it to
	// interleave a concurrent cache write with an in-flight fetch.
	onReverse func()
}

func (g *fakeGeocoder) Reverse(_ context.Context, center spatial.Point, language string) (*AddressRecord, error) {
	g.mu.Lock()
	g.centers = append(g.centers, center)
	g.languages = append(g.languages, language)
	hook := g.onReverse
	g.mu.Unlock()

	if hook != nil {
		hook()
	}

	if g.err != nil {
		return nil, g.err
	}

	record := *g.record

	return &record, nil
}

func (g *fakeGeocoder) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return len(g.centers)
}

func manhattanRecord() *AddressRecord {
	return &AddressRecord{
		Road:        "5th Avenue",
		City:        "New York",
		State:       "New York",
		Postcode:    "10118",
		Country:     "United States",
		CountryCode: "us",
	}
}

func newTestResolver(t *testing.T) (AddressRepository, *fakeGeocoder, *Resolver) {
	db, repo := setupTestDB(t)
	t.Cleanup(func() { db.Close() })

	g := &fakeGeocoder{record: manhattanRecord()}
	r := NewResolver(repo, g, NewLimiter(), 0, time.Second)

	return repo, g, r
}

func TestResolveMissFetchesAndCaches(t *testing.T) {
	repo, g, r := newTestResolver(t)

	result, err := r.Resolve(context.Background(), &ResolveRequest{
		Lat:      40.7484,
		Lon:      -73.9857,
		Language: "en",
	})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if result.Geohash != "dr5ru7re" {
		t.Errorf("Geohash = %q, want %q", result.Geohash, "dr5ru7re")
	}

	if result.CacheHit {
		t.Error("first resolution should not be a cache hit")
	}

	if diff := cmp.Diff(manhattanRecord(), result.Address, cmpopts.IgnoreFields(AddressRecord{}, "Created")); diff != "" {
		t.Errorf("Address mismatch (-want +got):\n%s", diff)
	}

	// The upstream is queried by cell center, never by the raw input.
	center, err := geohash.DecodeToCenter("dr5ru7re")
	if err != nil {
		t.Fatalf("DecodeToCenter() error = %v", err)
	}

	if len(g.centers) != 1 || g.centers[0] != center {
		t.Errorf("upstream queried with %v, want [%v]", g.centers, center)
	}

	cached, err := repo.Find("dr5ru7re", "en")
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}

	if cached == nil {
		t.Fatal("resolution should populate the cache")
	}
}

func TestResolveHitBypassesLimiterAndUpstream(t *testing.T) {
	db, repo := setupTestDB(t)
	defer db.Close()

	if err := repo.Save("dr5ru7re", "en", manhattanRecord()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// A limiter with spent history and a zero budget rejects every permit,
	// and the geocoder fails every call: a hit must touch neither.
	limiter := NewLimiter()
	if !limiter.AwaitPermit(0, time.Second) {
		t.Fatal("priming grant should succeed")
	}

	g := &fakeGeocoder{err: errors.New("upstream must not be called")}
	r := NewResolver(repo, g, limiter, time.Hour, 0)

	result, err := r.Resolve(context.Background(), &ResolveRequest{Geohash: "dr5ru7re", Language: "en"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if !result.CacheHit {
		t.Error("expected a cache hit")
	}

	if result.Address.Road != "5th Avenue" {
		t.Errorf("Road = %q", result.Address.Road)
	}

	if g.callCount() != 0 {
		t.Errorf("upstream called %d times on a cache hit", g.callCount())
	}
}

func TestResolveCoordinateAndGeohashConverge(t *testing.T) {
	_, g, r := newTestResolver(t)

	first, err := r.Resolve(context.Background(), &ResolveRequest{
		Lat:      40.7484,
		Lon:      -73.9857,
		Language: "en",
	})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	second, err := r.Resolve(context.Background(), &ResolveRequest{
		Geohash:  "dr5ru7re",
		Language: "en",
	})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if !second.CacheHit {
		t.Error("geohash lookup for the same cell should hit the cache")
	}

	if g.callCount() != 1 {
		t.Errorf("upstream called %d times, want 1", g.callCount())
	}

	if diff := cmp.Diff(first.Address, second.Address, cmpopts.IgnoreFields(AddressRecord{}, "Created")); diff != "" {
		t.Errorf("converged lookups disagree (-first +second):\n%s", diff)
	}
}

func TestResolveNormalizesInput(t *testing.T) {
	_, g, r := newTestResolver(t)

	if _, err := r.Resolve(context.Background(), &ResolveRequest{Geohash: "DR5RU7RE", Language: "en"}); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	result, err := r.Resolve(context.Background(), &ResolveRequest{Geohash: " dr5ru7re ", Language: "EN-us"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if !result.CacheHit {
		t.Error("case and language variants of one key should share a cache entry")
	}

	if g.callCount() != 1 {
		t.Errorf("upstream called %d times, want 1", g.callCount())
	}
}

func TestResolveRejectsNullIsland(t *testing.T) {
	for _, req := range []*ResolveRequest{
		{Geohash: "s0000000", Language: "en"},
		{Geohash: "s0000000", Language: "de"},
		{Geohash: "S0000000", Language: "ja"},
		// Coordinates inside the all-zero cell encode to it as well.
		{Lat: 0.0001, Lon: 0.0002, Language: "en"},
	} {
		_, g, r := newTestResolver(t)

		_, err := r.Resolve(context.Background(), req)
		if !IsInvalidInput(err) {
			t.Errorf("Resolve(%+v) error = %v, want invalid input", req, err)
		}

		if g.callCount() != 0 {
			t.Errorf("Resolve(%+v) reached upstream", req)
		}
	}
}

func TestResolveInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		req  ResolveRequest
	}{
		{"short geohash", ResolveRequest{Geohash: "dr5ru", Language: "en"}},
		{"long geohash", ResolveRequest{Geohash: "dr5ru7re0", Language: "en"}},
		{"bad characters", ResolveRequest{Geohash: "dr5ru7r!", Language: "en"}},
		{"unsupported language", ResolveRequest{Geohash: "dr5ru7re", Language: "sv"}},
		{"missing language", ResolveRequest{Geohash: "dr5ru7re"}},
		{"no input form", ResolveRequest{Language: "en"}},
		{"out of range", ResolveRequest{Lat: 95, Lon: 10, Language: "en"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, g, r := newTestResolver(t)

			_, err := r.Resolve(context.Background(), &tt.req)
			if !IsInvalidInput(err) {
				t.Errorf("Resolve() error = %v, want invalid input", err)
			}

			if g.callCount() != 0 {
				t.Error("invalid input should not reach upstream")
			}

			if count, err := repo.Count(); err != nil || count != 0 {
				t.Errorf("invalid input should not populate the cache (count %d, err %v)", count, err)
			}
		})
	}
}

func TestResolveRateLimited(t *testing.T) {
	db, repo := setupTestDB(t)
	defer db.Close()

	limiter := NewLimiter()
	if !limiter.AwaitPermit(0, time.Second) {
		t.Fatal("priming grant should succeed")
	}

	g := &fakeGeocoder{record: manhattanRecord()}
	r := NewResolver(repo, g, limiter, time.Hour, 0)

	_, err := r.Resolve(context.Background(), &ResolveRequest{Geohash: "dr5ru7re", Language: "en"})
	if !IsRateLimited(err) {
		t.Fatalf("Resolve() error = %v, want rate limited", err)
	}

	if g.callCount() != 0 {
		t.Error("rejected request should not reach upstream")
	}

	if count, _ := repo.Count(); count != 0 {
		t.Errorf("rejected request should not populate the cache (count %d)", count)
	}
}

func TestResolveUpstreamFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"plain upstream error", errors.New("connection refused")},
		{"classified upstream error", &Error{Type: ErrorTypeUpstreamFailure, Message: "nominatim returned status 500"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, g, r := newTestResolver(t)
			g.err = tt.err

			_, err := r.Resolve(context.Background(), &ResolveRequest{Geohash: "dr5ru7re", Language: "en"})
			if !IsUpstreamFailure(err) {
				t.Fatalf("Resolve() error = %v, want upstream failure", err)
			}

			if count, _ := repo.Count(); count != 0 {
				t.Errorf("failed fetch should not populate the cache (count %d)", count)
			}
		})
	}
}

// A request that loses the insert race still answers with the record it
// fetched itself; the cache keeps the first writer's record.
func TestResolveReturnsOwnFetchOnRaceLoss(t *testing.T) {
	repo, g, r := newTestResolver(t)

	winner := berlinRecord()
	g.onReverse = func() {
		if err := repo.Save("dr5ru7re", "en", winner); err != nil {
			t.Errorf("concurrent Save() error = %v", err)
		}
	}

	result, err := r.Resolve(context.Background(), &ResolveRequest{Geohash: "dr5ru7re", Language: "en"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if result.Address.Road != "5th Avenue" {
		t.Errorf("losing request returned %q, want its own fetch", result.Address.Road)
	}

	cached, err := repo.Find("dr5ru7re", "en")
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}

	if cached.Road != winner.Road {
		t.Errorf("cache holds %q, want the first writer's %q", cached.Road, winner.Road)
	}
}
