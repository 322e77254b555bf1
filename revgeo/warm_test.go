// Copyright 2026 The Georelay Authors
// SPDX-License-Identifier: Apache-2.0

package revgeo

import (
	"context"
	"strings"
	"testing"
)

func TestReadCoordinatePairs(t *testing.T) {
	input := `
# capital cities
52.516340, 13.377616
40.7484,-73.9857

  -34.9011 , -56.1645
`

	pairs, err := ReadCoordinatePairs(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCoordinatePairs() error = %v", err)
	}

	if len(pairs) != 3 {
		t.Fatalf("parsed %d pairs, want 3", len(pairs))
	}

	if pairs[0].Lat != 52.516340 || pairs[0].Lon != 13.377616 {
		t.Errorf("pairs[0] = (%f, %f)", pairs[0].Lat, pairs[0].Lon)
	}

	if pairs[2].Lat != -34.9011 || pairs[2].Lon != -56.1645 {
		t.Errorf("pairs[2] = (%f, %f)", pairs[2].Lat, pairs[2].Lon)
	}

	if pairs[1].Line != "40.7484,-73.9857" {
		t.Errorf("pairs[1].Line = %q", pairs[1].Line)
	}
}

func TestReadCoordinatePairsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"missing comma", "52.5 13.4"},
		{"bad latitude", "north,13.4"},
		{"bad longitude", "52.5,east"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadCoordinatePairs(strings.NewReader(tt.input)); err == nil {
				t.Error("ReadCoordinatePairs() should fail")
			}
		})
	}
}

func TestWarmCountsOutcomes(t *testing.T) {
	_, g, r := newTestResolver(t)

	pairs := []CoordinatePair{
		{Line: "berlin", Lat: 52.516340, Lon: 13.377616},
		{Line: "manhattan", Lat: 40.7484, Lon: -73.9857},
		{Line: "berlin again", Lat: 52.516340, Lon: 13.377616},
		{Line: "equator", Lat: 0, Lon: 13.4}, // 0.0 means absent, rejected
	}

	calls := 0
	stats := r.Warm(context.Background(), pairs, "en", func(CoordinatePair, *ResolveResult, error) {
		calls++
	})

	if stats.Fetched != 2 || stats.Hits != 1 || stats.Failed != 1 {
		t.Errorf("stats = %+v, want 2 fetched, 1 hit, 1 failed", stats)
	}

	if calls != len(pairs) {
		t.Errorf("progress ran %d times, want %d", calls, len(pairs))
	}

	if g.callCount() != 2 {
		t.Errorf("upstream called %d times, want 2", g.callCount())
	}
}

func TestWarmStopsOnCanceledContext(t *testing.T) {
	_, g, r := newTestResolver(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stats := r.Warm(ctx, []CoordinatePair{
		{Lat: 52.516340, Lon: 13.377616},
		{Lat: 40.7484, Lon: -73.9857},
	}, "en", nil)

	if stats.Hits+stats.Fetched+stats.Failed != 0 {
		t.Errorf("stats = %+v, want nothing processed", stats)
	}

	if g.callCount() != 0 {
		t.Errorf("upstream called %d times after cancellation", g.callCount())
	}
}
