// Copyright 2026 The Georelay Authors
// SPDX-License-Identifier: Apache-2.0

package revgeo

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// CoordinatePair is one parsed line of a warm-up input.
type CoordinatePair struct {
	Line string
	Lat  float64
	Lon  float64
}

// ReadCoordinatePairs parses "lat,lon" lines from r. Blank lines and lines
// starting with # are skipped.
func ReadCoordinatePairs(r io.Reader) ([]CoordinatePair, error) {
	scanner := bufio.NewScanner(r)

	var pairs []CoordinatePair

	line := 0

	for scanner.Scan() {
		line++

		raw := strings.TrimSpace(scanner.Text())
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}

		latRaw, lonRaw, found := strings.Cut(raw, ",")
		if !found {
			return nil, fmt.Errorf("line %d: expected lat,lon (got: %q)", line, raw)
		}

		lat, err := strconv.ParseFloat(strings.TrimSpace(latRaw), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: parsing latitude: %w", line, err)
		}

		lon, err := strconv.ParseFloat(strings.TrimSpace(lonRaw), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: parsing longitude: %w", line, err)
		}

		pairs = append(pairs, CoordinatePair{Line: raw, Lat: lat, Lon: lon})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}

	return pairs, nil
}

// WarmStats summarizes a warm-up run.
type WarmStats struct {
	Hits    int
	Fetched int
	Failed  int
}

// Warm resolves every pair through the regular pipeline, priming the cache.
// Individual failures are counted rather than fatal, so a long run survives
// unresolvable cells. The progress callback, if set, runs after every pair.
func (r *Resolver) Warm(ctx context.Context, pairs []CoordinatePair, language string, progress func(CoordinatePair, *ResolveResult, error)) WarmStats {
	var stats WarmStats

	for _, pair := range pairs {
		if ctx.Err() != nil {
			break
		}

		result, err := r.Resolve(ctx, &ResolveRequest{Lat: pair.Lat, Lon: pair.Lon, Language: language})

		switch {
		case err != nil:
			stats.Failed++
		case result.CacheHit:
			stats.Hits++
		default:
			stats.Fetched++
		}

		if progress != nil {
			progress(pair, result, err)
		}
	}

	return stats
}
