// Copyright 2026 The Georelay Authors
// SPDX-License-Identifier: Apache-2.0

package geohash

import (
	"fmt"
	"math"
	"strings"

	"github.com/georelay/georelay/spatial"
)

// Precision is the geohash length used for cache keys. Eight characters
// yield cells of roughly 38m × 19m, small enough that one cached answer
// serves any coordinate inside the cell.
const Precision = 8

// alphabet is the standard geohash base32 alphabet (not RFC 4648): digits
// plus lowercase letters minus a, i, l and o.
const alphabet = "0123456789bcdefghjkmnpqrstuvwxyz"

const bitsPerSymbol = 5

// Encode converts a coordinate into a geohash of the requested length.
//
// Bits are produced by bisecting the longitude and latitude ranges
// alternately, longitude first: a bit is 1 when the value lies in the upper
// half of the active range. Every five bits, most significant first, become
// one alphabet symbol. Geographic bounds are the caller's responsibility;
// only the precision is checked here.
func Encode(lat, lon float64, precision int) (string, error) {
	if precision <= 0 {
		return "", fmt.Errorf("geohash: precision must be positive, got %d", precision)
	}

	latMin, latMax := -90.0, 90.0
	lonMin, lonMax := -180.0, 180.0

	var sb strings.Builder

	sb.Grow(precision)

	symbol := 0
	bits := 0
	even := true // even bits bisect longitude

	for sb.Len() < precision {
		if even {
			mid := (lonMin + lonMax) / 2
			if lon >= mid {
				symbol = symbol<<1 | 1
				lonMin = mid
			} else {
				symbol <<= 1
				lonMax = mid
			}
		} else {
			mid := (latMin + latMax) / 2
			if lat >= mid {
				symbol = symbol<<1 | 1
				latMin = mid
			} else {
				symbol <<= 1
				latMax = mid
			}
		}

		even = !even

		if bits++; bits == bitsPerSymbol {
			sb.WriteByte(alphabet[symbol])

			symbol, bits = 0, 0
		}
	}

	return sb.String(), nil
}

// DecodeToCenter converts a geohash into the center point of the cell it
// denotes. Input is lowercased first; an empty string or any character
// outside the alphabet is an error.
//
// The center is rounded to five decimal places so that repeated decodes of
// the same geohash are byte-identical when formatted, which keeps upstream
// request URLs for one cell stable.
func DecodeToCenter(geohash string) (spatial.Point, error) {
	geohash = strings.ToLower(geohash)
	if geohash == "" {
		return spatial.Point{}, fmt.Errorf("geohash: empty input")
	}

	latMin, latMax := -90.0, 90.0
	lonMin, lonMax := -180.0, 180.0
	even := true

	for i := 0; i < len(geohash); i++ {
		symbol := strings.IndexByte(alphabet, geohash[i])
		if symbol < 0 {
			return spatial.Point{}, fmt.Errorf("geohash: invalid character %q in %q", geohash[i], geohash)
		}

		for bit := bitsPerSymbol - 1; bit >= 0; bit-- {
			upper := symbol>>bit&1 == 1

			if even {
				mid := (lonMin + lonMax) / 2
				if upper {
					lonMin = mid
				} else {
					lonMax = mid
				}
			} else {
				mid := (latMin + latMax) / 2
				if upper {
					latMin = mid
				} else {
					latMax = mid
				}
			}

			even = !even
		}
	}

	return spatial.Point{
		Lat: round5((latMin + latMax) / 2),
		Lon: round5((lonMin + lonMax) / 2),
	}, nil
}

// round5 rounds to five decimal places, about 1 meter of precision.
func round5(v float64) float64 {
	return math.Round(v*1e5) / 1e5
}
