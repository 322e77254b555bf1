// Copyright 2026 The Georelay Authors
// SPDX-License-Identifier: Apache-2.0

package revgeo

import (
	"context"

	"github.com/georelay/georelay/spatial"
)

// Geocoder resolves a cell-center coordinate into a structured address.
type Geocoder interface {
	Reverse(ctx context.Context, center spatial.Point, language string) (*AddressRecord, error)
}
