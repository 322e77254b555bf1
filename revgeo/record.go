// Copyright 2026 The Georelay Authors
// SPDX-License-Identifier: Apache-2.0

package revgeo

import (
	"time"
)

// AddressRecord is a resolved address as reported by the upstream service.
// Upstream responses are sparse: every locality field is optional and an
// empty string means the upstream did not report that level. Records are
// written once and never mutated.
type AddressRecord struct {
	Road          string `json:"road,omitempty"`
	Pedestrian    string `json:"pedestrian,omitempty"`
	Footway       string `json:"footway,omitempty"`
	Cycleway      string `json:"cycleway,omitempty"`
	Residential   string `json:"residential,omitempty"`
	Square        string `json:"square,omitempty"`
	Place         string `json:"place,omitempty"`
	Neighbourhood string `json:"neighbourhood,omitempty"`
	Suburb        string `json:"suburb,omitempty"`
	CityDistrict  string `json:"city_district,omitempty"`
	Hamlet        string `json:"hamlet,omitempty"`
	Village       string `json:"village,omitempty"`
	Town          string `json:"town,omitempty"`
	City          string `json:"city,omitempty"`
	Municipality  string `json:"municipality,omitempty"`
	Borough       string `json:"borough,omitempty"`
	County        string `json:"county,omitempty"`
	State         string `json:"state,omitempty"`
	Province      string `json:"province,omitempty"`
	StateDistrict string `json:"state_district,omitempty"`
	Postcode      string `json:"postcode,omitempty"`
	Country       string `json:"country,omitempty"`
	CountryCode   string `json:"country_code,omitempty"`

	Created time.Time `json:"created"`
}

// CachedAddress is one cache entry: the composite key plus the record
// stored for it.
type CachedAddress struct {
	Geohash  string         `json:"geohash"`
	Language string         `json:"language"`
	Address  *AddressRecord `json:"address"`
}

// RegionCount is the number of cached entries inside one H3 region.
type RegionCount struct {
	Region int64 `json:"region"`
	Count  int   `json:"count"`
}
