// Copyright 2026 The Georelay Authors
// SPDX-License-Identifier: Apache-2.0

package revgeo

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uber/h3-go/v4"

	"github.com/georelay/georelay/geohash"
)

// regionResolution is the H3 resolution used for the stats rollup. At
// resolution 5 a cell covers roughly a metropolitan area.
const regionResolution = 5

// AddressRepository handles persistence of resolved addresses. The store is
// append-only: an entry written for a key is never updated or deleted.
type AddressRepository interface {
	// CreateSchema creates the addresses table
	CreateSchema() error

	// Find returns the record cached for the key, or nil when absent
	Find(hash, language string) (*AddressRecord, error)

	// Save inserts a record for the key; an existing entry is left untouched
	Save(hash, language string, record *AddressRecord) error

	// Count returns the total number of cached entries
	Count() (int, error)

	// List returns every cache entry, sorted by key
	List() ([]*CachedAddress, error)

	// StatsByRegion aggregates cached entries by H3 region
	StatsByRegion() ([]*RegionCount, error)
}

type sqlAddressRepository struct {
	db *sql.DB
}

// NewAddressRepository creates a repository backed by the given database.
func NewAddressRepository(db *sql.DB) AddressRepository {
	return &sqlAddressRepository{db: db}
}

func (r *sqlAddressRepository) CreateSchema() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS addresses (
			geohash VARCHAR NOT NULL,
			language VARCHAR NOT NULL,
			road VARCHAR,
			pedestrian VARCHAR,
			footway VARCHAR,
			cycleway VARCHAR,
			residential VARCHAR,
			square VARCHAR,
			place VARCHAR,
			neighbourhood VARCHAR,
			suburb VARCHAR,
			city_district VARCHAR,
			hamlet VARCHAR,
			village VARCHAR,
			town VARCHAR,
			city VARCHAR,
			municipality VARCHAR,
			borough VARCHAR,
			county VARCHAR,
			state VARCHAR,
			province VARCHAR,
			state_district VARCHAR,
			postcode VARCHAR,
			country VARCHAR,
			country_code VARCHAR,
			h3_res5 UBIGINT,
			created TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (geohash, language)
		);
	`)

	return err
}

// addressColumns lists the address columns in schema order, used by every
// SELECT so the scan destinations line up.
const addressColumns = `road, pedestrian, footway, cycleway, residential, square, place,
	neighbourhood, suburb, city_district, hamlet, village, town, city,
	municipality, borough, county, state, province, state_district,
	postcode, country, country_code, created`

func (r *sqlAddressRepository) Find(hash, language string) (*AddressRecord, error) {
	row := r.db.QueryRow(`
		SELECT `+addressColumns+`
		FROM addresses
		WHERE geohash = ? AND language = ?
	`, hash, language)

	var scan addressScan

	err := row.Scan(scan.dest()...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return scan.record(), nil
}

func (r *sqlAddressRepository) Save(hash, language string, record *AddressRecord) error {
	if record == nil {
		return errors.New("record can't be null")
	}

	region, err := regionCell(hash)
	if err != nil {
		return err
	}

	if record.Created.IsZero() {
		record.Created = time.Now()
	}

	// The composite primary key plus ON CONFLICT DO NOTHING makes the
	// insert-if-absent atomic: the first writer wins, later writers are a
	// silent no-op.
	_, err = r.db.Exec(`
		INSERT INTO addresses (
			geohash, language,
			road, pedestrian, footway, cycleway, residential, square, place,
			neighbourhood, suburb, city_district, hamlet, village, town, city,
			municipality, borough, county, state, province, state_district,
			postcode, country, country_code,
			h3_res5, created
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		hash,
		language,
		nullable(record.Road),
		nullable(record.Pedestrian),
		nullable(record.Footway),
		nullable(record.Cycleway),
		nullable(record.Residential),
		nullable(record.Square),
		nullable(record.Place),
		nullable(record.Neighbourhood),
		nullable(record.Suburb),
		nullable(record.CityDistrict),
		nullable(record.Hamlet),
		nullable(record.Village),
		nullable(record.Town),
		nullable(record.City),
		nullable(record.Municipality),
		nullable(record.Borough),
		nullable(record.County),
		nullable(record.State),
		nullable(record.Province),
		nullable(record.StateDistrict),
		nullable(record.Postcode),
		nullable(record.Country),
		nullable(record.CountryCode),
		region,
		record.Created,
	)

	return err
}

func (r *sqlAddressRepository) Count() (int, error) {
	var count int

	err := r.db.QueryRow(`SELECT COUNT(*) FROM addresses`).Scan(&count)

	return count, err
}

func (r *sqlAddressRepository) List() ([]*CachedAddress, error) {
	rows, err := r.db.Query(`
		SELECT geohash, language, ` + addressColumns + `
		FROM addresses
		ORDER BY geohash, language
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*CachedAddress

	for rows.Next() {
		entry := &CachedAddress{}

		var scan addressScan

		dest := append([]any{&entry.Geohash, &entry.Language}, scan.dest()...)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}

		entry.Address = scan.record()
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

func (r *sqlAddressRepository) StatsByRegion() ([]*RegionCount, error) {
	rows, err := r.db.Query(`
		SELECT h3_res5, COUNT(*) AS entries
		FROM addresses
		GROUP BY h3_res5
		ORDER BY entries DESC, h3_res5
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []*RegionCount

	for rows.Next() {
		stat := &RegionCount{}

		var region sql.NullInt64

		if err := rows.Scan(&region, &stat.Count); err != nil {
			return nil, err
		}

		if region.Valid {
			stat.Region = region.Int64
		}

		stats = append(stats, stat)
	}

	return stats, rows.Err()
}

// regionCell derives the H3 stats region for a cache key from the key's
// cell center.
func regionCell(hash string) (int64, error) {
	center, err := geohash.DecodeToCenter(hash)
	if err != nil {
		return 0, err
	}

	cell, err := h3.LatLngToCell(h3.NewLatLng(center.Lat, center.Lon), regionResolution)
	if err != nil {
		return 0, fmt.Errorf("converting to h3 cell at res %d: %w", regionResolution, err)
	}

	return int64(cell), nil
}

// nullable maps an empty string to NULL so absent address fields stay
// distinguishable in the store.
func nullable(s string) any {
	if s == "" {
		return nil
	}

	return s
}

// addressScan collects the nullable address columns of one row.
type addressScan struct {
	road          sql.NullString
	pedestrian    sql.NullString
	footway       sql.NullString
	cycleway      sql.NullString
	residential   sql.NullString
	square        sql.NullString
	place         sql.NullString
	neighbourhood sql.NullString
	suburb        sql.NullString
	cityDistrict  sql.NullString
	hamlet        sql.NullString
	village       sql.NullString
	town          sql.NullString
	city          sql.NullString
	municipality  sql.NullString
	borough       sql.NullString
	county        sql.NullString
	state         sql.NullString
	province      sql.NullString
	stateDistrict sql.NullString
	postcode      sql.NullString
	country       sql.NullString
	countryCode   sql.NullString
	created       time.Time
}

func (s *addressScan) dest() []any {
	return []any{
		&s.road, &s.pedestrian, &s.footway, &s.cycleway, &s.residential,
		&s.square, &s.place, &s.neighbourhood, &s.suburb, &s.cityDistrict,
		&s.hamlet, &s.village, &s.town, &s.city, &s.municipality, &s.borough,
		&s.county, &s.state, &s.province, &s.stateDistrict, &s.postcode,
		&s.country, &s.countryCode, &s.created,
	}
}

func (s *addressScan) record() *AddressRecord {
	return &AddressRecord{
		Road:          s.road.String,
		Pedestrian:    s.pedestrian.String,
		Footway:       s.footway.String,
		Cycleway:      s.cycleway.String,
		Residential:   s.residential.String,
		Square:        s.square.String,
		Place:         s.place.String,
		Neighbourhood: s.neighbourhood.String,
		Suburb:        s.suburb.String,
		CityDistrict:  s.cityDistrict.String,
		Hamlet:        s.hamlet.String,
		Village:       s.village.String,
		Town:          s.town.String,
		City:          s.city.String,
		Municipality:  s.municipality.String,
		Borough:       s.borough.String,
		County:        s.county.String,
		State:         s.state.String,
		Province:      s.province.String,
		StateDistrict: s.stateDistrict.String,
		Postcode:      s.postcode.String,
		Country:       s.country.String,
		CountryCode:   s.countryCode.String,
		Created:       s.created,
	}
}
