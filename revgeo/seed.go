// Copyright 2026 The Georelay Authors
// SPDX-License-Identifier: Apache-2.0

package revgeo

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// SnapshotData represents the JSON cache snapshot format.
type SnapshotData struct {
	Version     string           `json:"version"`
	LastUpdated time.Time        `json:"last_updated"`
	Entries     []*CachedAddress `json:"entries"`
}

// ExportToJSON exports all cache entries to a JSON file and returns how
// many were written.
func ExportToJSON(repo AddressRepository, filepath string) (int, error) {
	entries, err := repo.List()
	if err != nil {
		return 0, fmt.Errorf("listing cache entries: %w", err)
	}

	snapshot := &SnapshotData{
		Version:     "1.0",
		LastUpdated: time.Now(),
		Entries:     entries,
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("marshaling JSON: %w", err)
	}

	err = os.WriteFile(filepath, data, 0o600)
	if err != nil {
		return 0, fmt.Errorf("writing file: %w", err)
	}

	return len(entries), nil
}

// ImportFromJSON imports cache entries from a JSON file. Keys that already
// have an entry keep it, so importing a snapshot is always safe.
func ImportFromJSON(repo AddressRepository, filepath string) (int, error) {
	data, err := os.ReadFile(filepath) // #nosec G304 - filepath is provided by admin
	if err != nil {
		return 0, fmt.Errorf("reading file: %w", err)
	}

	var snapshot SnapshotData
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return 0, fmt.Errorf("parsing JSON: %w", err)
	}

	imported := 0

	for _, entry := range snapshot.Entries {
		if entry.Address == nil {
			return imported, fmt.Errorf("entry %s/%s has no address", entry.Geohash, entry.Language)
		}

		if err := repo.Save(entry.Geohash, entry.Language, entry.Address); err != nil {
			return imported, fmt.Errorf("saving entry for %s/%s: %w", entry.Geohash, entry.Language, err)
		}

		imported++
	}

	return imported, nil
}

// SeedIfEmpty seeds the cache from a JSON file if no entries exist.
func SeedIfEmpty(repo AddressRepository, filepath string) (bool, int, error) {
	count, err := repo.Count()
	if err != nil {
		return false, 0, fmt.Errorf("counting cache entries: %w", err)
	}

	if count > 0 {
		return false, count, nil
	}
	// Cache is empty, try to seed
	if _, err := os.Stat(filepath); os.IsNotExist(err) {
		// No seed file exists, that's okay
		return false, 0, nil
	}

	imported, err := ImportFromJSON(repo, filepath)
	if err != nil {
		return false, 0, err
	}

	return true, imported, nil
}
