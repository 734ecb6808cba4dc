// Package migrate rewrites a FlightXML2-era cache into the AeroAPI v4
// on-disk layout.
package migrate

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"adsb_speech/internal/aeroapi"
	"adsb_speech/internal/cache"
	"adsb_speech/internal/instance"
	"adsb_speech/internal/metadata"
)

// Options selects the cache to migrate
type Options struct {
	FlightsDir  string
	MetadataDir string
	LockPath    string // held for the whole run; empty skips locking
	DryRun      bool   // report what would change without writing
}

// Counts tallies what happened to the files of one category
type Counts struct {
	Converted int
	Removed   int
	Unchanged int
	Skipped   int // unparseable or unexpected content
}

// Result is the per-category outcome of a run
type Result map[cache.Category]*Counts

// Run migrates every category of the cache
func Run(opts Options) (Result, error) {
	if opts.LockPath != "" {
		lock, err := instance.Acquire(opts.LockPath)
		if err != nil {
			return nil, err
		}
		defer lock.Release()
	}

	store := cache.New(opts.FlightsDir, opts.MetadataDir)
	m := &migrator{store: store, dryRun: opts.DryRun}
	result := make(Result)

	for _, category := range cache.Categories {
		counts, err := m.category(category)
		if err != nil {
			return result, err
		}
		result[category] = counts
		slog.Info("Migrated cache category",
			"category", category,
			"converted", counts.Converted,
			"removed", counts.Removed,
			"unchanged", counts.Unchanged,
			"skipped", counts.Skipped,
			"dry_run", opts.DryRun,
		)
	}
	return result, nil
}

type action int

const (
	keep action = iota
	rewrite
	remove
	skip
)

type migrator struct {
	store  *cache.Store
	dryRun bool
}

func (m *migrator) category(category cache.Category) (*Counts, error) {
	entries, err := m.store.List(category)
	if err != nil {
		return nil, err
	}

	counts := &Counts{}
	for _, e := range entries {
		raw, ok := m.store.Read(category, e.Key)
		if !ok {
			counts.Skipped++
			continue
		}

		act, doc := plan(category, e.Key, raw)
		switch act {
		case keep:
			counts.Unchanged++
		case skip:
			slog.Debug("Skipping cache file", "category", category, "key", e.Key)
			counts.Skipped++
		case rewrite:
			if !m.dryRun {
				if err := m.store.WriteJSON(category, e.Key, doc); err != nil {
					return counts, fmt.Errorf("failed to rewrite %s/%s: %w", category, e.Key, err)
				}
			}
			counts.Converted++
		case remove:
			if !m.dryRun {
				if err := m.store.Remove(category, e.Key); err != nil {
					return counts, err
				}
			}
			counts.Removed++
		}
	}
	return counts, nil
}

// plan decides what to do with one cached document
func plan(category cache.Category, key string, raw []byte) (action, any) {
	switch category {
	case cache.Flights:
		var doc aeroapi.FlightDocument
		if err := json.Unmarshal(raw, &doc); err != nil {
			return skip, nil
		}
		switch {
		case doc.Shape() == aeroapi.ShapeLegacy:
			return rewrite, metadata.FlightCacheDocument(key, &doc)
		case doc.HasError():
			return rewrite, metadata.FlightCacheDocument(key, &doc)
		case doc.Shape() == aeroapi.ShapeCurrent:
			return keep, nil
		}
		return skip, nil

	case cache.Aircraft:
		var doc aeroapi.AircraftDocument
		if err := json.Unmarshal(raw, &doc); err != nil {
			return skip, nil
		}
		if doc.Shape() == aeroapi.ShapeLegacy {
			return rewrite, metadata.AircraftRecord(&doc)
		}
		return keep, nil

	case cache.Airline:
		var doc aeroapi.AirlineDocument
		if err := json.Unmarshal(raw, &doc); err != nil {
			return skip, nil
		}
		switch doc.Shape() {
		case aeroapi.ShapeLegacy:
			return rewrite, metadata.AirlineRecord(&doc)
		case aeroapi.ShapeCurrent:
			return keep, nil
		}
		if doc.HasError() {
			return remove, nil
		}
		return keep, nil
	}
	return skip, nil
}
