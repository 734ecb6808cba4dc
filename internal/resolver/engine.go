// Package resolver resolves flight designators, aircraft type codes and
// airline codes to metadata, looking in memory, then in the on-disk cache,
// then at the FlightAware API.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"adsb_speech/internal/aeroapi"
	"adsb_speech/internal/cache"
	"adsb_speech/internal/metadata"
	"adsb_speech/internal/models"
)

// DocumentStore is the on-disk cache the engine reads and writes
type DocumentStore interface {
	ReadJSON(category cache.Category, key string, v any) bool
	WriteJSON(category cache.Category, key string, v any) error
}

// RemoteResolver fetches documents from the flight-data API
type RemoteResolver interface {
	FetchFlight(ctx context.Context, ident string) (*aeroapi.FlightDocument, error)
	FetchAircraftType(ctx context.Context, code string) (*aeroapi.AircraftDocument, error)
	FetchAirline(ctx context.Context, code string) (*aeroapi.AirlineDocument, error)
}

// Stats counts where route lookups were answered from
type Stats struct {
	MemoHits       int64
	CacheHits      int64
	RemoteFetches  int64
	RemoteFailures int64
	MemoSize       int
	Excluded       int
}

// Engine owns the route memo table and the exclusion set. One engine is
// created per process; tests create as many as they need.
type Engine struct {
	store    DocumentStore
	remote   RemoteResolver // nil when no credentials are configured
	memo     *memo
	excluded *ExclusionSet
	now      func() time.Time

	memoHits       atomic.Int64
	cacheHits      atomic.Int64
	remoteFetches  atomic.Int64
	remoteFailures atomic.Int64
}

// New creates an engine. Pass a nil remote to run from the cache only.
func New(store DocumentStore, remote RemoteResolver, memoCfg MemoConfig) *Engine {
	return &Engine{
		store:    store,
		remote:   remote,
		memo:     newMemo(memoCfg),
		excluded: NewExclusionSet(),
		now:      time.Now,
	}
}

// HasRemote reports whether the engine may contact the API
func (e *Engine) HasRemote() bool {
	return e.remote != nil
}

// ResolveRoute returns the route for a flight designator. The first route
// resolved for a designator is returned for every later call. An error is
// returned only when the API could not be reached or answered garbage;
// nothing is memoized in that case.
func (e *Engine) ResolveRoute(ctx context.Context, designator string) (*models.RouteInfo, error) {
	if route, ok := e.memo.get(designator); ok {
		e.memoHits.Add(1)
		return route, nil
	}

	var cached aeroapi.FlightDocument
	if e.store.ReadJSON(cache.Flights, designator, &cached) {
		slog.Debug("Read existing flight info", "ident", designator)
		e.cacheHits.Add(1)
		return e.memo.put(designator, metadata.NormalizeFlight(&cached), e.now()), nil
	}

	if e.remote == nil {
		return e.memo.put(designator, &models.RouteInfo{}, e.now()), nil
	}

	e.remoteFetches.Add(1)
	fetched, err := e.remote.FetchFlight(ctx, designator)
	if err != nil {
		e.remoteFailures.Add(1)
		return nil, fmt.Errorf("failed to resolve route for %s: %w", designator, err)
	}

	route := e.memo.put(designator, metadata.NormalizeFlight(fetched), e.now())
	slog.Info("Resolved flight route",
		"ident", designator,
		"shape", fetched.Shape(),
		"origin", route.OriginCity(),
		"destination", route.DestinationCity(),
		"aircraft_type", route.TypeCode(),
	)

	if err := e.store.WriteJSON(cache.Flights, designator, metadata.FlightCacheDocument(designator, fetched)); err != nil {
		slog.Error("Failed to write flight cache", "ident", designator, "error", err)
	}
	return route, nil
}

// ResolveAircraftType returns "{manufacturer} {type}" for an aircraft type
// code. Without credentials and without a cached document the code itself
// is returned.
func (e *Engine) ResolveAircraftType(ctx context.Context, code string) (string, bool, error) {
	var doc aeroapi.AircraftDocument
	if !e.store.ReadJSON(cache.Aircraft, code, &doc) {
		if e.remote == nil {
			return code, true, nil
		}

		fetched, err := e.remote.FetchAircraftType(ctx, code)
		if err != nil {
			return "", false, fmt.Errorf("failed to resolve aircraft type %s: %w", code, err)
		}
		if err := e.store.WriteJSON(cache.Aircraft, code, metadata.AircraftRecord(fetched)); err != nil {
			slog.Error("Failed to write aircraft type cache", "type", code, "error", err)
		}
		doc = *fetched
	}

	info := metadata.NormalizeAircraft(&doc)
	if info == nil {
		return "", false, nil
	}
	name := strings.TrimSpace(models.Deref(info.Manufacturer) + " " + models.Deref(info.Type))
	return name, true, nil
}

// ResolveAirlineName returns the spoken name of an airline. The short name
// is preferred over the full name; unless short is set the country is
// appended. Without credentials and without a cached document the airline
// is absent.
func (e *Engine) ResolveAirlineName(ctx context.Context, code string, short bool) (string, bool, error) {
	var doc aeroapi.AirlineDocument
	if !e.store.ReadJSON(cache.Airline, code, &doc) {
		if e.remote == nil {
			return "", false, nil
		}

		fetched, err := e.remote.FetchAirline(ctx, code)
		if err != nil {
			return "", false, fmt.Errorf("failed to resolve airline %s: %w", code, err)
		}
		if err := e.store.WriteJSON(cache.Airline, code, metadata.AirlineRecord(fetched)); err != nil {
			slog.Error("Failed to write airline cache", "airline", code, "error", err)
		}
		doc = *fetched
	}

	info := metadata.NormalizeAirline(&doc)
	if info == nil {
		return "", false, nil
	}

	name := models.Deref(info.ShortName)
	if name == "" {
		name = models.Deref(info.Name)
	}
	if name == "" {
		return "", false, nil
	}

	if country := models.Deref(info.Country); country != "" && !short {
		return name + ", " + country, true, nil
	}
	return name, true, nil
}

// Exclude records a suppressed track and reports whether it was new
func (e *Engine) Exclude(icao string) bool {
	return e.excluded.Add(icao)
}

// IsExcluded reports whether icao belongs to a suppressed track
func (e *Engine) IsExcluded(icao string) bool {
	return e.excluded.Contains(icao)
}

// ExcludedCount returns the number of suppressed tracks
func (e *Engine) ExcludedCount() int {
	return e.excluded.Len()
}

// MemoSize returns the number of memoized routes
func (e *Engine) MemoSize() int {
	return e.memo.len()
}

// Exclusions returns the exclusion set
func (e *Engine) Exclusions() *ExclusionSet {
	return e.excluded
}

// PruneMemo drops memoized routes older than the configured TTL
func (e *Engine) PruneMemo() int {
	return e.memo.prune(e.now())
}

// Stats returns lookup counters
func (e *Engine) Stats() Stats {
	return Stats{
		MemoHits:       e.memoHits.Load(),
		CacheHits:      e.cacheHits.Load(),
		RemoteFetches:  e.remoteFetches.Load(),
		RemoteFailures: e.remoteFailures.Load(),
		MemoSize:       e.memo.len(),
		Excluded:       e.excluded.Len(),
	}
}
