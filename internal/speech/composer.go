// Package speech composes the phrase spoken for an aircraft track.
package speech

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"adsb_speech/internal/models"
)

// ErrIncompleteTrack is returned for tracks without a heading or altitude
var ErrIncompleteTrack = errors.New("track record is missing heading or altitude")

// Resolver is the metadata lookup the composer depends on
type Resolver interface {
	ResolveRoute(ctx context.Context, designator string) (*models.RouteInfo, error)
	ResolveAirlineName(ctx context.Context, code string, short bool) (string, bool, error)
	Exclude(icao string) bool
}

// TypeLookup finds an aircraft type code by ICAO address, e.g. from a
// local aircraft registry
type TypeLookup interface {
	TypeCodeByICAO(icao string) (string, bool, error)
}

// Options holds the phrasing settings
type Options struct {
	LocalCity           string // routes touching this city are phrased one way
	SkipGeneralAviation bool   // suppress tracks flying under a tail number
}

// Result is the outcome of composing one track. A suppressed result has no
// text and must not be spoken.
type Result struct {
	Text       string
	Suppressed bool
}

// Composer builds phrases like "British B77W at 3000 heading 4 5 from London"
type Composer struct {
	resolver Resolver
	types    TypeLookup

	mu   sync.RWMutex
	opts Options
}

// NewComposer creates a composer
func NewComposer(resolver Resolver, opts Options) *Composer {
	return &Composer{
		resolver: resolver,
		opts:     opts,
	}
}

// SetTypeLookup installs a fallback used when the route has no aircraft type
func (c *Composer) SetTypeLookup(types TypeLookup) {
	c.types = types
}

// SetLocalCity changes the local city used for route phrasing
func (c *Composer) SetLocalCity(city string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.opts.LocalCity = city
}

// SetSkipGeneralAviation turns general aviation suppression on or off
func (c *Composer) SetSkipGeneralAviation(skip bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.opts.SkipGeneralAviation = skip
}

// Options returns the current phrasing settings
func (c *Composer) Options() Options {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.opts
}

// Compose builds the phrase for track. Metadata lookups that fail degrade
// the phrase instead of failing it; only a track missing its heading or
// altitude is an error.
func (c *Composer) Compose(ctx context.Context, track *models.TrackRecord) (Result, error) {
	if track.Heading == nil || track.Altitude == nil {
		return Result{}, fmt.Errorf("%w: icao %s", ErrIncompleteTrack, track.ICAO)
	}

	opts := c.Options()
	ident := track.Designator()
	tail := models.IsTailNumber(ident)
	heading := SpellHeading(*track.Heading)

	route := &models.RouteInfo{}
	if !tail {
		resolved, err := c.resolver.ResolveRoute(ctx, ident)
		if err != nil {
			slog.Warn("Route lookup failed", "ident", ident, "error", err)
		} else {
			route = resolved
		}
	}

	aircraftType := route.TypeCode()
	if aircraftType == "" && c.types != nil {
		if code, ok, err := c.types.TypeCodeByICAO(track.ICAO); err != nil {
			slog.Warn("Aircraft registry lookup failed", "icao", track.ICAO, "error", err)
		} else if ok {
			aircraftType = code
		}
	}

	speaker := ident
	if !opts.SkipGeneralAviation || !tail {
		if name, ok, err := c.resolver.ResolveAirlineName(ctx, airlineCode(ident), true); err != nil {
			slog.Warn("Airline lookup failed", "ident", ident, "error", err)
		} else if ok {
			speaker = name
		}
	}

	text := fmt.Sprintf("%s %s at %d heading %s", speaker, aircraftType, *track.Altitude, heading)
	if phrase := RoutePhrase(route, opts.LocalCity); phrase != "" {
		text += " " + phrase
	}

	if opts.SkipGeneralAviation && tail {
		slog.Info("Skipping flight", "icao", track.ICAO, "text", text)
		c.resolver.Exclude(track.ICAO)
		return Result{Suppressed: true}, nil
	}

	slog.Info("Flight", "icao", track.ICAO, "text", text)
	return Result{Text: text}, nil
}

// RoutePhrase picks "to X", "from X" or "from X to Y" relative to the
// local city. Empty fields count as absent.
func RoutePhrase(route *models.RouteInfo, localCity string) string {
	origin, dest := route.OriginCity(), route.DestinationCity()

	switch {
	case origin != "" && (origin == localCity || origin == models.UnknownCity) && dest != "":
		return "to " + dest
	case origin != "" && (dest == localCity || dest == ""):
		return "from " + origin
	case origin != "":
		return "from " + origin + " to " + dest
	default:
		return ""
	}
}

// airlineCode is the ICAO operator prefix of a flight designator
func airlineCode(ident string) string {
	if len(ident) > 3 {
		return ident[:3]
	}
	return ident
}
