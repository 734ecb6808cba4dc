package aeroapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Generation selects the FlightAware API flavour
type Generation string

const (
	// GenerationV4 is AeroAPI v4, authenticated with an x-apikey header
	GenerationV4 Generation = "v4"
	// GenerationV2 is the FlightXML2 JSON API, authenticated with basic auth
	GenerationV2 Generation = "v2"
)

const (
	DefaultV4BaseURL = "https://aeroapi.flightaware.com"
	DefaultV2BaseURL = "https://flightxml.flightaware.com"
	DefaultTimeout   = 1 * time.Second

	maxResponseBytes = 1 << 20
)

var (
	// ErrTransport wraps connection failures and timeouts
	ErrTransport = errors.New("aeroapi transport failure")
	// ErrStatus is returned for unexpected HTTP status codes
	ErrStatus = errors.New("aeroapi unexpected status")
	// ErrMalformed is returned when the response body is not the expected JSON
	ErrMalformed = errors.New("aeroapi malformed response")
)

// Config holds the credentials and endpoint for a Client
type Config struct {
	Generation Generation
	User       string // FlightXML2 only
	Key        string
	BaseURL    string        // defaults per generation
	Timeout    time.Duration // defaults to DefaultTimeout
}

// Configured reports whether enough credentials are present to contact the API
func (c Config) Configured() bool {
	if c.Key == "" {
		return false
	}
	if c.Generation == GenerationV2 {
		return c.User != ""
	}
	return true
}

// Client fetches flight, aircraft type and operator documents from FlightAware
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient creates a new client. A zero generation means v4.
func NewClient(cfg Config) *Client {
	if cfg.Generation == "" {
		cfg.Generation = GenerationV4
	}
	if cfg.BaseURL == "" {
		if cfg.Generation == GenerationV2 {
			cfg.BaseURL = DefaultV2BaseURL
		} else {
			cfg.BaseURL = DefaultV4BaseURL
		}
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Generation returns the API generation the client talks to
func (c *Client) Generation() Generation {
	return c.cfg.Generation
}

// FetchFlight looks up the most recent flight for ident
func (c *Client) FetchFlight(ctx context.Context, ident string) (*FlightDocument, error) {
	slog.Info("Reading flight info from AeroAPI", "ident", ident, "generation", c.cfg.Generation)

	var doc FlightDocument
	var notFound bool
	var err error
	if c.cfg.Generation == GenerationV2 {
		notFound, err = c.get(ctx, "/json/FlightXML2/FlightInfoEx",
			url.Values{"ident": {ident}, "howMany": {"1"}}, &doc)
	} else {
		notFound, err = c.get(ctx, "/aeroapi/flights/"+url.PathEscape(ident), nil, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("flight %s: %w", ident, err)
	}
	if notFound && !doc.HasError() {
		doc.Error = missDocument
	}
	return &doc, nil
}

// FetchAircraftType looks up an ICAO aircraft type designator
func (c *Client) FetchAircraftType(ctx context.Context, code string) (*AircraftDocument, error) {
	slog.Info("Reading aircraft type info from AeroAPI", "type", code, "generation", c.cfg.Generation)

	var doc AircraftDocument
	var notFound bool
	var err error
	if c.cfg.Generation == GenerationV2 {
		notFound, err = c.get(ctx, "/json/FlightXML2/AircraftType", url.Values{"type": {code}}, &doc)
	} else {
		notFound, err = c.get(ctx, "/aeroapi/aircraft/types/"+url.PathEscape(code), nil, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("aircraft type %s: %w", code, err)
	}
	if notFound && !hasError(doc.Error) {
		doc.Error = missDocument
	}
	return &doc, nil
}

// FetchAirline looks up an operator by its ICAO code
func (c *Client) FetchAirline(ctx context.Context, code string) (*AirlineDocument, error) {
	slog.Info("Reading airline info from AeroAPI", "airline", code, "generation", c.cfg.Generation)

	var doc AirlineDocument
	var notFound bool
	var err error
	if c.cfg.Generation == GenerationV2 {
		notFound, err = c.get(ctx, "/json/FlightXML2/AirlineInfo", url.Values{"airlineCode": {code}}, &doc)
	} else {
		notFound, err = c.get(ctx, "/aeroapi/operators/"+url.PathEscape(code), nil, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("airline %s: %w", code, err)
	}
	if notFound && !hasError(doc.Error) {
		doc.Error = missDocument
	}
	return &doc, nil
}

// get issues one authenticated GET and decodes the JSON body into v.
// A 404 is reported through notFound rather than as an error.
func (c *Client) get(ctx context.Context, path string, query url.Values, v any) (notFound bool, err error) {
	u := c.cfg.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.Generation == GenerationV2 {
		req.SetBasicAuth(c.cfg.User, c.cfg.Key)
	} else {
		req.Header.Set("x-apikey", c.cfg.Key)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return false, fmt.Errorf("%w: failed to read body: %v", ErrTransport, err)
	}
	slog.Debug("AeroAPI response", "path", path, "status", resp.StatusCode, "body", string(body))

	if resp.StatusCode == http.StatusNotFound {
		_ = json.Unmarshal(body, v)
		return true, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, fmt.Errorf("%w: %s", ErrStatus, resp.Status)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return false, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return false, nil
}
