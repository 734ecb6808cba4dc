package aeroapi

import (
	"encoding/json"
	"strings"
)

// Shape identifies which API generation produced a document
type Shape int

const (
	// ShapeMiss is a successful response that carries no data
	ShapeMiss Shape = iota
	// ShapeCurrent is the flat AeroAPI v4 layout
	ShapeCurrent
	// ShapeLegacy is the FlightXML2 layout with a *Result wrapper
	ShapeLegacy
)

// String returns the string representation of the shape
func (s Shape) String() string {
	switch s {
	case ShapeCurrent:
		return "current"
	case ShapeLegacy:
		return "legacy"
	default:
		return "miss"
	}
}

// FlightDocument decodes a flight lookup in either generation. Which
// layout was received is decided by the keys present, see Shape.
type FlightDocument struct {
	Error   json.RawMessage     `json:"error,omitempty"`
	Flights []Flight            `json:"flights,omitempty"`
	Legacy  *LegacyFlightResult `json:"FlightInfoExResult,omitempty"`
}

// Flight is one entry of a v4 flights array, also used as the on-disk shape
type Flight struct {
	Ident        string   `json:"ident"`
	AircraftType *string  `json:"aircraft_type"`
	Origin       *Airport `json:"origin"`
	Destination  *Airport `json:"destination"`
}

// Airport is an origin or destination in the v4 layout
type Airport struct {
	Code string  `json:"code"`
	Name string  `json:"name"`
	City *string `json:"city"`
}

// LegacyFlightResult is the FlightXML2 FlightInfoEx envelope
type LegacyFlightResult struct {
	NextOffset int            `json:"next_offset,omitempty"`
	Flights    []LegacyFlight `json:"flights"`
}

// LegacyFlight is one FlightXML2 flight. Airports are flattened into
// code/name/city triples.
type LegacyFlight struct {
	Ident           string  `json:"ident"`
	AircraftType    *string `json:"aircrafttype"`
	Origin          string  `json:"origin"`
	OriginName      string  `json:"originName"`
	OriginCity      *string `json:"originCity"`
	Destination     string  `json:"destination"`
	DestinationName string  `json:"destinationName"`
	DestinationCity *string `json:"destinationCity"`
}

// HasError reports whether the document carries an error key
func (d *FlightDocument) HasError() bool {
	return hasError(d.Error)
}

// Shape reports the layout of the document
func (d *FlightDocument) Shape() Shape {
	switch {
	case d.HasError():
		return ShapeMiss
	case d.Legacy != nil && len(d.Legacy.Flights) > 0:
		return ShapeLegacy
	case len(d.Flights) > 0:
		return ShapeCurrent
	default:
		return ShapeMiss
	}
}

// AircraftDocument decodes an aircraft type lookup in either generation
type AircraftDocument struct {
	Error  json.RawMessage `json:"error,omitempty"`
	Legacy *AircraftType   `json:"AircraftTypeResult,omitempty"`
	AircraftType
}

// AircraftType is the body of an aircraft type lookup
type AircraftType struct {
	Manufacturer *string `json:"manufacturer,omitempty"`
	Type         *string `json:"type,omitempty"`
	Description  *string `json:"description,omitempty"`
	EngineCount  *int    `json:"engine_count,omitempty"`
	EngineType   *string `json:"engine_type,omitempty"`
}

// Shape reports the layout of the document
func (d *AircraftDocument) Shape() Shape {
	switch {
	case hasError(d.Error):
		return ShapeMiss
	case d.Legacy != nil:
		return ShapeLegacy
	case d.Manufacturer != nil || d.Type != nil:
		return ShapeCurrent
	default:
		return ShapeMiss
	}
}

// Body returns the aircraft type fields regardless of layout
func (d *AircraftDocument) Body() *AircraftType {
	switch d.Shape() {
	case ShapeLegacy:
		return d.Legacy
	case ShapeCurrent:
		return &d.AircraftType
	default:
		return nil
	}
}

// AirlineDocument decodes an operator lookup in either generation
type AirlineDocument struct {
	Error  json.RawMessage `json:"error,omitempty"`
	Legacy *Operator       `json:"AirlineInfoResult,omitempty"`
	Operator
}

// Operator is the body of an airline lookup
type Operator struct {
	ICAO      *string `json:"icao,omitempty"`
	IATA      *string `json:"iata,omitempty"`
	Name      *string `json:"name,omitempty"`
	ShortName *string `json:"shortname,omitempty"`
	Callsign  *string `json:"callsign,omitempty"`
	Country   *string `json:"country,omitempty"`
	Location  *string `json:"location,omitempty"`
}

// Shape reports the layout of the document
func (d *AirlineDocument) Shape() Shape {
	switch {
	case hasError(d.Error):
		return ShapeMiss
	case d.Legacy != nil:
		return ShapeLegacy
	case d.Name != nil || d.ShortName != nil:
		return ShapeCurrent
	default:
		return ShapeMiss
	}
}

// HasError reports whether the document carries an error key
func (d *AirlineDocument) HasError() bool {
	return hasError(d.Error)
}

// Body returns the operator fields regardless of layout
func (d *AirlineDocument) Body() *Operator {
	switch d.Shape() {
	case ShapeLegacy:
		return d.Legacy
	case ShapeCurrent:
		return &d.Operator
	default:
		return nil
	}
}

func hasError(raw json.RawMessage) bool {
	v := strings.TrimSpace(string(raw))
	return v != "" && v != "null" && v != `""`
}

// missDocument is the error body used for 404 responses without one
var missDocument = json.RawMessage(`"NOT_FOUND"`)
