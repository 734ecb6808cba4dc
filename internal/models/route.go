package models

// UnknownCity is the origin recorded for flights the flight-data API knows
// nothing about. It is not the same as an absent origin.
const UnknownCity = "Unknown"

// RouteInfo is the resolved origin, destination and aircraft type for one
// flight designator. A nil field was never returned by the API.
// RouteInfo values are shared through the memo table and must not be modified.
type RouteInfo struct {
	Origin       *string
	Destination  *string
	AircraftType *string
}

// UnknownRoute is the RouteInfo for a flight the API reported no data for
func UnknownRoute() *RouteInfo {
	return &RouteInfo{Origin: String(UnknownCity)}
}

// OriginCity returns the origin or "" when absent
func (r *RouteInfo) OriginCity() string {
	return Deref(r.Origin)
}

// DestinationCity returns the destination or "" when absent
func (r *RouteInfo) DestinationCity() string {
	return Deref(r.Destination)
}

// TypeCode returns the aircraft type code or "" when absent
func (r *RouteInfo) TypeCode() string {
	return Deref(r.AircraftType)
}

// IsEmpty reports whether no field was resolved
func (r *RouteInfo) IsEmpty() bool {
	return r.Origin == nil && r.Destination == nil && r.AircraftType == nil
}

// AircraftTypeInfo describes an aircraft type code
type AircraftTypeInfo struct {
	Manufacturer *string `json:"manufacturer,omitempty"`
	Type         *string `json:"type,omitempty"`
	Description  *string `json:"description,omitempty"`
}

// AirlineInfo describes an operator keyed by its three letter ICAO code
type AirlineInfo struct {
	Name      *string `json:"name,omitempty"`
	ShortName *string `json:"shortname,omitempty"`
	Country   *string `json:"country,omitempty"`
	Callsign  *string `json:"callsign,omitempty"`
}

// String returns a pointer to s
func String(s string) *string {
	return &s
}

// Deref returns the pointed-to string or ""
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
