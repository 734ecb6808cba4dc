// Package metadata turns FlightAware documents of either API generation
// into the canonical records used for phrasing, and builds the documents
// persisted in the on-disk cache.
package metadata

import (
	"strings"

	"adsb_speech/internal/aeroapi"
	"adsb_speech/internal/models"
)

// NormalizeFlight maps a flight document to a RouteInfo. A soft miss, or a
// cached miss marker, yields an Unknown origin and nothing else.
func NormalizeFlight(doc *aeroapi.FlightDocument) *models.RouteInfo {
	if doc == nil {
		return models.UnknownRoute()
	}

	switch doc.Shape() {
	case aeroapi.ShapeLegacy:
		f := doc.Legacy.Flights[0]
		return &models.RouteInfo{
			Origin:       city(f.OriginCity),
			Destination:  city(f.DestinationCity),
			AircraftType: f.AircraftType,
		}

	case aeroapi.ShapeCurrent:
		f := doc.Flights[0]
		if isMissMarker(&f) {
			return models.UnknownRoute()
		}
		route := &models.RouteInfo{AircraftType: f.AircraftType}
		if f.Origin != nil {
			route.Origin = city(f.Origin.City)
		}
		if f.Destination != nil {
			route.Destination = city(f.Destination.City)
		}
		return route

	default:
		return models.UnknownRoute()
	}
}

// NormalizeAircraft returns nil when the document has no manufacturer
func NormalizeAircraft(doc *aeroapi.AircraftDocument) *models.AircraftTypeInfo {
	if doc == nil {
		return nil
	}
	body := doc.Body()
	if body == nil || models.Deref(body.Manufacturer) == "" {
		return nil
	}
	return &models.AircraftTypeInfo{
		Manufacturer: body.Manufacturer,
		Type:         body.Type,
		Description:  body.Description,
	}
}

// NormalizeAirline returns nil when the document has no name
func NormalizeAirline(doc *aeroapi.AirlineDocument) *models.AirlineInfo {
	if doc == nil {
		return nil
	}
	body := doc.Body()
	if body == nil || body.Name == nil {
		return nil
	}
	return &models.AirlineInfo{
		Name:      body.Name,
		ShortName: body.ShortName,
		Country:   body.Country,
		Callsign:  body.Callsign,
	}
}

// city keeps the part before the first comma and replaces slashes with
// spaces, so "Dallas/Fort Worth, TX" is spoken as "Dallas Fort Worth"
func city(s *string) *string {
	if s == nil {
		return nil
	}
	c, _, _ := strings.Cut(*s, ",")
	c = strings.ReplaceAll(c, "/", " ")
	return &c
}

// isMissMarker recognises the document persisted for a soft miss: no
// airport codes or names and an Unknown origin city.
func isMissMarker(f *aeroapi.Flight) bool {
	if f.Origin == nil || models.Deref(f.Origin.City) != models.UnknownCity {
		return false
	}
	if f.Origin.Code != "" || f.Origin.Name != "" {
		return false
	}
	if f.Destination != nil && (f.Destination.Code != "" || f.Destination.Name != "") {
		return false
	}
	return models.Deref(f.AircraftType) == ""
}
