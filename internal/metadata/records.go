package metadata

import (
	"adsb_speech/internal/aeroapi"
	"adsb_speech/internal/models"
)

// FlightCacheDocument builds the v4-shaped document persisted for ident.
// Legacy documents are converted; misses become the Unknown marker.
// Fields the API did not return are written as null so they read back absent.
func FlightCacheDocument(ident string, doc *aeroapi.FlightDocument) *aeroapi.FlightDocument {
	var flight aeroapi.Flight

	switch doc.Shape() {
	case aeroapi.ShapeCurrent:
		f := doc.Flights[0]
		flight = aeroapi.Flight{
			Ident:        ident,
			AircraftType: f.AircraftType,
			Origin:       airport(f.Origin),
			Destination:  airport(f.Destination),
		}

	case aeroapi.ShapeLegacy:
		f := doc.Legacy.Flights[0]
		flight = aeroapi.Flight{
			Ident:        ident,
			AircraftType: f.AircraftType,
			Origin:       &aeroapi.Airport{Code: f.Origin, Name: f.OriginName, City: f.OriginCity},
			Destination:  &aeroapi.Airport{Code: f.Destination, Name: f.DestinationName, City: f.DestinationCity},
		}

	default:
		flight = aeroapi.Flight{
			Ident:        ident,
			AircraftType: models.String(""),
			Origin:       &aeroapi.Airport{City: models.String(models.UnknownCity)},
			Destination:  &aeroapi.Airport{City: models.String(models.UnknownCity)},
		}
	}

	return &aeroapi.FlightDocument{Flights: []aeroapi.Flight{flight}}
}

// FlightCacheDocumentFromRoute rebuilds a cache document from a resolved
// route. Airport codes and names are not part of RouteInfo and come back empty.
func FlightCacheDocumentFromRoute(ident string, route *models.RouteInfo) *aeroapi.FlightDocument {
	if route.OriginCity() == models.UnknownCity && route.Destination == nil && route.AircraftType == nil {
		return FlightCacheDocument(ident, &aeroapi.FlightDocument{})
	}

	flight := aeroapi.Flight{Ident: ident, AircraftType: route.AircraftType}
	if route.Origin != nil {
		flight.Origin = &aeroapi.Airport{City: route.Origin}
	}
	if route.Destination != nil {
		flight.Destination = &aeroapi.Airport{City: route.Destination}
	}
	return &aeroapi.FlightDocument{Flights: []aeroapi.Flight{flight}}
}

// AircraftRecord is the flattened aircraft type document persisted on disk.
// A miss is persisted as an empty object so it is not fetched again.
func AircraftRecord(doc *aeroapi.AircraftDocument) *aeroapi.AircraftType {
	if body := doc.Body(); body != nil {
		return body
	}
	return &aeroapi.AircraftType{}
}

// AirlineRecord is the flattened operator document persisted on disk
func AirlineRecord(doc *aeroapi.AirlineDocument) *aeroapi.Operator {
	if body := doc.Body(); body != nil {
		return body
	}
	return &aeroapi.Operator{}
}

func airport(a *aeroapi.Airport) *aeroapi.Airport {
	if a == nil {
		return nil
	}
	return &aeroapi.Airport{Code: a.Code, Name: a.Name, City: a.City}
}
