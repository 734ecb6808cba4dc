package metadata

import (
	"encoding/json"
	"testing"

	"adsb_speech/internal/aeroapi"
	"adsb_speech/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// reload simulates a write to the cache followed by a read
func reload(t *testing.T, doc *aeroapi.FlightDocument) *aeroapi.FlightDocument {
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	return decodeFlight(t, string(data))
}

func TestFlightCacheDocument_RoundTrip(t *testing.T) {
	bodies := map[string]string{
		"current": baw123,
		"legacy": `{"FlightInfoExResult":{"flights":[{"ident":"AAL100","aircrafttype":"B772","origin":"KJFK",
			"originName":"JFK","originCity":"New York, NY","destination":"KDFW","destinationName":"DFW",
			"destinationCity":"Dallas/Fort Worth, TX"}]}}`,
		"missing destination": `{"flights":[{"ident":"DAL1","origin":{"code":"KATL","name":"Atlanta","city":"Atlanta"}}]}`,
		"error":               `{"error":"NO_DATA"}`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			fetched := decodeFlight(t, body)
			persisted := reload(t, FlightCacheDocument("X1", fetched))

			assert.Equal(t, aeroapi.ShapeCurrent, persisted.Shape())
			assert.Equal(t, "X1", persisted.Flights[0].Ident)
			assert.Equal(t, NormalizeFlight(fetched), NormalizeFlight(persisted))
		})
	}
}

func TestFlightCacheDocument_Shape(t *testing.T) {
	doc := FlightCacheDocument("BAW123", decodeFlight(t, baw123))
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, baw123, string(data))

	miss := FlightCacheDocument("ZZZ9", &aeroapi.FlightDocument{})
	data, err = json.Marshal(miss)
	require.NoError(t, err)
	assert.JSONEq(t, `{"flights":[{"ident":"ZZZ9","aircraft_type":"",
		"origin":{"code":"","name":"","city":"Unknown"},
		"destination":{"code":"","name":"","city":"Unknown"}}]}`, string(data))
}

func TestFlightCacheDocumentFromRoute_RoundTrip(t *testing.T) {
	routes := []*models.RouteInfo{
		{Origin: models.String("London"), Destination: models.String("New York"), AircraftType: models.String("B77W")},
		{Origin: models.String("Atlanta")},
		{Destination: models.String("")},
		models.UnknownRoute(),
		{},
	}

	for _, route := range routes {
		persisted := reload(t, FlightCacheDocumentFromRoute("X1", route))
		assert.Equal(t, route, NormalizeFlight(persisted))
	}
}

func TestAircraftAndAirlineRecords(t *testing.T) {
	var aircraft aeroapi.AircraftDocument
	require.NoError(t, json.Unmarshal([]byte(`{"AircraftTypeResult":{"manufacturer":"Airbus","type":"A320"}}`), &aircraft))

	data, err := json.Marshal(AircraftRecord(&aircraft))
	require.NoError(t, err)
	assert.JSONEq(t, `{"manufacturer":"Airbus","type":"A320"}`, string(data))

	var airlineMiss aeroapi.AirlineDocument
	require.NoError(t, json.Unmarshal([]byte(`{"error":"x"}`), &airlineMiss))
	data, err = json.Marshal(AirlineRecord(&airlineMiss))
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(data))
}
