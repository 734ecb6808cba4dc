package aeroapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestConfig_Configured(t *testing.T) {
	assert.False(t, Config{}.Configured())
	assert.True(t, Config{Key: "k"}.Configured())
	assert.True(t, Config{Generation: GenerationV4, Key: "k"}.Configured())
	assert.False(t, Config{Generation: GenerationV2, Key: "k"}.Configured())
	assert.True(t, Config{Generation: GenerationV2, User: "u", Key: "k"}.Configured())
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(Config{Key: "k"})
	assert.Equal(t, GenerationV4, c.Generation())
	assert.Equal(t, DefaultV4BaseURL, c.cfg.BaseURL)
	assert.Equal(t, DefaultTimeout, c.httpClient.Timeout)

	c = NewClient(Config{Generation: GenerationV2, User: "u", Key: "k", BaseURL: "http://example/"})
	assert.Equal(t, "http://example", c.cfg.BaseURL)
}

func TestFetchFlight_V4(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/aeroapi/flights/BAW123", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-apikey"))
		w.Write([]byte(`{"flights":[{"ident":"BAW123","aircraft_type":"B77W",
			"origin":{"code":"EGLL","name":"London Heathrow","city":"London"},
			"destination":{"code":"KJFK","name":"John F Kennedy Intl","city":"New York"}}]}`))
	})

	c := NewClient(Config{Key: "secret", BaseURL: srv.URL})
	doc, err := c.FetchFlight(context.Background(), "BAW123")
	require.NoError(t, err)

	assert.Equal(t, ShapeCurrent, doc.Shape())
	require.Len(t, doc.Flights, 1)
	assert.Equal(t, "B77W", *doc.Flights[0].AircraftType)
	assert.Equal(t, "London", *doc.Flights[0].Origin.City)
}

func TestFetchFlight_V2(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/json/FlightXML2/FlightInfoEx", r.URL.Path)
		assert.Equal(t, "UAL1", r.URL.Query().Get("ident"))
		assert.Equal(t, "1", r.URL.Query().Get("howMany"))
		user, key, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "user", user)
		assert.Equal(t, "secret", key)
		w.Write([]byte(`{"FlightInfoExResult":{"next_offset":1,"flights":[{"ident":"UAL1",
			"aircrafttype":"B772","origin":"KSFO","originName":"San Francisco Intl",
			"originCity":"San Francisco, CA","destination":"PHNL","destinationName":"Honolulu Intl",
			"destinationCity":"Honolulu, HI"}]}}`))
	})

	c := NewClient(Config{Generation: GenerationV2, User: "user", Key: "secret", BaseURL: srv.URL})
	doc, err := c.FetchFlight(context.Background(), "UAL1")
	require.NoError(t, err)

	assert.Equal(t, ShapeLegacy, doc.Shape())
	assert.Equal(t, "San Francisco, CA", *doc.Legacy.Flights[0].OriginCity)
}

func TestFetchFlight_ErrorDocument(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"NO_DATA unknown flight"}`))
	})

	c := NewClient(Config{Key: "k", BaseURL: srv.URL})
	doc, err := c.FetchFlight(context.Background(), "ZZZ999")
	require.NoError(t, err)
	assert.True(t, doc.HasError())
	assert.Equal(t, ShapeMiss, doc.Shape())
}

func TestFetchFlight_NotFound(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"title":"Not Found","status":404}`))
	})

	c := NewClient(Config{Key: "k", BaseURL: srv.URL})
	doc, err := c.FetchFlight(context.Background(), "ZZZ999")
	require.NoError(t, err)
	assert.True(t, doc.HasError())
}

func TestFetch_Failures(t *testing.T) {
	t.Run("unexpected status", func(t *testing.T) {
		srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"title":"Unauthorized"}`))
		})
		_, err := NewClient(Config{Key: "k", BaseURL: srv.URL}).FetchFlight(context.Background(), "BAW1")
		assert.ErrorIs(t, err, ErrStatus)
	})

	t.Run("malformed body", func(t *testing.T) {
		srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>`))
		})
		_, err := NewClient(Config{Key: "k", BaseURL: srv.URL}).FetchAirline(context.Background(), "BAW")
		assert.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("timeout", func(t *testing.T) {
		srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
			w.Write([]byte(`{}`))
		})
		c := NewClient(Config{Key: "k", BaseURL: srv.URL, Timeout: 20 * time.Millisecond})
		_, err := c.FetchAircraftType(context.Background(), "B77W")
		assert.ErrorIs(t, err, ErrTransport)
	})

	t.Run("connection refused", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()
		_, err := NewClient(Config{Key: "k", BaseURL: url}).FetchFlight(context.Background(), "BAW1")
		assert.ErrorIs(t, err, ErrTransport)
	})
}

func TestFetchAircraftType(t *testing.T) {
	tests := []struct {
		name       string
		generation Generation
		path       string
		body       string
		shape      Shape
	}{
		{"v4", GenerationV4, "/aeroapi/aircraft/types/B77W",
			`{"manufacturer":"Boeing","type":"777-300ER","description":"Landplane","engine_count":2,"engine_type":"Jet"}`, ShapeCurrent},
		{"v2", GenerationV2, "/json/FlightXML2/AircraftType",
			`{"AircraftTypeResult":{"manufacturer":"Boeing","type":"777-300ER","description":"twin-jet"}}`, ShapeLegacy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, tt.path, r.URL.Path)
				w.Write([]byte(tt.body))
			})
			c := NewClient(Config{Generation: tt.generation, User: "u", Key: "k", BaseURL: srv.URL})
			doc, err := c.FetchAircraftType(context.Background(), "B77W")
			require.NoError(t, err)
			assert.Equal(t, tt.shape, doc.Shape())
			require.NotNil(t, doc.Body())
			assert.Equal(t, "Boeing", *doc.Body().Manufacturer)
			assert.Equal(t, "777-300ER", *doc.Body().Type)
		})
	}
}

func TestFetchAirline(t *testing.T) {
	tests := []struct {
		name       string
		generation Generation
		body       string
		shape      Shape
	}{
		{"v4", GenerationV4,
			`{"icao":"BAW","iata":"BA","callsign":"SPEEDBIRD","name":"British Airways","shortname":"British","country":"United Kingdom"}`, ShapeCurrent},
		{"v2", GenerationV2,
			`{"AirlineInfoResult":{"name":"British Airways","shortname":"British","callsign":"SPEEDBIRD","country":"United Kingdom"}}`, ShapeLegacy},
		{"miss", GenerationV2, `{"error":"unknown airline"}`, ShapeMiss},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				if tt.generation == GenerationV2 {
					assert.Equal(t, "BAW", r.URL.Query().Get("airlineCode"))
				} else {
					assert.Equal(t, "/aeroapi/operators/BAW", r.URL.Path)
				}
				w.Write([]byte(tt.body))
			})
			c := NewClient(Config{Generation: tt.generation, User: "u", Key: "k", BaseURL: srv.URL})
			doc, err := c.FetchAirline(context.Background(), "BAW")
			require.NoError(t, err)
			assert.Equal(t, tt.shape, doc.Shape())
			if tt.shape != ShapeMiss {
				assert.Equal(t, "British Airways", *doc.Body().Name)
			} else {
				assert.Nil(t, doc.Body())
			}
		})
	}
}
