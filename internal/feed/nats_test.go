package feed

import (
	"errors"
	"net"
	"testing"

	"adsb_speech/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingConn struct {
	subject string
	data    []byte
	err     error
}

func (r *recordingConn) Publish(subject string, data []byte) error {
	r.subject, r.data = subject, data
	return r.err
}

func TestPublisher_Publish(t *testing.T) {
	conn := &recordingConn{}
	p := &Publisher{nc: conn, subject: "adsb.speech"}

	track := &models.TrackRecord{ICAO: "400F01", Flight: "BAW123"}
	require.NoError(t, p.Publish(track, "British B77W at 3000 heading 4 5 from London"))

	assert.Equal(t, "adsb.speech", conn.subject)
	assert.JSONEq(t, `{"icao":"400F01","flt":"BAW123","text":"British B77W at 3000 heading 4 5 from London"}`, string(conn.data))
}

func TestPublisher_PublishError(t *testing.T) {
	p := &Publisher{nc: &recordingConn{err: errors.New("nats: connection closed")}, subject: "adsb.speech"}
	err := p.Publish(&models.TrackRecord{ICAO: "400F01"}, "text")
	assert.ErrorContains(t, err, "connection closed")
}

func TestSubscriber_Handle(t *testing.T) {
	out := make(chan *models.TrackRecord, 1)
	s := &Subscriber{subject: "adsb.tracks", out: out}

	s.handle([]byte(`{"icao":"400f01","flt":"BAW123 ","dir":45.4,"alt":3000,"nm":4.2,"lat":40.6,"lng":-73.7,"t":"B77W"}`))
	require.Len(t, out, 1)

	rec := <-out
	assert.Equal(t, "400F01", rec.ICAO)
	assert.Equal(t, "BAW123", rec.Flight)
	assert.Equal(t, 45.4, *rec.Heading)
	assert.Equal(t, 3000, *rec.Altitude)
	assert.Equal(t, "B77W", rec.AircraftType)

	// Malformed records are ignored
	s.handle([]byte(`{"flt":"BAW123"}`))
	s.handle([]byte(`not json`))
	assert.Empty(t, out)

	// A full queue drops instead of blocking
	s.handle([]byte(`{"icao":"A00001"}`))
	s.handle([]byte(`{"icao":"A00002"}`))
	assert.Len(t, out, 1)
	assert.Equal(t, int64(1), s.dropped)
}

func TestConnect_Unreachable(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	listener.Close()

	_, err = Connect("nats://" + addr)
	assert.Error(t, err)
}
