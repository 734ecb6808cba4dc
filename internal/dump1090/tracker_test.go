package dump1090

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"adsb_speech/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sbs(t *testing.T, line string) *models.SBSMessage {
	t.Helper()
	msg, err := models.ParseSBSMessage(line)
	require.NoError(t, err)
	return msg
}

const (
	idLine       = "MSG,1,1,1,400F01,1,2024/03/01,12:00:00.000,2024/03/01,12:00:00.000,BAW123  ,,,,,,,,,,,0"
	positionLine = "MSG,3,1,1,400F01,1,2024/03/01,12:00:01.000,2024/03/01,12:00:01.000,,3000,,,40.6500,-73.7800,,,0,0,0,0"
	velocityLine = "MSG,4,1,1,400F01,1,2024/03/01,12:00:02.000,2024/03/01,12:00:02.000,,,250,45.4,,,0,,,,,0"
)

var jfk = Receiver{Lat: 40.6413, Lon: -73.7781, RadiusNM: 20}

func TestReceiver_DistanceNM(t *testing.T) {
	assert.Equal(t, 0.0, jfk.DistanceNM(jfk.Lat, jfk.Lon))

	// One degree of latitude is 60 nautical miles
	r := Receiver{}
	assert.InDelta(t, 60.04, r.DistanceNM(1, 0), 0.01)

	// JFK to LHR
	assert.InDelta(t, 3000, jfk.DistanceNM(51.47, -0.4543), 30)
}

func TestTracker_EmitsOnceWhenComplete(t *testing.T) {
	tracker := NewTracker(jfk, nil)
	now := time.Now()

	_, ok := tracker.Update(sbs(t, idLine), now)
	assert.False(t, ok)
	_, ok = tracker.Update(sbs(t, positionLine), now)
	assert.False(t, ok, "no heading yet")

	rec, ok := tracker.Update(sbs(t, velocityLine), now)
	require.True(t, ok)
	assert.Equal(t, "400F01", rec.ICAO)
	assert.Equal(t, "BAW123", rec.Flight)
	assert.Equal(t, 3000, *rec.Altitude)
	assert.Equal(t, 45.4, *rec.Heading)
	assert.Equal(t, 40.65, rec.Latitude)
	assert.Equal(t, -73.78, rec.Longitude)
	assert.InDelta(t, 0.53, rec.Distance, 0.05)

	_, ok = tracker.Update(sbs(t, velocityLine), now.Add(time.Second))
	assert.False(t, ok, "a track is announced once")
	assert.Equal(t, 1, tracker.Len())
}

func TestTracker_OutsideRadius(t *testing.T) {
	tracker := NewTracker(Receiver{Lat: 51.47, Lon: -0.45, RadiusNM: 20}, nil)
	now := time.Now()

	tracker.Update(sbs(t, idLine), now)
	tracker.Update(sbs(t, positionLine), now)
	_, ok := tracker.Update(sbs(t, velocityLine), now)
	assert.False(t, ok)

	// No radius means no filter
	tracker = NewTracker(Receiver{Lat: 51.47, Lon: -0.45}, nil)
	tracker.Update(sbs(t, idLine), now)
	tracker.Update(sbs(t, positionLine), now)
	_, ok = tracker.Update(sbs(t, velocityLine), now)
	assert.True(t, ok)
}

func TestTracker_WaitsForCallsign(t *testing.T) {
	tracker := NewTracker(jfk, nil)
	now := time.Now()

	tracker.Update(sbs(t, positionLine), now)
	_, ok := tracker.Update(sbs(t, velocityLine), now)
	assert.False(t, ok)

	_, ok = tracker.Update(sbs(t, velocityLine), now.Add(DefaultCallsignWait/2))
	assert.False(t, ok)

	rec, ok := tracker.Update(sbs(t, velocityLine), now.Add(DefaultCallsignWait))
	require.True(t, ok)
	assert.Empty(t, rec.Flight)
	assert.Equal(t, "400F01", rec.Designator())
}

func TestTracker_Excluded(t *testing.T) {
	tracker := NewTracker(jfk, func(icao string) bool { return icao == "400F01" })
	now := time.Now()

	tracker.Update(sbs(t, idLine), now)
	tracker.Update(sbs(t, positionLine), now)
	_, ok := tracker.Update(sbs(t, velocityLine), now)
	assert.False(t, ok)
	assert.Zero(t, tracker.Len())
}

func TestTracker_Groom(t *testing.T) {
	tracker := NewTracker(jfk, nil)
	now := time.Now()

	tracker.Update(sbs(t, idLine), now)
	tracker.Update(sbs(t, positionLine), now)
	_, ok := tracker.Update(sbs(t, velocityLine), now)
	require.True(t, ok)

	assert.Zero(t, tracker.Groom(now.Add(DefaultTrackTTL)))
	assert.Equal(t, 1, tracker.Groom(now.Add(DefaultTrackTTL+time.Second)))
	assert.Zero(t, tracker.Len())

	// A forgotten aircraft is announced again when it comes back
	later := now.Add(time.Hour)
	tracker.Update(sbs(t, idLine), later)
	tracker.Update(sbs(t, positionLine), later)
	_, ok = tracker.Update(sbs(t, velocityLine), later)
	assert.True(t, ok)
}

func TestSBSClient_StreamTracks(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		fmt.Fprint(conn, "garbage\r\n")
		fmt.Fprint(conn, idLine+"\r\n")
		fmt.Fprint(conn, positionLine+"\r\n")
		// Split a record across writes
		fmt.Fprint(conn, velocityLine[:20])
		time.Sleep(20 * time.Millisecond)
		fmt.Fprint(conn, velocityLine[20:]+"\r\n")
		time.Sleep(time.Second)
	}()

	client := NewSBSClient(listener.Addr().String(), NewTracker(jfk, nil))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	out := make(chan *models.TrackRecord, 1)
	done := make(chan error, 1)
	go func() { done <- client.StreamTracks(ctx, out) }()

	select {
	case rec := <-out:
		assert.Equal(t, "BAW123", rec.Flight)
		assert.Equal(t, 3000, *rec.Altitude)
	case <-ctx.Done():
		t.Fatal("no track received")
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestSBSClient_ReconnectGivesUp(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	listener.Close()

	client := NewSBSClient(addr, NewTracker(jfk, nil))
	client.maxRetries = 2
	client.retryBackoff = time.Millisecond

	err = client.StreamTracks(context.Background(), make(chan *models.TrackRecord))
	assert.ErrorContains(t, err, "max retries")
}
