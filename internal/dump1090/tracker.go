package dump1090

import (
	"math"
	"sync"
	"time"

	"adsb_speech/internal/models"
)

const (
	// DefaultTrackTTL is how long a silent aircraft is remembered
	DefaultTrackTTL = 300 * time.Second

	// DefaultCallsignWait is how long a complete track waits for a callsign
	// before it is emitted under its ICAO address
	DefaultCallsignWait = 30 * time.Second

	earthRadiusNM = 3440.07
)

// Receiver is the antenna position used for distance filtering. A zero
// RadiusNM disables the filter.
type Receiver struct {
	Lat      float64
	Lon      float64
	RadiusNM float64
}

// DistanceNM returns the great circle distance from the receiver in
// nautical miles, rounded to 4 decimals
func (r Receiver) DistanceNM(lat, lon float64) float64 {
	lat1, lon1 := r.Lat*math.Pi/180, r.Lon*math.Pi/180
	lat2, lon2 := lat*math.Pi/180, lon*math.Pi/180

	dlat, dlon := lat1-lat2, lon1-lon2
	a := math.Pow(math.Sin(dlat/2), 2) + math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(dlon/2), 2)
	nm := earthRadiusNM * 2 * math.Asin(math.Sqrt(a))
	return math.Round(nm*10000) / 10000
}

type trackState struct {
	rec           models.TrackRecord
	lat, lon      *float64
	lastSeen      time.Time
	completeSince time.Time
	emitted       bool
}

func (s *trackState) complete() bool {
	return s.rec.Altitude != nil && s.rec.Heading != nil && s.lat != nil && s.lon != nil
}

// Tracker merges SBS messages into one track per ICAO address and decides
// when a track is ready to be announced. Each track is emitted once; an
// aircraft that goes silent for longer than the TTL is forgotten and will
// be announced again when it reappears.
type Tracker struct {
	receiver     Receiver
	ttl          time.Duration
	callsignWait time.Duration
	excluded     func(icao string) bool

	mu     sync.Mutex
	tracks map[string]*trackState
}

// NewTracker creates a tracker. excluded may be nil.
func NewTracker(receiver Receiver, excluded func(icao string) bool) *Tracker {
	return &Tracker{
		receiver:     receiver,
		ttl:          DefaultTrackTTL,
		callsignWait: DefaultCallsignWait,
		excluded:     excluded,
		tracks:       make(map[string]*trackState),
	}
}

// Update merges msg into its track and returns the track record when it
// should be announced now
func (t *Tracker) Update(msg *models.SBSMessage, now time.Time) (*models.TrackRecord, bool) {
	if t.excluded != nil && t.excluded(msg.ICAO) {
		return nil, false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.tracks[msg.ICAO]
	if !ok {
		s = &trackState{rec: models.TrackRecord{ICAO: msg.ICAO}}
		t.tracks[msg.ICAO] = s
	}
	s.lastSeen = now

	if msg.Callsign != nil {
		s.rec.Flight = *msg.Callsign
	}
	if msg.Altitude != nil {
		alt := *msg.Altitude
		s.rec.Altitude = &alt
	}
	if msg.Track != nil {
		dir := *msg.Track
		s.rec.Heading = &dir
	}
	if msg.Latitude != nil && msg.Longitude != nil {
		lat, lon := *msg.Latitude, *msg.Longitude
		s.lat, s.lon = &lat, &lon
	}

	if s.emitted || !s.complete() {
		return nil, false
	}
	if s.completeSince.IsZero() {
		s.completeSince = now
	}
	if s.rec.Flight == "" && now.Sub(s.completeSince) < t.callsignWait {
		return nil, false
	}

	nm := t.receiver.DistanceNM(*s.lat, *s.lon)
	if t.receiver.RadiusNM > 0 && nm >= t.receiver.RadiusNM {
		return nil, false
	}

	s.emitted = true
	rec := s.rec
	rec.Latitude, rec.Longitude, rec.Distance = *s.lat, *s.lon, nm
	return &rec, true
}

// Groom forgets tracks not heard from within the TTL and returns how many
// were dropped
func (t *Tracker) Groom(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	dropped := 0
	for icao, s := range t.tracks {
		if now.Sub(s.lastSeen) > t.ttl {
			delete(t.tracks, icao)
			dropped++
		}
	}
	return dropped
}

// Len returns the number of tracks currently held
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.tracks)
}
