package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TrackRecord is a single aircraft track as delivered by a track source.
// Heading and Altitude are pointers because a feed may not have reported
// them yet; a record without them cannot be announced.
type TrackRecord struct {
	ICAO         string   `json:"icao"`
	Flight       string   `json:"flt"`
	Heading      *float64 `json:"dir,omitempty"`
	Altitude     *int     `json:"alt,omitempty"`
	Distance     float64  `json:"nm"`
	Latitude     float64  `json:"lat"`
	Longitude    float64  `json:"lng"`
	AircraftType string   `json:"t,omitempty"` // type reported by the feed, informational only
}

// ParseTrackRecord decodes a JSON track record
func ParseTrackRecord(data []byte) (*TrackRecord, error) {
	var rec TrackRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode track record: %w", err)
	}
	rec.ICAO = strings.ToUpper(strings.TrimSpace(rec.ICAO))
	rec.Flight = strings.TrimSpace(rec.Flight)
	if rec.ICAO == "" {
		return nil, fmt.Errorf("track record has no icao")
	}
	return &rec, nil
}

// Designator returns the flight designator, falling back to the ICAO code
// when the feed has not seen a callsign.
func (t *TrackRecord) Designator() string {
	if t.Flight != "" {
		return t.Flight
	}
	return t.ICAO
}

// IsTailNumber reports whether the designator is a general aviation
// registration rather than an airline flight code.
func (t *TrackRecord) IsTailNumber() bool {
	return IsTailNumber(t.Designator())
}

// IsTailNumber reports whether designator looks like a US registration (N-number)
func IsTailNumber(designator string) bool {
	return strings.HasPrefix(designator, "N")
}
