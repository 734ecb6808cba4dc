package models

import (
	"time"

	"github.com/google/uuid"
)

// Announcement is one composed phrase (or a suppressed track) as recorded
// in the announcement log.
type Announcement struct {
	ID         string
	Timestamp  time.Time
	ICAO       string
	Flight     string
	Text       string
	Suppressed bool
}

// NewAnnouncement stamps a new announcement with an ID and the current time
func NewAnnouncement(track *TrackRecord, text string, suppressed bool) *Announcement {
	return &Announcement{
		ID:         uuid.NewString(),
		Timestamp:  time.Now(),
		ICAO:       track.ICAO,
		Flight:     track.Flight,
		Text:       text,
		Suppressed: suppressed,
	}
}
