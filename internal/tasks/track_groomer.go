package tasks

import (
	"context"
	"log/slog"
	"time"

	"adsb_speech/internal/dump1090"
)

// TrackGroomer forgets aircraft the SBS tracker has not heard from lately
type TrackGroomer struct {
	tracker  *dump1090.Tracker
	interval time.Duration
	now      func() time.Time
}

func NewTrackGroomer(tracker *dump1090.Tracker, interval time.Duration) *TrackGroomer {
	return &TrackGroomer{tracker: tracker, interval: interval, now: time.Now}
}

func (g *TrackGroomer) Name() string            { return "track_groomer" }
func (g *TrackGroomer) Interval() time.Duration { return g.interval }

func (g *TrackGroomer) Run(ctx context.Context) error {
	if n := g.tracker.Groom(g.now()); n > 0 {
		slog.Debug("Dropped stale tracks", "dropped", n, "remaining", g.tracker.Len())
	}
	return nil
}
