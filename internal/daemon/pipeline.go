package daemon

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"adsb_speech/internal/models"
	"adsb_speech/internal/speech"
)

// PhraseSink receives the phrases to be spoken
type PhraseSink interface {
	Publish(track *models.TrackRecord, text string) error
}

// Composer turns a track into a phrase
type Composer interface {
	Compose(ctx context.Context, track *models.TrackRecord) (speech.Result, error)
}

// Pipeline composes incoming tracks, hands phrases to the sink and records
// every outcome in the announcement log
type Pipeline struct {
	composer      Composer
	excluded      func(icao string) bool
	sink          PhraseSink // may be nil
	announcements chan<- *models.Announcement

	processed  atomic.Int64
	suppressed atomic.Int64
	skipped    atomic.Int64
}

// NewPipeline creates a pipeline. sink and announcements may be nil.
func NewPipeline(composer Composer, excluded func(icao string) bool, sink PhraseSink, announcements chan<- *models.Announcement) *Pipeline {
	return &Pipeline{
		composer:      composer,
		excluded:      excluded,
		sink:          sink,
		announcements: announcements,
	}
}

// Run processes tracks until in is closed or ctx is cancelled
func (p *Pipeline) Run(ctx context.Context, in <-chan *models.TrackRecord) {
	for {
		select {
		case <-ctx.Done():
			return
		case track, ok := <-in:
			if !ok {
				return
			}
			if track != nil {
				p.Process(ctx, track)
			}
		}
	}
}

// Process handles one track. Nothing here stops the pipeline.
func (p *Pipeline) Process(ctx context.Context, track *models.TrackRecord) {
	if p.excluded != nil && p.excluded(track.ICAO) {
		p.skipped.Add(1)
		return
	}

	result, err := p.composer.Compose(ctx, track)
	if err != nil {
		if errors.Is(err, speech.ErrIncompleteTrack) {
			slog.Debug("Skipping incomplete track", "icao", track.ICAO)
		} else {
			slog.Error("Failed to compose phrase", "icao", track.ICAO, "error", err)
		}
		p.skipped.Add(1)
		return
	}
	p.processed.Add(1)

	if result.Suppressed {
		p.suppressed.Add(1)
	} else if p.sink != nil {
		if err := p.sink.Publish(track, result.Text); err != nil {
			slog.Error("Failed to publish phrase", "icao", track.ICAO, "error", err)
		}
	}

	if p.announcements != nil {
		select {
		case p.announcements <- models.NewAnnouncement(track, result.Text, result.Suppressed):
		case <-ctx.Done():
		}
	}
}

// Counts returns processed, suppressed and skipped track totals
func (p *Pipeline) Counts() (processed, suppressed, skipped int64) {
	return p.processed.Load(), p.suppressed.Load(), p.skipped.Load()
}
