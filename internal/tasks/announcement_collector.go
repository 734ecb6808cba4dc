package tasks

import (
	"context"
	"log/slog"
	"time"

	"adsb_speech/internal/models"
)

// AnnouncementWriter is the part of the announcement log the collector needs
type AnnouncementWriter interface {
	InsertBatch(announcements []*models.Announcement) error
}

// AnnouncementCollector collects announcements and commits them to the
// database in batches
type AnnouncementCollector struct {
	repo          AnnouncementWriter
	announcements <-chan *models.Announcement
	batchSize     int           // maximum number of announcements in a batch before committing
	flushInterval time.Duration // time to flush batch even if not full
}

// NewAnnouncementCollector creates a collector with a batch size of 100 and
// a flush interval of 5 seconds
func NewAnnouncementCollector(repo AnnouncementWriter, announcements <-chan *models.Announcement) *AnnouncementCollector {
	return NewAnnouncementCollectorWithConfig(repo, announcements, 100, 5*time.Second)
}

// NewAnnouncementCollectorWithConfig creates a collector with custom batch settings
func NewAnnouncementCollectorWithConfig(repo AnnouncementWriter, announcements <-chan *models.Announcement, batchSize int, flushInterval time.Duration) *AnnouncementCollector {
	return &AnnouncementCollector{
		repo:          repo,
		announcements: announcements,
		batchSize:     batchSize,
		flushInterval: flushInterval,
	}
}

// Start collects announcements until the context is cancelled or the
// channel is closed. A batch is written when it is full or when the flush
// interval passes, whichever comes first; whatever is left is written on
// the way out.
func (c *AnnouncementCollector) Start(ctx context.Context) error {
	batch := make([]*models.Announcement, 0, c.batchSize)

	flushBatch := func() {
		if len(batch) == 0 {
			return
		}
		if err := c.repo.InsertBatch(batch); err != nil {
			slog.Error("Error inserting batch of announcements", "batch_size", len(batch), "error", err)
		} else {
			slog.Debug("Inserted batch of announcements", "batch_size", len(batch))
		}
		batch = make([]*models.Announcement, 0, c.batchSize)
	}

	ticker := time.NewTicker(c.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			flushBatch()
			return ctx.Err()

		case <-ticker.C:
			flushBatch()

		case a, ok := <-c.announcements:
			if !ok {
				flushBatch()
				return nil
			}
			if a == nil {
				continue
			}

			batch = append(batch, a)
			if len(batch) >= c.batchSize {
				flushBatch()
			}
		}
	}
}
