package database

import (
	"database/sql"
	"fmt"
	"time"

	"adsb_speech/internal/models"
)

type AnnouncementRepository interface {
	InsertBatch(announcements []*models.Announcement) error
	Recent(limit int) ([]*models.Announcement, error)
	CountSince(since time.Time) (int, error)
}

type announcementRepository struct {
	db *sql.DB
}

func NewAnnouncementRepository(db *sql.DB) AnnouncementRepository {
	return &announcementRepository{db: db}
}

// InsertBatch inserts one or more announcements in a single transaction.
// Batching is preferred over individual inserts on SD card storage.
func (r *announcementRepository) InsertBatch(announcements []*models.Announcement) error {
	if len(announcements) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO announcements (
		id, timestamp, icao, flight, text, suppressed
	) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, a := range announcements {
		if _, err := stmt.Exec(a.ID, a.Timestamp.UTC(), a.ICAO, a.Flight, a.Text, a.Suppressed); err != nil {
			return fmt.Errorf("failed to insert announcement: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Recent returns the newest announcements first
func (r *announcementRepository) Recent(limit int) ([]*models.Announcement, error) {
	rows, err := r.db.Query(`SELECT id, timestamp, icao, flight, text, suppressed
		FROM announcements ORDER BY timestamp DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query announcements: %w", err)
	}
	defer rows.Close()

	var out []*models.Announcement
	for rows.Next() {
		var a models.Announcement
		var flight, text sql.NullString
		if err := rows.Scan(&a.ID, &a.Timestamp, &a.ICAO, &flight, &text, &a.Suppressed); err != nil {
			return nil, fmt.Errorf("failed to scan announcement: %w", err)
		}
		a.Flight = flight.String
		a.Text = text.String
		out = append(out, &a)
	}
	return out, rows.Err()
}

// CountSince counts announcements logged at or after since
func (r *announcementRepository) CountSince(since time.Time) (int, error) {
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM announcements WHERE timestamp >= ?`, since.UTC()).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count announcements: %w", err)
	}
	return n, nil
}
