package dump1090

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"time"

	"adsb_speech/internal/models"
)

// SBSClient streams BaseStation records from dump1090 (port 30003) and
// turns them into track records through a Tracker
type SBSClient struct {
	conn         net.Conn
	reader       *bufio.Reader
	addr         string
	tracker      *Tracker
	maxRetries   int
	retryBackoff time.Duration
	maxBackoff   time.Duration
	now          func() time.Time
}

func NewSBSClient(addr string, tracker *Tracker) *SBSClient {
	return &SBSClient{
		addr:         addr,
		tracker:      tracker,
		maxRetries:   -1, // -1 means infinite retries
		retryBackoff: 1 * time.Second,
		maxBackoff:   30 * time.Second,
		now:          time.Now,
	}
}

// connect establishes a TCP connection to dump1090
func (c *SBSClient) connect(ctx context.Context) error {
	dialer := net.Dialer{
		Timeout: 5 * time.Second,
	}

	conn, err := dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.addr, err)
	}

	c.conn = conn
	c.reader = bufio.NewReader(conn)
	return nil
}

// StreamTracks sends announceable tracks to out until ctx is cancelled,
// reconnecting with exponential backoff whenever the connection drops
func (c *SBSClient) StreamTracks(ctx context.Context, out chan<- *models.TrackRecord) error {
	retryCount := 0
	backoff := c.retryBackoff

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if c.conn == nil {
			if err := c.connect(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				retryCount++
				if c.maxRetries > 0 && retryCount > c.maxRetries {
					return fmt.Errorf("max retries (%d) exceeded: %w", c.maxRetries, err)
				}
				slog.Warn("Failed to connect to SBS server", "addr", c.addr, "retry", retryCount, "error", err)

				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(backoff):
				}
				backoff *= 2
				if backoff > c.maxBackoff {
					backoff = c.maxBackoff
				}
				continue
			}
			retryCount = 0
			backoff = c.retryBackoff
			slog.Info("Connected to SBS server", "addr", c.addr)
		}

		err := c.readRecords(ctx, out)
		c.closeConnection()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		slog.Warn("Connection error, reconnecting", "addr", c.addr, "error", err)
	}
}

func (c *SBSClient) readRecords(ctx context.Context, out chan<- *models.TrackRecord) error {
	var pending strings.Builder

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err := c.conn.SetReadDeadline(time.Now().Add(1 * time.Second)); err != nil {
			return fmt.Errorf("failed to set read deadline: %w", err)
		}

		chunk, err := c.reader.ReadString('\n')
		pending.WriteString(chunk)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("connection closed")
			}
			return fmt.Errorf("failed to read record: %w", err)
		}

		line := pending.String()
		pending.Reset()

		rec, ok := c.handleLine(line)
		if !ok {
			continue
		}

		select {
		case out <- rec:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// handleLine parses one SBS line and feeds it to the tracker
func (c *SBSClient) handleLine(line string) (*models.TrackRecord, bool) {
	if strings.TrimSpace(line) == "" {
		return nil, false
	}

	msg, err := models.ParseSBSMessage(line)
	if err != nil {
		slog.Debug("Failed to parse SBS record", "error", err)
		return nil, false
	}

	rec, ok := c.tracker.Update(msg, c.now())
	if ok {
		slog.Debug("Track ready", "icao", rec.ICAO, "flight", rec.Flight, "nm", rec.Distance)
	}
	return rec, ok
}

// closeConnection closes the current connection
func (c *SBSClient) closeConnection() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
		c.reader = nil
	}
}

// Close closes the connection
func (c *SBSClient) Close() error {
	c.closeConnection()
	return nil
}
