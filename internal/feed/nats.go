// Package feed connects the daemon to a NATS broker: track records come in
// on one subject and composed phrases go out on another.
package feed

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"adsb_speech/internal/models"

	"github.com/nats-io/nats.go"
)

// Connect opens a NATS connection that keeps reconnecting while the daemon
// runs
func Connect(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("adsb_speech"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("Disconnected from NATS", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("Reconnected to NATS", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	slog.Info("Connected to NATS server", "url", url)
	return nc, nil
}

// Subscriber receives JSON track records from a NATS subject
type Subscriber struct {
	nc      *nats.Conn
	sub     *nats.Subscription
	subject string
	out     chan<- *models.TrackRecord
	dropped int64
}

// NewSubscriber creates a subscriber delivering records to out
func NewSubscriber(nc *nats.Conn, subject string, out chan<- *models.TrackRecord) *Subscriber {
	return &Subscriber{nc: nc, subject: subject, out: out}
}

// Start subscribes to the subject. Records arrive on out until Close.
func (s *Subscriber) Start() error {
	sub, err := s.nc.Subscribe(s.subject, func(msg *nats.Msg) {
		s.handle(msg.Data)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", s.subject, err)
	}
	s.sub = sub
	slog.Info("Subscribed to track records", "subject", s.subject)
	return nil
}

// handle decodes one message. A full channel drops the record rather than
// stalling the NATS dispatcher.
func (s *Subscriber) handle(data []byte) {
	rec, err := models.ParseTrackRecord(data)
	if err != nil {
		slog.Warn("Ignoring malformed track record", "subject", s.subject, "error", err)
		return
	}

	select {
	case s.out <- rec:
	default:
		s.dropped++
		slog.Warn("Track queue full, dropping record", "icao", rec.ICAO, "dropped", s.dropped)
	}
}

// Close unsubscribes
func (s *Subscriber) Close() {
	if s.sub != nil {
		s.sub.Unsubscribe()
		s.sub = nil
	}
}

// Phrase is the message published for the speech engine
type Phrase struct {
	ICAO   string `json:"icao"`
	Flight string `json:"flt"`
	Text   string `json:"text"`
}

type natsPublisher interface {
	Publish(subject string, data []byte) error
}

// Publisher sends composed phrases to a NATS subject
type Publisher struct {
	nc      natsPublisher
	subject string
}

// NewPublisher creates a publisher on subject
func NewPublisher(nc *nats.Conn, subject string) *Publisher {
	return &Publisher{nc: nc, subject: subject}
}

// Publish sends the phrase for one track
func (p *Publisher) Publish(track *models.TrackRecord, text string) error {
	data, err := json.Marshal(Phrase{ICAO: track.ICAO, Flight: track.Flight, Text: text})
	if err != nil {
		return fmt.Errorf("failed to encode phrase: %w", err)
	}
	if err := p.nc.Publish(p.subject, data); err != nil {
		return fmt.Errorf("failed to publish phrase to %s: %w", p.subject, err)
	}
	return nil
}
