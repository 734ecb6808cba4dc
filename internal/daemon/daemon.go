// Package daemon wires a track source to the speech composer and its sinks.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"adsb_speech/internal/config"
	"adsb_speech/internal/database"
	"adsb_speech/internal/dump1090"
	"adsb_speech/internal/feed"
	"adsb_speech/internal/instance"
	"adsb_speech/internal/models"
	"adsb_speech/internal/resolver"
	"adsb_speech/internal/scheduler"
	"adsb_speech/internal/speech"
	"adsb_speech/internal/tasks"

	"github.com/nats-io/nats.go"
)

const (
	registryBatchSize     = 5000
	statsInterval         = 5 * time.Minute
	groomInterval         = 30 * time.Second
	trackQueueSize        = 1000
	announcementQueueSize = 1000
)

// Daemon represents the main daemon structure
type Daemon struct {
	cfg      *config.Config
	db       *database.DB
	engine   *resolver.Engine
	composer *speech.Composer
	pipeline *Pipeline

	lock       *instance.Lock
	nc         *nats.Conn
	subscriber *feed.Subscriber
	tracker    *dump1090.Tracker
	sched      *scheduler.Scheduler

	tracks        chan *models.TrackRecord
	announcements chan *models.Announcement

	cancel      context.CancelFunc
	sourceWG    sync.WaitGroup
	collectorWG sync.WaitGroup
	running     atomic.Bool
}

// New opens the database, loads the aircraft registry when configured and
// builds the resolution engine. Nothing runs until Start.
func New(cfg *config.Config) (*Daemon, error) {
	db, err := database.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	engine := NewEngine(cfg)
	composer := NewComposer(cfg, engine)

	if len(cfg.Registry.CSVPaths) > 0 {
		registry := db.AircraftRepository()
		if err := loadRegistry(registry, cfg.Registry.CSVPaths); err != nil {
			db.Close()
			return nil, err
		}
		composer.SetTypeLookup(registry)
	}

	return &Daemon{
		cfg:           cfg,
		db:            db,
		engine:        engine,
		composer:      composer,
		tracks:        make(chan *models.TrackRecord, trackQueueSize),
		announcements: make(chan *models.Announcement, announcementQueueSize),
	}, nil
}

func loadRegistry(registry database.AircraftRepository, csvPaths []string) error {
	populated, err := registry.IsTablePopulated()
	if err != nil {
		return err
	}
	if populated {
		slog.Info("Aircraft registry is already populated")
		return nil
	}

	slog.Info("Aircraft registry is empty, loading from CSV files", "csv_paths", csvPaths)
	if err := registry.LoadFromMultipleCSV(csvPaths, registryBatchSize); err != nil {
		return fmt.Errorf("failed to load aircraft registry: %w", err)
	}
	return nil
}

// Engine returns the resolution engine
func (d *Daemon) Engine() *resolver.Engine {
	return d.engine
}

// Start acquires the instance lock and starts the track source, the
// pipeline, the announcement collector and the scheduled tasks
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	lock, err := instance.Acquire(d.cfg.LockPath)
	if err != nil {
		return err
	}
	d.lock = lock

	// Without a broker phrases are only logged and recorded
	var sink PhraseSink
	if d.cfg.NATS.URL != "" {
		nc, err := feed.Connect(d.cfg.NATS.URL)
		if err != nil {
			d.lock.Release()
			return err
		}
		d.nc = nc
		if d.cfg.NATS.SpeechSubject != "" {
			sink = feed.NewPublisher(nc, d.cfg.NATS.SpeechSubject)
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.pipeline = NewPipeline(d.composer, d.engine.IsExcluded, sink, d.announcements)
	d.sched = scheduler.New(ctx)

	if err := d.startSource(ctx); err != nil {
		cancel()
		d.closeNATS()
		d.lock.Release()
		return err
	}

	collector := tasks.NewAnnouncementCollectorWithConfig(
		d.db.AnnouncementRepository(), d.announcements,
		d.cfg.BatchSize, time.Duration(d.cfg.BatchTimeout)*time.Second,
	)
	d.collectorWG.Add(1)
	go func() {
		defer d.collectorWG.Done()
		// Runs until the announcement channel is closed in Stop
		_ = collector.Start(context.Background())
	}()

	d.sourceWG.Add(1)
	go func() {
		defer d.sourceWG.Done()
		d.pipeline.Run(ctx, d.tracks)
	}()

	if d.cfg.Memo.TTL > 0 {
		d.sched.AddTask(tasks.NewMemoPruner(d.engine, d.cfg.Memo.PruneInterval))
	}
	d.sched.AddTask(tasks.NewStatsReporter(d.engine, statsInterval))
	if d.tracker != nil {
		d.sched.AddTask(tasks.NewTrackGroomer(d.tracker, groomInterval))
	}
	d.sched.Start()

	d.running.Store(true)
	slog.Info("adsb_speech daemon started",
		"source", d.cfg.Source,
		"lock", d.lock.Path(),
		"local_city", d.cfg.LocalCity,
		"skip_general_aviation", d.cfg.SkipGeneralAviation,
	)
	return nil
}

func (d *Daemon) startSource(ctx context.Context) error {
	switch d.cfg.Source {
	case "nats":
		d.subscriber = feed.NewSubscriber(d.nc, d.cfg.NATS.TracksSubject, d.tracks)
		return d.subscriber.Start()

	case "sbs":
		d.tracker = dump1090.NewTracker(dump1090.Receiver{
			Lat:      d.cfg.Receiver.Lat,
			Lon:      d.cfg.Receiver.Lon,
			RadiusNM: d.cfg.Receiver.RadiusNM,
		}, d.engine.IsExcluded)
		client := dump1090.NewSBSClient(d.cfg.SBSAddr, d.tracker)

		d.sourceWG.Add(1)
		go func() {
			defer d.sourceWG.Done()
			if err := client.StreamTracks(ctx, d.tracks); err != nil && ctx.Err() == nil {
				slog.Error("SBS streamer stopped", "error", err)
			}
		}()
		slog.Info("Starting SBS track streamer", "sbs_addr", d.cfg.SBSAddr)
		return nil

	default:
		return fmt.Errorf("unknown track source %q", d.cfg.Source)
	}
}

// ApplyConfig applies the settings that can change while running
func (d *Daemon) ApplyConfig(cfg *config.Config) {
	d.composer.SetLocalCity(cfg.LocalCity)
	d.composer.SetSkipGeneralAviation(cfg.SkipGeneralAviation)
	slog.Info("Applied configuration change",
		"local_city", cfg.LocalCity,
		"skip_general_aviation", cfg.SkipGeneralAviation,
	)
}

// Stop stops the source and the pipeline, writes out pending announcements
// and releases the instance lock
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.subscriber != nil {
		d.subscriber.Close()
	}
	d.sched.Stop()
	d.cancel()
	d.sourceWG.Wait()

	close(d.announcements)
	d.collectorWG.Wait()

	d.closeNATS()
	if err := d.lock.Release(); err != nil {
		slog.Warn("Failed to release daemon lock", "error", err)
	}

	processed, suppressed, skipped := d.pipeline.Counts()
	slog.Info("adsb_speech daemon stopped",
		"processed", processed,
		"suppressed", suppressed,
		"skipped", skipped,
	)
	d.running.Store(false)
}

func (d *Daemon) closeNATS() {
	if d.nc != nil {
		if err := d.nc.Drain(); err != nil {
			d.nc.Close()
		}
		d.nc = nil
	}
}

// Close stops the daemon and closes the database
func (d *Daemon) Close() error {
	d.Stop()
	return d.db.Close()
}
