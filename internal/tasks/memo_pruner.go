package tasks

import (
	"context"
	"log/slog"
	"time"

	"adsb_speech/internal/resolver"
)

// MemoPruner drops expired routes from the resolution engine's memo table
type MemoPruner struct {
	engine   *resolver.Engine
	interval time.Duration
}

// NewMemoPruner creates a scheduled task pruning engine every interval
func NewMemoPruner(engine *resolver.Engine, interval time.Duration) *MemoPruner {
	return &MemoPruner{engine: engine, interval: interval}
}

func (p *MemoPruner) Name() string            { return "memo_pruner" }
func (p *MemoPruner) Interval() time.Duration { return p.interval }

func (p *MemoPruner) Run(ctx context.Context) error {
	if n := p.engine.PruneMemo(); n > 0 {
		slog.Info("Pruned memoized routes", "pruned", n, "remaining", p.engine.MemoSize())
	}
	return nil
}

// StatsReporter periodically logs lookup counters
type StatsReporter struct {
	engine   *resolver.Engine
	interval time.Duration
}

func NewStatsReporter(engine *resolver.Engine, interval time.Duration) *StatsReporter {
	return &StatsReporter{engine: engine, interval: interval}
}

func (r *StatsReporter) Name() string            { return "stats_reporter" }
func (r *StatsReporter) Interval() time.Duration { return r.interval }

func (r *StatsReporter) Run(ctx context.Context) error {
	s := r.engine.Stats()
	slog.Info("Resolver stats",
		"memo_hits", s.MemoHits,
		"cache_hits", s.CacheHits,
		"remote_fetches", s.RemoteFetches,
		"remote_failures", s.RemoteFailures,
		"memo_size", s.MemoSize,
		"excluded", s.Excluded,
	)
	return nil
}
