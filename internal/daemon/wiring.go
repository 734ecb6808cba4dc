package daemon

import (
	"log/slog"

	"adsb_speech/internal/aeroapi"
	"adsb_speech/internal/cache"
	"adsb_speech/internal/config"
	"adsb_speech/internal/resolver"
	"adsb_speech/internal/speech"
)

// NewEngine builds the resolution engine from configuration. Without
// credentials the engine answers from the disk cache only.
func NewEngine(cfg *config.Config) *resolver.Engine {
	store := cache.New(cfg.Cache.FlightsDir, cfg.Cache.MetadataDir)
	apiCfg := aeroapi.Config{
		Generation: aeroapi.Generation(cfg.AeroAPI.Generation),
		User:       cfg.AeroAPI.User,
		Key:        cfg.AeroAPI.Key,
		BaseURL:    cfg.AeroAPI.BaseURL,
		Timeout:    cfg.AeroAPI.Timeout,
	}

	memoCfg := resolver.MemoConfig{MaxEntries: cfg.Memo.MaxEntries, TTL: cfg.Memo.TTL}
	if !apiCfg.Configured() {
		slog.Info("No FlightAware credentials configured, using the disk cache only",
			"flights_dir", cfg.Cache.FlightsDir)
		return resolver.New(store, nil, memoCfg)
	}

	client := aeroapi.NewClient(apiCfg)
	slog.Info("Using FlightAware API", "generation", client.Generation(), "flights_dir", cfg.Cache.FlightsDir)
	return resolver.New(store, client, memoCfg)
}

// NewComposer builds a composer with the phrasing settings from cfg
func NewComposer(cfg *config.Config, engine *resolver.Engine) *speech.Composer {
	return speech.NewComposer(engine, speech.Options{
		LocalCity:           cfg.LocalCity,
		SkipGeneralAviation: cfg.SkipGeneralAviation,
	})
}
