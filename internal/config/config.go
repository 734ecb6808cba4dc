package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// ConfigPathEnv names a config file to load instead of searching for one
const ConfigPathEnv = "ADSB_SPEECH_CONFIG_PATH"

// Config holds all configuration for the daemon
type Config struct {
	LocalCity           string
	SkipGeneralAviation bool

	AeroAPI  AeroAPIConfig
	Cache    CacheConfig
	Memo     MemoConfig
	Source   string
	SBSAddr  string
	Receiver ReceiverConfig
	NATS     NATSConfig
	Registry RegistryConfig

	DBPath       string
	BatchSize    int
	BatchTimeout int
	LockPath     string

	Log LogConfig

	// File is the config file that was loaded, empty when running on
	// defaults and environment only
	File string
}

// AeroAPIConfig holds FlightAware credentials. An empty key disables
// remote lookups.
type AeroAPIConfig struct {
	Generation string
	Key        string
	User       string
	BaseURL    string
	Timeout    time.Duration
}

// CacheConfig locates the on-disk metadata cache
type CacheConfig struct {
	FlightsDir  string
	MetadataDir string
}

// MemoConfig bounds the in-memory route table, zero means unbounded
type MemoConfig struct {
	MaxEntries    int
	TTL           time.Duration
	PruneInterval time.Duration
}

// ReceiverConfig places the antenna for distance filtering of SBS tracks
type ReceiverConfig struct {
	Lat      float64
	Lon      float64
	RadiusNM float64
}

// NATSConfig holds the broker address and subjects
type NATSConfig struct {
	URL           string
	TracksSubject string
	SpeechSubject string
}

// RegistryConfig lists the aircraft database CSV parts
type RegistryConfig struct {
	CSVPaths []string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string
}

// Loader reads the configuration and keeps the viper instance around so
// the file can be watched
type Loader struct {
	v *viper.Viper
}

// Load loads configuration from config file and environment variables
func Load() (*Config, error) {
	cfg, _, err := NewLoader()
	return cfg, err
}

// NewLoader loads the configuration and returns a loader that can watch
// the config file for changes
func NewLoader() (*Config, *Loader, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/adsb_speech")
	v.AddConfigPath(".")

	if configPath := os.Getenv(ConfigPathEnv); configPath != "" {
		path, err := homedir.Expand(configPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to expand config path: %w", err)
		}
		v.SetConfigFile(path)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("ADSB_SPEECH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	l := &Loader{v: v}
	cfg, err := l.build()
	if err != nil {
		return nil, nil, err
	}
	return cfg, l, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("local_city", "")
	v.SetDefault("skip_general_aviation", false)
	v.SetDefault("aeroapi.generation", "v4")
	v.SetDefault("aeroapi.key", "")
	v.SetDefault("aeroapi.user", "")
	v.SetDefault("aeroapi.base_url", "")
	v.SetDefault("aeroapi.timeout", time.Second)
	v.SetDefault("cache.flights_dir", "/var/tmp/flights")
	v.SetDefault("cache.metadata_dir", "/var/tmp")
	v.SetDefault("memo.max_entries", 0)
	v.SetDefault("memo.ttl", time.Duration(0))
	v.SetDefault("memo.prune_interval", time.Minute)
	v.SetDefault("source", "sbs")
	v.SetDefault("sbs_addr", "localhost:30003")
	v.SetDefault("receiver.lat", 0.0)
	v.SetDefault("receiver.lon", 0.0)
	v.SetDefault("receiver.radius_nm", 0.0)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.tracks_subject", "adsb.tracks")
	v.SetDefault("nats.speech_subject", "adsb.speech")
	v.SetDefault("db_path", "adsb_speech.db")
	v.SetDefault("batch_size", 100)
	v.SetDefault("batch_timeout", 5)
	v.SetDefault("registry.csv_paths", []string{})
	v.SetDefault("lock_path", "/var/tmp/adsb_speech.lock")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

func (l *Loader) build() (*Config, error) {
	v := l.v
	cfg := &Config{
		LocalCity:           v.GetString("local_city"),
		SkipGeneralAviation: v.GetBool("skip_general_aviation"),
		AeroAPI: AeroAPIConfig{
			Generation: strings.ToLower(v.GetString("aeroapi.generation")),
			Key:        v.GetString("aeroapi.key"),
			User:       v.GetString("aeroapi.user"),
			BaseURL:    v.GetString("aeroapi.base_url"),
			Timeout:    v.GetDuration("aeroapi.timeout"),
		},
		Cache: CacheConfig{
			FlightsDir:  v.GetString("cache.flights_dir"),
			MetadataDir: v.GetString("cache.metadata_dir"),
		},
		Memo: MemoConfig{
			MaxEntries:    v.GetInt("memo.max_entries"),
			TTL:           v.GetDuration("memo.ttl"),
			PruneInterval: v.GetDuration("memo.prune_interval"),
		},
		Source:  strings.ToLower(v.GetString("source")),
		SBSAddr: v.GetString("sbs_addr"),
		Receiver: ReceiverConfig{
			Lat:      v.GetFloat64("receiver.lat"),
			Lon:      v.GetFloat64("receiver.lon"),
			RadiusNM: v.GetFloat64("receiver.radius_nm"),
		},
		NATS: NATSConfig{
			URL:           v.GetString("nats.url"),
			TracksSubject: v.GetString("nats.tracks_subject"),
			SpeechSubject: v.GetString("nats.speech_subject"),
		},
		Registry: RegistryConfig{
			CSVPaths: v.GetStringSlice("registry.csv_paths"),
		},
		DBPath:       v.GetString("db_path"),
		BatchSize:    v.GetInt("batch_size"),
		BatchTimeout: v.GetInt("batch_timeout"),
		LockPath:     v.GetString("lock_path"),
		Log: LogConfig{
			Level:  strings.ToLower(v.GetString("log.level")),
			Format: strings.ToLower(v.GetString("log.format")),
		},
		File: v.ConfigFileUsed(),
	}

	if err := expandPaths(cfg); err != nil {
		return nil, err
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// expandPaths resolves a leading ~ in every configured path
func expandPaths(cfg *Config) error {
	paths := []*string{&cfg.Cache.FlightsDir, &cfg.Cache.MetadataDir, &cfg.DBPath, &cfg.LockPath}
	for i := range cfg.Registry.CSVPaths {
		paths = append(paths, &cfg.Registry.CSVPaths[i])
	}

	for _, p := range paths {
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("failed to expand path %q: %w", *p, err)
		}
		*p = expanded
	}
	return nil
}

// Settings returns the merged configuration as a nested map, for display.
// Durations are rendered as strings and the API key is masked.
func (l *Loader) Settings() map[string]any {
	settings := l.v.AllSettings()
	displayable(settings)
	if api, ok := settings["aeroapi"].(map[string]any); ok {
		if key, _ := api["key"].(string); key != "" {
			api["key"] = "********"
		}
	}
	return settings
}

func displayable(m map[string]any) {
	for k, val := range m {
		switch t := val.(type) {
		case time.Duration:
			m[k] = t.String()
		case map[string]any:
			displayable(t)
		}
	}
}

// Watch re-reads the config file whenever it changes and hands the new,
// valid configuration to onChange. Invalid edits are logged and ignored.
func (l *Loader) Watch(onChange func(*Config)) {
	if l.v.ConfigFileUsed() == "" {
		slog.Debug("No config file loaded, not watching for changes")
		return
	}

	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := l.build()
		if err != nil {
			slog.Warn("Ignoring invalid config change", "file", e.Name, "error", err)
			return
		}
		slog.Info("Config file changed", "file", e.Name)
		onChange(cfg)
	})
	l.v.WatchConfig()
}

// validate validates the configuration values
func validate(cfg *Config) error {
	switch cfg.AeroAPI.Generation {
	case "v4", "v2":
	default:
		return fmt.Errorf("invalid aeroapi.generation: %s (must be v4 or v2)", cfg.AeroAPI.Generation)
	}

	if cfg.AeroAPI.Generation == "v2" && cfg.AeroAPI.Key != "" && cfg.AeroAPI.User == "" {
		return fmt.Errorf("aeroapi.user is required for v2 credentials")
	}

	if cfg.AeroAPI.Timeout <= 0 {
		return fmt.Errorf("aeroapi.timeout must be greater than 0")
	}

	if cfg.Cache.FlightsDir == "" || cfg.Cache.MetadataDir == "" {
		return fmt.Errorf("cache.flights_dir and cache.metadata_dir are required")
	}

	if cfg.Memo.MaxEntries < 0 {
		return fmt.Errorf("memo.max_entries must not be negative")
	}

	if cfg.Memo.TTL < 0 {
		return fmt.Errorf("memo.ttl must not be negative")
	}

	if cfg.Memo.TTL > 0 && cfg.Memo.PruneInterval <= 0 {
		return fmt.Errorf("memo.prune_interval must be greater than 0 when memo.ttl is set")
	}

	switch cfg.Source {
	case "sbs":
		if cfg.SBSAddr == "" {
			return fmt.Errorf("sbs_addr is required")
		}
	case "nats":
		if cfg.NATS.URL == "" || cfg.NATS.TracksSubject == "" {
			return fmt.Errorf("nats.url and nats.tracks_subject are required")
		}
	default:
		return fmt.Errorf("invalid source: %s (must be sbs or nats)", cfg.Source)
	}

	if cfg.Receiver.RadiusNM < 0 {
		return fmt.Errorf("receiver.radius_nm must not be negative")
	}

	if cfg.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be greater than 0")
	}

	if cfg.BatchTimeout <= 0 {
		return fmt.Errorf("batch_timeout must be greater than 0")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[cfg.Log.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", cfg.Log.Level)
	}

	validLogFormats := map[string]bool{
		"text":   true,
		"json":   true,
		"pretty": true,
	}
	if !validLogFormats[cfg.Log.Format] {
		return fmt.Errorf("invalid log format: %s (must be text, json, or pretty)", cfg.Log.Format)
	}

	return nil
}
