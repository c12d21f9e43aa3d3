package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultServerAddr     = ":8112"
	DefaultGRPCAddr       = ":8113"
	DefaultCatalog        = "data/catalog.yaml"
	DefaultCadence        = 5 * time.Second
	DefaultCooldownFactor = 3
	DefaultIdleTimeout    = 2 * time.Minute
	DefaultReloadDebounce = 250 * time.Millisecond
)

// File is the optional stitch.yaml. Every field may be overridden from the
// environment; see Resolve.
type File struct {
	Version  int      `yaml:"version" json:"version"`
	Server   Server   `yaml:"server" json:"server"`
	Catalog  Catalog  `yaml:"catalog" json:"catalog"`
	Carousel Carousel `yaml:"carousel" json:"carousel"`
	Log      Log      `yaml:"log" json:"log"`
	MDNS     MDNS     `yaml:"mdns" json:"mdns"`
}

type Server struct {
	Addr     string `yaml:"addr,omitempty" json:"addr,omitempty"`
	GRPCAddr string `yaml:"grpc_addr,omitempty" json:"grpc_addr,omitempty"`
}

type Catalog struct {
	Source string `yaml:"source,omitempty" json:"source,omitempty"`
	Watch  *bool  `yaml:"watch,omitempty" json:"watch,omitempty"`
}

type Carousel struct {
	Cadence        Duration `yaml:"cadence,omitempty" json:"cadence,omitempty"`
	CooldownFactor int      `yaml:"cooldown_factor,omitempty" json:"cooldown_factor,omitempty"`
	IdleTimeout    Duration `yaml:"idle_timeout,omitempty" json:"idle_timeout,omitempty"`
}

type Log struct {
	Level  string `yaml:"level,omitempty" json:"level,omitempty"`
	Format string `yaml:"format,omitempty" json:"format,omitempty"`
	File   string `yaml:"file,omitempty" json:"file,omitempty"`
}

type MDNS struct {
	Enable   *bool  `yaml:"enable,omitempty" json:"enable,omitempty"`
	Instance string `yaml:"instance,omitempty" json:"instance,omitempty"`
}

// Duration decodes from Go duration strings such as "5s" or "1m30s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid duration %q", raw)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read config file %q: %w", path, err)
	}

	return Parse(data, path)
}

func Parse(data []byte, source string) (File, error) {
	var cfg File

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse YAML in %q: %w", source, err)
	}
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return cfg, fmt.Errorf("invalid config in %q: %s", source, strings.Join(errs, "; "))
	}
	return cfg, nil
}

func (cfg File) Validate() []string {
	var errs []string

	if cfg.Version != 1 {
		errs = append(errs, fmt.Sprintf("unsupported config version %d", cfg.Version))
	}
	if cfg.Carousel.Cadence < 0 {
		errs = append(errs, "carousel.cadence must be > 0")
	}
	if cfg.Carousel.CooldownFactor < 0 {
		errs = append(errs, "carousel.cooldown_factor must be >= 1")
	}
	if cfg.Carousel.IdleTimeout < 0 {
		errs = append(errs, "carousel.idle_timeout must be > 0")
	}
	if lvl := strings.TrimSpace(cfg.Log.Level); lvl != "" && !slices.Contains([]string{"debug", "info", "warn", "error"}, strings.ToLower(lvl)) {
		errs = append(errs, fmt.Sprintf("log.level must be one of debug,info,warn,error (got %q)", lvl))
	}
	if f := strings.TrimSpace(cfg.Log.Format); f != "" && !slices.Contains([]string{"text", "json"}, strings.ToLower(f)) {
		errs = append(errs, fmt.Sprintf("log.format must be one of text,json (got %q)", f))
	}
	if cfg.Server.Addr != "" && cfg.Server.Addr == cfg.Server.GRPCAddr {
		errs = append(errs, "server.addr and server.grpc_addr must differ")
	}
	return errs
}

// Settings is the resolved runtime configuration.
type Settings struct {
	ServerAddr     string
	GRPCAddr       string
	CatalogSource  string
	WatchCatalog   bool
	Cadence        time.Duration
	CooldownFactor int
	IdleTimeout    time.Duration
	LogLevel       string
	LogFormat      string
	LogFile        string
	MDNSEnable     bool
	MDNSInstance   string
}

// Resolve loads the file named by STITCH_CONFIG (if any), applies
// environment overrides and fills defaults.
func Resolve() (Settings, error) {
	var cfg File
	if path := strings.TrimSpace(os.Getenv("STITCH_CONFIG")); path != "" {
		loaded, err := Load(path)
		if err != nil {
			return Settings{}, err
		}
		cfg = loaded
	}
	return cfg.Settings()
}

func (cfg File) Settings() (Settings, error) {
	s := Settings{
		ServerAddr:     envOrDefault("STITCH_SERVER_ADDR", orDefault(cfg.Server.Addr, DefaultServerAddr)),
		GRPCAddr:       envOrDefault("STITCH_GRPC_ADDR", orDefault(cfg.Server.GRPCAddr, DefaultGRPCAddr)),
		CatalogSource:  envOrDefault("STITCH_CATALOG", orDefault(cfg.Catalog.Source, DefaultCatalog)),
		WatchCatalog:   boolOrDefault(cfg.Catalog.Watch, true),
		Cadence:        DefaultCadence,
		CooldownFactor: DefaultCooldownFactor,
		IdleTimeout:    DefaultIdleTimeout,
		LogLevel:       strings.ToLower(envOrDefault("STITCH_LOG_LEVEL", orDefault(cfg.Log.Level, "info"))),
		LogFormat:      strings.ToLower(envOrDefault("STITCH_LOG_FORMAT", orDefault(cfg.Log.Format, "text"))),
		LogFile:        envOrDefault("STITCH_LOG_FILE", cfg.Log.File),
		MDNSEnable:     boolOrDefault(cfg.MDNS.Enable, true),
		MDNSInstance:   envOrDefault("STITCH_MDNS_INSTANCE", cfg.MDNS.Instance),
	}
	if cfg.Carousel.Cadence > 0 {
		s.Cadence = time.Duration(cfg.Carousel.Cadence)
	}
	if cfg.Carousel.CooldownFactor > 0 {
		s.CooldownFactor = cfg.Carousel.CooldownFactor
	}
	if cfg.Carousel.IdleTimeout > 0 {
		s.IdleTimeout = time.Duration(cfg.Carousel.IdleTimeout)
	}

	var errs []string
	if raw := strings.TrimSpace(os.Getenv("STITCH_CAROUSEL_CADENCE")); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			errs = append(errs, fmt.Sprintf("STITCH_CAROUSEL_CADENCE invalid duration %q", raw))
		} else {
			s.Cadence = d
		}
	}
	if raw := strings.TrimSpace(os.Getenv("STITCH_CAROUSEL_COOLDOWN_FACTOR")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			errs = append(errs, fmt.Sprintf("STITCH_CAROUSEL_COOLDOWN_FACTOR must be a positive integer (got %q)", raw))
		} else {
			s.CooldownFactor = n
		}
	}
	if raw := strings.TrimSpace(os.Getenv("STITCH_CATALOG_WATCH")); raw != "" {
		s.WatchCatalog = raw != "false"
	}
	if raw := strings.TrimSpace(os.Getenv("STITCH_MDNS_ENABLE")); raw != "" {
		s.MDNSEnable = raw != "false"
	}
	if len(errs) > 0 {
		return s, fmt.Errorf("invalid environment: %s", strings.Join(errs, "; "))
	}
	return s, nil
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return strings.TrimSpace(v)
}

func boolOrDefault(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}
