package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/alejandrodnm/pairscout/internal/discovery"
	"github.com/alejandrodnm/pairscout/internal/domain"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa de pairscout.
type Config struct {
	API       APIConfig                `yaml:"api"`
	Discovery DiscoveryConfig          `yaml:"discovery"`
	Profiles  []domain.CriteriaProfile `yaml:"profiles"` // se suman a los incluidos o los sustituyen
	Scoring   ScoringConfig            `yaml:"scoring"`
	Poller    PollerConfig             `yaml:"poller"`
	Storage   StorageConfig            `yaml:"storage"`
	Log       LogConfig                `yaml:"log"`
	Metrics   MetricsConfig            `yaml:"metrics"`
}

// APIConfig controla el acceso al proveedor de pares.
type APIConfig struct {
	BaseURL        string        `yaml:"base_url"`
	TimeoutSeconds int           `yaml:"timeout_seconds"`
	MinIntervalMS  int           `yaml:"min_interval_ms"` // separación mínima entre requests
	Breaker        BreakerConfig `yaml:"breaker"`
}

// BreakerConfig controla el circuit breaker del fetcher.
type BreakerConfig struct {
	ConsecutiveFailures uint32 `yaml:"consecutive_failures"`
	OpenTimeoutSeconds  int    `yaml:"open_timeout_seconds"`
}

// DiscoveryConfig controla el pase de descubrimiento.
type DiscoveryConfig struct {
	Strategies         []discovery.Strategy `yaml:"strategies"`
	Workers            int                  `yaml:"workers"`
	PassTimeoutSeconds int                  `yaml:"pass_timeout_seconds"`
	DefaultMaxResults  int                  `yaml:"default_max_results"`
	HistoryBuffer      int                  `yaml:"history_buffer"`
}

// ScoringConfig contiene pesos y bandas del scorer.
type ScoringConfig struct {
	Weights discovery.Weights `yaml:"weights"`
	Bands   []discovery.Band  `yaml:"bands"`
}

// PollerConfig controla el modo watch.
type PollerConfig struct {
	IntervalSeconds      int    `yaml:"interval_seconds"`
	RetentionHours       int    `yaml:"retention_hours"`
	SweepIntervalMinutes int    `yaml:"sweep_interval_minutes"`
	Profile              string `yaml:"profile"`
	MaxResults           int    `yaml:"max_results"`
}

// StorageConfig controla dónde se persiste el histórico.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// MetricsConfig controla el endpoint de Prometheus. Addr vacío = desactivado.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del .env sobreescriben los del YAML para las keys que correspondan.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return cfg, nil
}

// Parse interpreta YAML, aplica overrides de entorno y defaults, y valida.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rechaza configuraciones que no se pueden ejecutar.
func (c *Config) Validate() error {
	var errs []error
	for _, s := range c.Discovery.Strategies {
		if err := s.Validate(); err != nil {
			errs = append(errs, err)
		}
	}

	w := c.Scoring.Weights
	if w.Freshness < 0 || w.Activity < 0 || w.Momentum < 0 || w.SafetyProxy < 0 {
		errs = append(errs, errors.New("scoring weights must be non-negative"))
	}
	for _, b := range c.Scoring.Bands {
		if b.Label == "" {
			errs = append(errs, errors.New("scoring band without label"))
		}
	}

	profiles, err := c.ProfileSet()
	if err != nil {
		errs = append(errs, err)
	} else if _, err := profiles.Get(c.Poller.Profile); err != nil {
		errs = append(errs, fmt.Errorf("poller: %w", err))
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log format %q: want text or json", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config.Validate: %w", errors.Join(errs...))
	}
	return nil
}

// ProfileSet devuelve los perfiles incluidos más los configurados.
func (c *Config) ProfileSet() (domain.ProfileSet, error) {
	return domain.NewProfileSet(c.Profiles...)
}

// Timeout devuelve el timeout por request como time.Duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// MinInterval devuelve la separación mínima entre requests.
func (c *Config) MinInterval() time.Duration {
	return time.Duration(c.API.MinIntervalMS) * time.Millisecond
}

// BreakerOpenTimeout devuelve cuánto permanece abierto el breaker.
func (c *Config) BreakerOpenTimeout() time.Duration {
	return time.Duration(c.API.Breaker.OpenTimeoutSeconds) * time.Second
}

// PassTimeout devuelve el límite de un pase completo.
func (c *Config) PassTimeout() time.Duration {
	return time.Duration(c.Discovery.PassTimeoutSeconds) * time.Second
}

// PollInterval devuelve el intervalo del poller.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Poller.IntervalSeconds) * time.Second
}

// Retention devuelve la ventana de retención del registro.
func (c *Config) Retention() time.Duration {
	return time.Duration(c.Poller.RetentionHours) * time.Hour
}

// SweepInterval devuelve cada cuánto se expira el registro.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Poller.SweepIntervalMinutes) * time.Minute
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("PAIRSCOUT_DB"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("DEXSCREENER_BASE_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = "https://api.dexscreener.com/latest"
	}
	if cfg.API.TimeoutSeconds <= 0 {
		cfg.API.TimeoutSeconds = 10
	}
	if cfg.API.MinIntervalMS <= 0 {
		cfg.API.MinIntervalMS = 300 // ~200 req/min, bajo el límite público
	}
	if cfg.API.Breaker.ConsecutiveFailures == 0 {
		cfg.API.Breaker.ConsecutiveFailures = 5
	}
	if cfg.API.Breaker.OpenTimeoutSeconds <= 0 {
		cfg.API.Breaker.OpenTimeoutSeconds = 30
	}
	if len(cfg.Discovery.Strategies) == 0 {
		cfg.Discovery.Strategies = discovery.DefaultStrategies()
	}
	if cfg.Discovery.Workers <= 0 {
		cfg.Discovery.Workers = 4
	}
	if cfg.Discovery.PassTimeoutSeconds <= 0 {
		cfg.Discovery.PassTimeoutSeconds = 90
	}
	if cfg.Discovery.DefaultMaxResults <= 0 {
		cfg.Discovery.DefaultMaxResults = 15
	}
	if cfg.Discovery.HistoryBuffer <= 0 {
		cfg.Discovery.HistoryBuffer = 16
	}
	if cfg.Scoring.Weights == (discovery.Weights{}) {
		cfg.Scoring.Weights = discovery.DefaultWeights()
	}
	if len(cfg.Scoring.Bands) == 0 {
		cfg.Scoring.Bands = discovery.DefaultBands()
	}
	if cfg.Poller.IntervalSeconds <= 0 {
		cfg.Poller.IntervalSeconds = 60
	}
	if cfg.Poller.RetentionHours <= 0 {
		cfg.Poller.RetentionHours = 48
	}
	if cfg.Poller.SweepIntervalMinutes <= 0 {
		cfg.Poller.SweepIntervalMinutes = 60
	}
	if cfg.Poller.Profile == "" {
		cfg.Poller.Profile = domain.ProfileUltraFresh
	}
	if cfg.Poller.MaxResults <= 0 {
		cfg.Poller.MaxResults = 50
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "pairscout.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
