package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del motor.
type Config struct {
	Simulation SimulationConfig `yaml:"simulation"`
	API        APIConfig        `yaml:"api"`
	Storage    StorageConfig    `yaml:"storage"`
	Log        LogConfig        `yaml:"log"`
}

// SimulationConfig controla el runner y los valores por defecto de cada run.
type SimulationConfig struct {
	Workers         int     `yaml:"workers"`          // 0 = runtime.NumCPU()
	DefaultTrials   int     `yaml:"default_trials"`   // trials si la petición no trae
	MaxSteps        int     `yaml:"max_steps"`        // guard por trial, 0 = derivado de (i, n, j)
	Seed            uint64  `yaml:"seed"`             // 0 = semilla aleatoria por run
	TimeoutSeconds  int     `yaml:"timeout_seconds"`  // 0 = sin límite
	DynamicPolicy   string  `yaml:"dynamic_policy"`   // proportional | martingale
	DynamicFraction float64 `yaml:"dynamic_fraction"` // fracción del colchón apostada (proportional)
}

// APIConfig controla el servidor HTTP.
type APIConfig struct {
	ListenAddr     string   `yaml:"listen_addr"`
	MaxTrials      int      `yaml:"max_trials"`
	RatePerSec     float64  `yaml:"rate_per_sec"` // 0 = default, negativo = sin límite
	Burst          int      `yaml:"burst"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// StorageConfig controla dónde se persiste el historial de runs.
type StorageConfig struct {
	Driver        string `yaml:"driver"` // sqlite | postgres | none
	DSN           string `yaml:"dsn"`    // ruta SQLite, ":memory:" o URL postgres
	RetentionDays int    `yaml:"retention_days"` // 0 = default, negativo = no purgar
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Si el YAML no existe se usan los defaults; las variables de entorno siempre
// tienen prioridad.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
			}
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	setDefaults(&cfg)

	return &cfg, nil
}

// Timeout devuelve el límite de tiempo por run como time.Duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Simulation.TimeoutSeconds) * time.Second
}

// Retention devuelve cuánto tiempo se conservan los runs persistidos.
// 0 significa no purgar.
func (c *Config) Retention() time.Duration {
	if c.Storage.RetentionDays < 0 {
		return 0
	}
	return time.Duration(c.Storage.RetentionDays) * 24 * time.Hour
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("RUIN_LISTEN_ADDR"); v != "" {
		cfg.API.ListenAddr = v
	}
	if v := os.Getenv("RUIN_STORAGE_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("RUIN_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RUIN_WORKERS: %w", err)
		}
		cfg.Simulation.Workers = n
	}
	return nil
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Simulation.DefaultTrials <= 0 {
		cfg.Simulation.DefaultTrials = 10_000
	}
	if cfg.Simulation.DynamicPolicy == "" {
		cfg.Simulation.DynamicPolicy = "proportional"
	}
	if cfg.Simulation.DynamicFraction <= 0 || cfg.Simulation.DynamicFraction > 1 {
		cfg.Simulation.DynamicFraction = 0.5
	}
	if cfg.API.ListenAddr == "" {
		cfg.API.ListenAddr = ":8080"
	}
	if cfg.API.MaxTrials <= 0 {
		cfg.API.MaxTrials = 1_000_000
	}
	if cfg.API.RatePerSec == 0 {
		cfg.API.RatePerSec = 5
	}
	if cfg.API.Burst <= 0 {
		cfg.API.Burst = 10
	}
	if len(cfg.API.AllowedOrigins) == 0 {
		cfg.API.AllowedOrigins = []string{"*"}
	}
	cfg.Storage.Driver = strings.ToLower(cfg.Storage.Driver)
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "sqlite"
	}
	if cfg.Storage.DSN == "" && cfg.Storage.Driver == "sqlite" {
		cfg.Storage.DSN = "ruin.db"
	}
	if cfg.Storage.RetentionDays == 0 {
		cfg.Storage.RetentionDays = 30
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
