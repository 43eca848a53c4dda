package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"polcoord/internal/domain"
)

// Questionnaire sources.
const (
	SourceConfig   = "config"
	SourcePostgres = "postgres"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Log LogConfig `yaml:"log"`
	DB  struct {
		Path string `yaml:"path"`
	} `yaml:"db"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Questionnaire struct {
		Source string `yaml:"source"`
		ID     string `yaml:"id"`
		TTL    string `yaml:"ttl"`
	} `yaml:"questionnaire"`
	Report struct {
		PDFFont string `yaml:"pdf_font"`
	} `yaml:"report"`

	Questions    []domain.Question `yaml:"questions"`
	Options      OrderedOptions    `yaml:"options"`
	Sexes        []string          `yaml:"sexes"`
	Directions   []string          `yaml:"directions"`
	Universities []string          `yaml:"universities"`
	Courses      []string          `yaml:"courses"`
}

// LogConfig controls the zap logger and its optional rotating file sink.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// OrderedOptions decodes the `options` mapping keeping document order.
type OrderedOptions domain.Options

func (o *OrderedOptions) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("options: expected mapping, got line %d", node.Line)
	}
	out := make(OrderedOptions, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var weight float64
		if err := node.Content[i+1].Decode(&weight); err != nil {
			return fmt.Errorf("options: %q: %w", node.Content[i].Value, err)
		}
		out = append(out, domain.Option{Label: node.Content[i].Value, Weight: weight})
	}
	*o = out
	return nil
}

// Load reads YAML config from path, then applies .env and environment overrides.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	// A missing .env is the normal case.
	_ = godotenv.Load()
	cfg.applyEnvOverrides()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("POLCOORD_DB_PATH"); v != "" {
		c.DB.Path = v
	}
	if v := os.Getenv("POLCOORD_REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("POLCOORD_REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Redis.DB = n
		}
	}
	if v := os.Getenv("POLCOORD_POSTGRES_URL"); v != "" {
		c.Postgres.URL = v
	}
	if v := os.Getenv("POLCOORD_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
}

func (c *Config) applyDefaults() {
	if c.Questionnaire.Source == "" {
		c.Questionnaire.Source = SourceConfig
	}
	if c.Questionnaire.ID == "" {
		c.Questionnaire.ID = "default"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// BuildQuestionnaire assembles the quiz definition carried by the config file.
func (c Config) BuildQuestionnaire() domain.Questionnaire {
	return domain.Questionnaire{
		ID:        c.Questionnaire.ID,
		Questions: c.Questions,
		Options:   domain.Options(c.Options),
	}
}

// Validate checks only what is needed to run the store and the quiz.
func (c Config) Validate() error {
	if c.DB.Path == "" {
		return errors.New("db.path is required")
	}
	switch c.Questionnaire.Source {
	case SourceConfig:
		if err := c.BuildQuestionnaire().Validate(); err != nil {
			return fmt.Errorf("config questionnaire: %w", err)
		}
	case SourcePostgres:
		if c.Postgres.URL == "" {
			return errors.New("questionnaire.source is postgres but postgres.url is empty")
		}
	default:
		return fmt.Errorf("unknown questionnaire.source %q", c.Questionnaire.Source)
	}
	return nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
