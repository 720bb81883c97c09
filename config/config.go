// Package config carrega a configuração do Eden: valores padrão, depois um arquivo
// TOML opcional e por fim variáveis de ambiente EDEN_*.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
	StoreMemory   = "memory"
)

// Duration aceita valores como "5m" no TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

type Config struct {
	HTTPAddr           string   `toml:"http_addr"`
	Store              string   `toml:"store"`
	PostgresDSN        string   `toml:"postgres_dsn"`
	MongoURI           string   `toml:"mongo_uri"`
	MongoDatabase      string   `toml:"mongo_database"`
	FlushPass          string   `toml:"flush_pass"`
	LogLevel           string   `toml:"log_level"`
	Development        bool     `toml:"development"`
	TokenCacheTTL      Duration `toml:"token_cache_ttl"`
	HoldingsMaxRetries int      `toml:"holdings_max_retries"`
}

// NewDefaultConfig devolve a configuração com todos os campos nos valores padrão.
func NewDefaultConfig() *Config {
	return &Config{
		HTTPAddr:           ":8080",
		Store:              StoreMemory,
		MongoDatabase:      "eden",
		LogLevel:           "info",
		TokenCacheTTL:      Duration{5 * time.Minute},
		HoldingsMaxRetries: 5,
	}
}

// Load monta a configuração. path vazio dispensa o arquivo TOML.
func Load(path string) (*Config, error) {
	cfg := NewDefaultConfig()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("falha ao abrir arquivo de configuração: %w", err)
		}
		defer f.Close()
		if _, err := toml.NewDecoder(f).Decode(cfg); err != nil {
			return nil, fmt.Errorf("falha ao ler %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.HTTPAddr = getEnv("EDEN_HTTP_ADDR", c.HTTPAddr)
	c.Store = getEnv("EDEN_STORE", c.Store)
	c.PostgresDSN = getEnv("EDEN_POSTGRES_DSN", c.PostgresDSN)
	c.MongoURI = getEnv("EDEN_MONGO_URI", c.MongoURI)
	c.MongoDatabase = getEnv("EDEN_MONGO_DATABASE", c.MongoDatabase)
	c.FlushPass = getEnv("EDEN_FLUSH_PASS", c.FlushPass)
	c.LogLevel = getEnv("EDEN_LOG_LEVEL", c.LogLevel)

	if v, ok := os.LookupEnv("EDEN_DEVELOPMENT"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("EDEN_DEVELOPMENT inválido: %w", err)
		}
		c.Development = b
	}
	if v, ok := os.LookupEnv("EDEN_TOKEN_CACHE_TTL"); ok {
		if err := c.TokenCacheTTL.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("EDEN_TOKEN_CACHE_TTL inválido: %w", err)
		}
	}
	c.HoldingsMaxRetries = getEnvInt("EDEN_HOLDINGS_MAX_RETRIES", c.HoldingsMaxRetries)
	return nil
}

// Validate rejeita combinações que impedem o serviço de subir.
func (c *Config) Validate() error {
	switch c.Store {
	case StorePostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("postgres_dsn é obrigatório com store = %q", c.Store)
		}
	case StoreMongo:
		if c.MongoURI == "" || c.MongoDatabase == "" {
			return fmt.Errorf("mongo_uri e mongo_database são obrigatórios com store = %q", c.Store)
		}
	case StoreMemory:
	default:
		return fmt.Errorf("store desconhecido: %q", c.Store)
	}
	if c.HoldingsMaxRetries <= 0 {
		return fmt.Errorf("holdings_max_retries deve ser positivo, recebido %d", c.HoldingsMaxRetries)
	}
	if c.TokenCacheTTL.Duration < 0 {
		return fmt.Errorf("token_cache_ttl não pode ser negativo")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		i, err := strconv.Atoi(value)
		if err == nil {
			return i
		}
	}
	return fallback
}
