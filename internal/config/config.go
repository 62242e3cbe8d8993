package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Cache    CacheConfig
	Log      LogConfig
	Tile     TileConfig
	Worker   WorkerConfig
	Import   ImportConfig
}

type ServerConfig struct {
	Host        string
	Port        int
	Env         string
	CORSOrigins string
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxConns        int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	ApplicationName string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	PoolSize int
}

type CacheConfig struct {
	Enabled       bool
	TilesCacheTTL time.Duration
	KeyPrefix     string
}

type LogConfig struct {
	Level string
}

// TileConfig - параметры рендера векторных тайлов
type TileConfig struct {
	Buffer       int
	Extent       int
	Envelope     string // margin | exact
	QueryTimeout time.Duration
	Concurrency  int
	CacheControl string
}

type WorkerConfig struct {
	Enabled           bool
	ConsumerGroup     string
	StreamReadTimeout time.Duration
	BatchSize         int
	MaxTilesPerJob    int
}

type ImportConfig struct {
	BatchSize       int
	Kinds           []string
	OverpassURL     string
	OverpassTimeout time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("API_HOST", "0.0.0.0")
	v.SetDefault("API_PORT", 8080)
	v.SetDefault("API_ENV", "development")
	v.SetDefault("API_CORS_ORIGINS", "*")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", 300)
	v.SetDefault("DB_CONN_MAX_IDLE_TIME", 60)
	v.SetDefault("DB_APPLICATION_NAME", "streetmap-tiles")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_POOL_SIZE", 0)

	v.SetDefault("CACHE_ENABLED", true)
	v.SetDefault("TILES_CACHE_TTL", 3600)
	v.SetDefault("CACHE_KEY_PREFIX", "tile")

	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("TILE_BUFFER", 64)
	v.SetDefault("TILE_EXTENT", 4096)
	v.SetDefault("TILE_ENVELOPE", "margin")
	v.SetDefault("TILE_QUERY_TIMEOUT", 10000)
	v.SetDefault("TILE_CONCURRENCY", 4)
	v.SetDefault("TILE_CACHE_CONTROL", "public, max-age=900")

	v.SetDefault("WORKER_ENABLED", true)
	v.SetDefault("WORKER_CONSUMER_GROUP", "tile-seed-workers")
	v.SetDefault("WORKER_STREAM_READ_TIMEOUT", 5000)
	v.SetDefault("WORKER_BATCH_SIZE", 10)
	v.SetDefault("WORKER_MAX_TILES_PER_JOB", 50000)

	v.SetDefault("IMPORT_BATCH_SIZE", 1000)
	v.SetDefault("IMPORT_KINDS", "highways,boundaries,islands")
	v.SetDefault("IMPORT_OVERPASS_URL", "https://overpass-api.de/api/interpreter")
	v.SetDefault("IMPORT_OVERPASS_TIMEOUT", 900)
}

// Load читает .env (если есть) и переменные окружения.
// Переменные окружения имеют приоритет над .env.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:        v.GetString("API_HOST"),
			Port:        v.GetInt("API_PORT"),
			Env:         v.GetString("API_ENV"),
			CORSOrigins: v.GetString("API_CORS_ORIGINS"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetInt("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			DBName:          v.GetString("DB_NAME"),
			SSLMode:         v.GetString("DB_SSLMODE"),
			MaxConns:        v.GetInt("DB_MAX_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: time.Duration(v.GetInt("DB_CONN_MAX_LIFETIME")) * time.Second,
			ConnMaxIdleTime: time.Duration(v.GetInt("DB_CONN_MAX_IDLE_TIME")) * time.Second,
			ApplicationName: v.GetString("DB_APPLICATION_NAME"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			PoolSize: v.GetInt("REDIS_POOL_SIZE"),
		},
		Cache: CacheConfig{
			Enabled:       v.GetBool("CACHE_ENABLED"),
			TilesCacheTTL: time.Duration(v.GetInt("TILES_CACHE_TTL")) * time.Second,
			KeyPrefix:     v.GetString("CACHE_KEY_PREFIX"),
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
		Tile: TileConfig{
			Buffer:       v.GetInt("TILE_BUFFER"),
			Extent:       v.GetInt("TILE_EXTENT"),
			Envelope:     v.GetString("TILE_ENVELOPE"),
			QueryTimeout: time.Duration(v.GetInt("TILE_QUERY_TIMEOUT")) * time.Millisecond,
			Concurrency:  v.GetInt("TILE_CONCURRENCY"),
			CacheControl: v.GetString("TILE_CACHE_CONTROL"),
		},
		Worker: WorkerConfig{
			Enabled:           v.GetBool("WORKER_ENABLED"),
			ConsumerGroup:     v.GetString("WORKER_CONSUMER_GROUP"),
			StreamReadTimeout: time.Duration(v.GetInt("WORKER_STREAM_READ_TIMEOUT")) * time.Millisecond,
			BatchSize:         v.GetInt("WORKER_BATCH_SIZE"),
			MaxTilesPerJob:    v.GetInt("WORKER_MAX_TILES_PER_JOB"),
		},
		Import: ImportConfig{
			BatchSize:       v.GetInt("IMPORT_BATCH_SIZE"),
			Kinds:           ParseList(v.GetString("IMPORT_KINDS")),
			OverpassURL:     v.GetString("IMPORT_OVERPASS_URL"),
			OverpassTimeout: time.Duration(v.GetInt("IMPORT_OVERPASS_TIMEOUT")) * time.Second,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет значения, без которых сервис не стартует
func (c *Config) Validate() error {
	if c.Tile.Buffer <= 0 || c.Tile.Extent <= 0 {
		return fmt.Errorf("TILE_BUFFER and TILE_EXTENT must be positive")
	}
	if c.Tile.Envelope != "margin" && c.Tile.Envelope != "exact" {
		return fmt.Errorf("TILE_ENVELOPE must be margin or exact, got %q", c.Tile.Envelope)
	}
	if c.Tile.Concurrency <= 0 {
		return fmt.Errorf("TILE_CONCURRENCY must be positive")
	}
	if c.Worker.MaxTilesPerJob <= 0 {
		return fmt.Errorf("WORKER_MAX_TILES_PER_JOB must be positive")
	}
	return nil
}

// ParseList разбирает список через запятую, пропуская пустые элементы
func ParseList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) GetDatabaseDSN() string {
	return c.Database.DSN()
}

// DSN возвращает строку подключения в формате key=value
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// GetDatabaseURL возвращает DSN в формате URL (нужен для миграций)
func (c *Config) GetDatabaseURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port),
		Path:     c.Database.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.Database.SSLMode),
	}
	return u.String()
}

func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
