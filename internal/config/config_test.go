package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutEnvFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DB_NAME", "osm")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "osm", cfg.Database.DBName)
	assert.Equal(t, 64, cfg.Tile.Buffer)
	assert.Equal(t, 4096, cfg.Tile.Extent)
	assert.Equal(t, "margin", cfg.Tile.Envelope)
	assert.Equal(t, 10*time.Second, cfg.Tile.QueryTimeout)
	assert.Equal(t, time.Hour, cfg.Cache.TilesCacheTTL)
	assert.Equal(t, "tile-seed-workers", cfg.Worker.ConsumerGroup)
	assert.Equal(t, []string{"highways", "boundaries", "islands"}, cfg.Import.Kinds)
	assert.Equal(t, "https://overpass-api.de/api/interpreter", cfg.Import.OverpassURL)
	assert.Equal(t, 15*time.Minute, cfg.Import.OverpassTimeout)
	assert.Equal(t, "streetmap-tiles", cfg.Database.ApplicationName)
	assert.Zero(t, cfg.Redis.PoolSize)
}

func TestLoad_EnvFileAndOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	content := "API_PORT=9000\nTILE_ENVELOPE=exact\nTILE_BUFFER=256\nTILES_CACHE_TTL=60\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o600))
	t.Setenv("TILE_BUFFER", "128")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "exact", cfg.Tile.Envelope)
	assert.Equal(t, 128, cfg.Tile.Buffer)
	assert.Equal(t, time.Minute, cfg.Cache.TilesCacheTTL)
}

func TestLoad_InvalidEnvelope(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TILE_ENVELOPE", "loose")

	_, err := Load()
	assert.Error(t, err)
}

func TestParseList(t *testing.T) {
	assert.Nil(t, ParseList(""))
	assert.Equal(t, []string{"a", "b"}, ParseList(" a, ,b "))
}

func TestConfig_GetDatabaseURL(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{
		Host:     "db",
		Port:     5432,
		User:     "osm",
		Password: "p@ss",
		DBName:   "tiles",
		SSLMode:  "disable",
	}}

	assert.Equal(t, "postgres://osm:p%40ss@db:5432/tiles?sslmode=disable", cfg.GetDatabaseURL())
	assert.Equal(t, "host=db port=5432 user=osm password=p@ss dbname=tiles sslmode=disable", cfg.GetDatabaseDSN())
}
