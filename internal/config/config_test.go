package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("STORE_DRIVER", "SQLite")
	t.Setenv("DATABASE_URL", "file::memory:")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("INBOX_CACHE_TTL", "45s")
	t.Setenv("ENFORCE_THREAD_PARTICIPANTS", "true")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.StoreDriver)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 45*time.Second, cfg.InboxCacheTTL)
	assert.True(t, cfg.EnforceThreadACL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Brokers())
	assert.Equal(t, "rental.messages", cfg.KafkaTopic)
}

func TestLoad_FromEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "STORE_DRIVER=mongo\nMONGODB_URI=mongodb://localhost:27017\nJWT_SECRET=file-secret\nPORT=9090\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DriverMongo, cfg.StoreDriver)
	assert.Equal(t, "rentals", cfg.MongoDatabase)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "file-secret", cfg.JWTSecret)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{StoreDriver: DriverPostgres, DatabaseURL: "postgres://x", JWTSecret: "s"}
	}

	cfg := base()
	assert.NoError(t, cfg.Validate())

	cfg = base()
	cfg.StoreDriver = "cassandra"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.DatabaseURL = ""
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.JWTSecret = ""
	assert.Error(t, cfg.Validate())

	cfg = Config{StoreDriver: DriverMongo, JWTSecret: "s", MongoDatabase: "rentals"}
	assert.Error(t, cfg.Validate())
}
