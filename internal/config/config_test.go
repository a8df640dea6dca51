package config_test

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/nfrecon/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Empty(t, cfg.Store.LedgerFixture)
	assert.Equal(t, "postgres", cfg.Fingerprint.Backend)
	assert.Equal(t, 20*time.Second, cfg.OCR.Timeout)
	assert.Equal(t, slog.LevelInfo, cfg.Log.Level)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("OCR_TIMEOUT", "3s")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DB_USER", "recon")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_NAME", "nf")
	t.Setenv("STORE_LEDGER_FIXTURE", "ledger.json")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.App.Port)
	assert.Equal(t, 3*time.Second, cfg.OCR.Timeout)
	assert.Equal(t, slog.LevelDebug, cfg.Log.Level)
	assert.Equal(t, "postgres://recon:secret@db:5432/nf?sslmode=disable", cfg.ConnectionString())
	assert.Equal(t, "ledger.json", cfg.Store.LedgerFixture)
}
