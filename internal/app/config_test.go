package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	req := require.New(t)

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	req.NoError(err)
	req.Equal("8080", cfg.Port)
	req.Equal(60*time.Second, cfg.GracePeriod)
	req.Equal(2*time.Second, cfg.DedupWindow)
	req.Equal(64, cfg.DedupDepth)
	req.False(cfg.IsProd())
	req.Empty(cfg.AllowedOrigins())
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	req := require.New(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("ROOM_GRACE_PERIOD", "90s")
	t.Setenv("CLIENT_URL", "http://localhost:3000, https://draw.example")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	req.NoError(err)
	req.True(cfg.IsProd())
	req.Equal(90*time.Second, cfg.GracePeriod)
	req.Equal([]string{"http://localhost:3000", "https://draw.example"}, cfg.AllowedOrigins())
}

func TestLoadConfigDotEnvDoesNotOverride(t *testing.T) {
	req := require.New(t)
	dotenv := filepath.Join(t.TempDir(), ".env")
	req.NoError(os.WriteFile(dotenv, []byte("DEDUP_DEPTH=8\nPORT=9000\n"), 0o600))
	t.Setenv("PORT", "7000")
	t.Cleanup(func() { os.Unsetenv("DEDUP_DEPTH") })

	cfg, err := LoadConfig(dotenv)
	req.NoError(err)
	req.Equal(8, cfg.DedupDepth)
	req.Equal("7000", cfg.Port)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	t.Setenv("ROOM_GRACE_PERIOD", "0s")
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	req := require.New(t)

	log, err := NewLogger(Config{Env: "dev", LogLevel: "debug", LogFile: filepath.Join(t.TempDir(), "app.log")})
	req.NoError(err)
	log.Info("hello")

	_, err = NewLogger(Config{LogLevel: "loud"})
	req.Error(err)
}
