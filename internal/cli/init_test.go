package cli

import (
	"context"
	"log/slog"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/config"
)

func backendFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("config", "", "")
	fs.String("data-backend", "", "")
	fs.String("log-level", "", "")
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoadConfigFlagBeatsEnvironment(t *testing.T) {
	t.Setenv("DATA_BACKEND", "sqlite")

	cfg, err := LoadConfig(backendFlags(t, "--data-backend", "memory"))
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.DataBackend)

	cfg, err = LoadConfig(backendFlags(t))
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.DataBackend)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	_, err := LoadConfig(backendFlags(t, "--data-backend", "ftp", "--log-level", "loud"))
	require.Error(t, err)
	assert.ErrorContains(t, err, "invalid data backend")
	assert.ErrorContains(t, err, "invalid log level")
}

func TestSetupLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger, err := SetupLogger(&config.Config{LogLevel: "debug", LogFormat: "json"})
	require.NoError(t, err)
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))

	_, err = SetupLogger(&config.Config{LogLevel: "verbose"})
	assert.Error(t, err)
}

func TestOpenStoreAndPublisher(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	cfg, err := LoadConfig(backendFlags(t, "--data-backend", "memory"))
	require.NoError(t, err)
	logger, err := SetupLogger(cfg)
	require.NoError(t, err)

	result, err := OpenStore(context.Background(), cfg, logger)
	require.NoError(t, err)
	require.NotNil(t, result.Store)

	tbl, err := result.Store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tbl)

	cfg.AMQPURL = ""
	assert.Nil(t, OpenPublisher(cfg, logger))
}
