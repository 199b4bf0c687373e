package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/catalogworker/config"
	"sjsage522/catalogworker/internal/agent"
	apperrors "sjsage522/catalogworker/pkg/errors"
	"sjsage522/catalogworker/services/cache"
)

func testConfig(t *testing.T) *config.Config {
	cfg := config.LoadConfig()
	dir := t.TempDir()
	cfg.Email, cfg.Password = "buyer@example.com", "secret"
	cfg.StorePath = filepath.Join(dir, "products.json")
	cfg.FailureLogPath = filepath.Join(dir, "errors.log")
	cfg.AgentKind = "http"
	cfg.RedisAddr = ""
	cfg.MemcacheAddr = ""
	return cfg
}

func staticAgent(*config.Config) (agent.Agent, error) {
	return agent.NewDocumentAgent(agent.MapSource{}), nil
}

func TestInitializeServices(t *testing.T) {
	cfg := testConfig(t)
	cfg.MirrorDriver = "sqlite"
	cfg.MirrorDSN = filepath.Join(t.TempDir(), "mirror.db")

	s, err := InitializeServices(context.Background(), cfg, staticAgent)
	require.NoError(t, err)
	defer s.Cleanup()

	assert.NotNil(t, s.Parser)
	assert.NotNil(t, s.Mirror)
	assert.Nil(t, s.Publisher)
	assert.IsType(t, &cache.MemoryCache{}, s.Cache)
	assert.Equal(t, cfg.StorePath, s.Store.Path())
	assert.NotEmpty(t, s.Table.Version)
}

func TestInitializeServicesFailures(t *testing.T) {
	cfg := testConfig(t)
	cfg.SelectorsPath = filepath.Join(t.TempDir(), "missing.json5")
	_, err := InitializeServices(context.Background(), cfg, staticAgent)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConfiguration))

	cfg = testConfig(t)
	_, err = InitializeServices(context.Background(), cfg, func(*config.Config) (agent.Agent, error) {
		return nil, errors.New("no chrome binary")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no chrome binary")
}

func TestNewAgentHTTP(t *testing.T) {
	cfg := testConfig(t)
	a, err := NewAgent(cfg)
	require.NoError(t, err)
	assert.IsType(t, &agent.DocumentAgent{}, a)
}
