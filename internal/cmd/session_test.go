package cmd

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runger/heroes/internal/backend"
	"github.com/runger/heroes/internal/config"
	"github.com/runger/heroes/internal/ipc"
)

func TestNewGateway(t *testing.T) {
	dir := t.TempDir()
	paths := &config.Paths{
		ConfigDir:        filepath.Join(dir, "config"),
		DataDir:          filepath.Join(dir, "data"),
		RuntimeDir:       filepath.Join(dir, "run"),
		DatabaseOverride: filepath.Join(dir, "heroes.db"),
	}
	ctx := context.Background()

	t.Run("local", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Client.Backend = config.BackendLocal

		gw, closeFn, err := newGateway(ctx, cfg, paths, nil)
		require.NoError(t, err)
		require.NotNil(t, closeFn)
		defer closeFn()
		assert.IsType(t, &backend.Local{}, gw)

		heroes, err := gw.FetchAll(ctx)
		require.NoError(t, err)
		assert.Len(t, heroes, 9)
	})

	t.Run("local honours match mode", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Client.Backend = config.BackendLocal
		cfg.Search.Match = "prefix"
		p := *paths
		p.DatabaseOverride = filepath.Join(dir, "prefix.db")

		gw, closeFn, err := newGateway(ctx, cfg, &p, nil)
		require.NoError(t, err)
		defer closeFn()

		heroes, err := gw.FetchMatching(ctx, "ma")
		require.NoError(t, err)
		for _, h := range heroes {
			assert.True(t, strings.HasPrefix(strings.ToLower(h.Name), "ma"), h.Name)
		}
		assert.Len(t, heroes, 2)
	})

	t.Run("http", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Client.Backend = config.BackendHTTP

		gw, closeFn, err := newGateway(ctx, cfg, paths, nil)
		require.NoError(t, err)
		assert.Nil(t, closeFn)
		assert.IsType(t, &backend.HTTP{}, gw)
	})

	t.Run("http bad url", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Client.Backend = config.BackendHTTP
		cfg.Client.BaseURL = "://nope"

		_, _, err := newGateway(ctx, cfg, paths, nil)
		assert.Error(t, err)
	})

	t.Run("grpc", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Client.AutoStartDaemon = false

		gw, closeFn, err := newGateway(ctx, cfg, paths, nil)
		require.NoError(t, err)
		require.NotNil(t, closeFn)
		defer closeFn()
		assert.IsType(t, &ipc.Client{}, gw)
	})
}

func TestSession_ClosePrintsStatus(t *testing.T) {
	withTestEnv(t)
	quiet = false

	s, err := openSession(context.Background())
	require.NoError(t, err)
	s.heroes.Heroes(context.Background())

	// Close writes to stderr; check the lines it would print.
	var b strings.Builder
	printStatus(&b, s.status.Messages())
	assert.Equal(t, "fetched heroes\n", b.String())
	s.Close()
}

func TestLoadConfig_FlagOverridesDefault(t *testing.T) {
	env := withTestEnv(t)

	cfg, paths, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, config.BackendLocal, cfg.Client.Backend)
	assert.Equal(t, env.dbPath, paths.DatabaseFile())
}

func TestNewLogger_Level(t *testing.T) {
	withTestEnv(t)

	assert.False(t, newLogger().Enabled(context.Background(), -4))
	debug = true
	assert.True(t, newLogger().Enabled(context.Background(), -4))
}
