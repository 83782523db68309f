package ipc

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// shortSocketPath returns a socket path short enough for sun_path.
func shortSocketPath(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "hipc")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, "heroes.sock")
}

func TestSocketExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heroes.sock")
	assert.False(t, SocketExists(path))

	require.NoError(t, os.WriteFile(path, nil, 0o600))
	assert.True(t, SocketExists(path))
}

func TestDial_RequiresPath(t *testing.T) {
	_, err := Dial("")
	assert.Error(t, err)
}

func TestDial_IsLazy(t *testing.T) {
	conn, err := Dial(filepath.Join(t.TempDir(), "nobody-home.sock"))
	require.NoError(t, err)
	assert.NoError(t, conn.Close())
}

func TestProbe(t *testing.T) {
	path := shortSocketPath(t)
	ctx := context.Background()

	assert.Error(t, Probe(ctx, path))

	ln, err := net.Listen("unix", path)
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			c.Close()
		}
	}()

	assert.NoError(t, Probe(ctx, path))
}
