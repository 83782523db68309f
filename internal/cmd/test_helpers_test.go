package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// testEnv is a throwaway heroes installation: XDG directories, a config
// file selecting the local backend, and a seeded database.
type testEnv struct {
	dir        string
	configPath string
	dbPath     string
}

// withTestEnv points the CLI at a fresh local-backend installation and
// resets the global flags around the test.
func withTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	env := &testEnv{
		dir:        dir,
		configPath: filepath.Join(dir, "config", "config.yaml"),
		dbPath:     filepath.Join(dir, "data", "heroes.db"),
	}

	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg-config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "xdg-data"))
	t.Setenv("XDG_RUNTIME_DIR", filepath.Join(dir, "xdg-run"))
	for _, key := range []string{"HEROES_BACKEND", "HEROES_BASE_URL", "HEROES_SOCKET_PATH", "HEROES_DB", "HEROES_LOG_LEVEL", "HEROES_DEBUG", "COLUMNS", "NO_COLOR"} {
		t.Setenv(key, "")
	}

	if err := os.MkdirAll(filepath.Dir(env.configPath), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	yaml := fmt.Sprintf(`client:
  backend: local
  auto_start_daemon: false
search:
  debounce_ms: 10
store:
  database_file: %s
  seed: true
`, env.dbPath)
	if err := os.WriteFile(env.configPath, []byte(yaml), 0o644); err != nil {
		t.Fatalf("WriteFile config: %v", err)
	}

	oldConfig, oldQuiet, oldDebug, oldColor := configFile, quiet, debug, colorMode
	oldJSON, oldStdin := jsonOutput, searchStdin
	configFile, quiet, debug, colorMode = env.configPath, true, false, "never"
	jsonOutput, searchStdin = false, false
	t.Cleanup(func() {
		configFile, quiet, debug, colorMode = oldConfig, oldQuiet, oldDebug, oldColor
		jsonOutput, searchStdin = oldJSON, oldStdin
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	})
	return env
}

// runCLI executes the root command with args and returns what it printed
// on stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return runCLIWithInput(t, "", args...)
}

func runCLIWithInput(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	jsonOutput, searchStdin = false, false
	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(input))

	var err error
	out := captureStdout(t, func() {
		err = rootCmd.Execute()
	})
	return out, err
}

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe() failed: %v", err)
	}
	os.Stdout = w

	outC := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		outC <- buf.String()
	}()

	fn()
	_ = w.Close()
	os.Stdout = old
	out := <-outC
	_ = r.Close()
	return out
}
