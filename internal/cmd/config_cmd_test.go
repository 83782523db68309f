package cmd

import (
	"os"
	"strings"
	"testing"

	"github.com/runger/heroes/internal/config"
)

func TestConfigCmd_List(t *testing.T) {
	env := withTestEnv(t)

	out, err := runCLI(t, "config")
	if err != nil {
		t.Fatalf("config error: %v", err)
	}

	for _, key := range config.ListKeys() {
		if !strings.Contains(out, key+" = ") {
			t.Errorf("expected key %q in output:\n%s", key, out)
		}
	}
	if !strings.Contains(out, "client.backend = local") {
		t.Errorf("expected file value for client.backend, got:\n%s", out)
	}
	if !strings.Contains(out, "daemon.socket_path = (not set)") {
		t.Errorf("expected unset marker for daemon.socket_path, got:\n%s", out)
	}
	if !strings.Contains(out, "Config file: "+env.configPath) {
		t.Errorf("expected config file path, got:\n%s", out)
	}
}

func TestConfigCmd_Get(t *testing.T) {
	withTestEnv(t)

	out, err := runCLI(t, "config", "search.debounce_ms")
	if err != nil {
		t.Fatalf("config get error: %v", err)
	}
	if out != "10\n" {
		t.Errorf("config search.debounce_ms = %q, want %q", out, "10\n")
	}

	if _, err := runCLI(t, "config", "search.nope"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestConfigCmd_Set(t *testing.T) {
	env := withTestEnv(t)

	out, err := runCLI(t, "config", "search.match", "prefix")
	if err != nil {
		t.Fatalf("config set error: %v", err)
	}
	if !strings.Contains(out, "search.match = prefix") || !strings.Contains(out, "Saved to: "+env.configPath) {
		t.Errorf("unexpected set output:\n%s", out)
	}

	data, err := os.ReadFile(env.configPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "match: prefix") {
		t.Errorf("config file not updated:\n%s", data)
	}

	out, err = runCLI(t, "config", "search.match")
	if err != nil {
		t.Fatalf("config get error: %v", err)
	}
	if out != "prefix\n" {
		t.Errorf("config search.match = %q, want %q", out, "prefix\n")
	}
}

func TestConfigCmd_SetInvalid(t *testing.T) {
	env := withTestEnv(t)
	before, _ := os.ReadFile(env.configPath)

	if _, err := runCLI(t, "config", "client.backend", "carrier-pigeon"); err == nil {
		t.Fatal("expected validation error")
	}

	after, _ := os.ReadFile(env.configPath)
	if string(before) != string(after) {
		t.Error("invalid value must not be saved")
	}
}

func TestConfigCmd_BadConfigFile(t *testing.T) {
	env := withTestEnv(t)
	if err := os.WriteFile(env.configPath, []byte("client: [unclosed"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, err := runCLI(t, "list")
	if err == nil || !strings.Contains(err.Error(), "failed to load config") {
		t.Errorf("expected config load error, got %v", err)
	}
}
