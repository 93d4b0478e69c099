package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/hamed0406/sitecheck/internal/config"
)

func parse(t *testing.T, args ...string) (config.Config, error) {
	t.Helper()
	v := viper.New()
	cmd := newCommand(v)
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return loadConfig(cmd, v, cmd.Flags().Args())
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := parse(t, "https://example.com")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Workers != 50 || cfg.Timeout != 5*time.Second || cfg.MaxRetries != 1 || cfg.Period != 0 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if len(cfg.URLs) != 1 || cfg.URLs[0] != "https://example.com" {
		t.Fatalf("unexpected urls %v", cfg.URLs)
	}
}

func TestLoadConfig_Flags(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "urls.txt")
	if err := os.WriteFile(file, []byte("# list\nhttps://a.example\n\nhttps://b.example\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := parse(t,
		"-n", "8", "-t", "2", "-r", "3", "-p", "10",
		"-f", file,
		"-H", "X-Env: prod, eu", "-H", "Server: nginx",
		"--contains", "ok",
		"https://c.example",
	)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Workers != 8 || cfg.Timeout != 2*time.Second || cfg.MaxRetries != 3 || cfg.Period != 10*time.Second {
		t.Fatalf("unexpected numbers %+v", cfg)
	}
	want := []string{"https://a.example", "https://b.example", "https://c.example"}
	if len(cfg.URLs) != len(want) {
		t.Fatalf("urls = %v want %v", cfg.URLs, want)
	}
	for i := range want {
		if cfg.URLs[i] != want[i] {
			t.Fatalf("urls = %v want %v", cfg.URLs, want)
		}
	}
	if len(cfg.Headers) != 2 || cfg.Headers[0].Name != "X-Env" || cfg.Headers[0].Value != "prod, eu" {
		t.Fatalf("unexpected headers %+v", cfg.Headers)
	}
	if cfg.Contains != "ok" {
		t.Fatalf("contains = %q", cfg.Contains)
	}
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("SITECHECK_THREADS", "3")
	t.Setenv("SITECHECK_ADMIN_API_KEYS", "a1, a2")
	cfg, err := parse(t, "https://example.com")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Workers != 3 {
		t.Fatalf("env threads not applied: %d", cfg.Workers)
	}
	if len(cfg.AdminAPIKeys) != 2 || cfg.AdminAPIKeys[1] != "a2" {
		t.Fatalf("admin keys = %v", cfg.AdminAPIKeys)
	}
}

func TestLoadConfig_NoURLs(t *testing.T) {
	if _, err := parse(t); !errors.Is(err, config.ErrNoURLs) {
		t.Fatalf("want ErrNoURLs, got %v", err)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := parse(t, "-f", filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
