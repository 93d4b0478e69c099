package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestFromViper_ParsesAndDefaults(t *testing.T) {
	v := newViper()
	v.Set("retries", 3)
	v.Set("period", 60)
	v.Set("header", []string{"Server: nginx", "bogus", "X-Env :  prod "})
	v.Set("contains", "Welcome")
	v.Set("public_api_keys", "pub_a, pub_b,")
	v.Set("alert_cooldown_ms", 1500)

	cfg, err := FromViper(v, []string{"https://example.com"})
	if err != nil {
		t.Fatalf("FromViper: %v", err)
	}

	if cfg.Workers != 50 || cfg.Timeout != 5*time.Second {
		t.Fatalf("defaults wrong: %+v", cfg)
	}
	if cfg.MaxRetries != 3 || cfg.Period != time.Minute {
		t.Fatalf("retries/period wrong: %+v", cfg)
	}
	if len(cfg.Headers) != 2 || cfg.Headers[1] != (HeaderRule{Name: "X-Env", Value: "prod"}) {
		t.Fatalf("headers wrong: %+v", cfg.Headers)
	}
	if len(cfg.PublicAPIKeys) != 2 || cfg.PublicAPIKeys[1] != "pub_b" {
		t.Fatalf("public keys wrong: %+v", cfg.PublicAPIKeys)
	}
	if cfg.AlertCooldown != 1500*time.Millisecond {
		t.Fatalf("cooldown wrong: %v", cfg.AlertCooldown)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestFromViper_PeriodAbsentMeansOnce(t *testing.T) {
	cfg, err := FromViper(newViper(), []string{"https://a"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Period != 0 {
		t.Fatalf("want zero period, got %v", cfg.Period)
	}
}

func TestFromViper_FileURLsBeforeArgs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.txt")
	body := "# comment\nhttps://one\n\n   \nhttps://two  \n#https://skipped\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	v := newViper()
	v.Set("file", path)

	cfg, err := FromViper(v, []string{"https://three", "https://one"})
	if err != nil {
		t.Fatalf("FromViper: %v", err)
	}
	want := []string{"https://one", "https://two", "https://three", "https://one"}
	if len(cfg.URLs) != len(want) {
		t.Fatalf("want %v, got %v", want, cfg.URLs)
	}
	for i := range want {
		if cfg.URLs[i] != want[i] {
			t.Fatalf("want %v, got %v", want, cfg.URLs)
		}
	}
}

func TestFromViper_MissingFile(t *testing.T) {
	v := newViper()
	v.Set("file", filepath.Join(t.TempDir(), "nope.txt"))
	if _, err := FromViper(v, nil); err == nil {
		t.Fatal("want error for missing url file")
	}
}

func TestValidate_NoURLs(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); !errors.Is(err, ErrNoURLs) {
		t.Fatalf("want ErrNoURLs, got %v", err)
	}
}

func TestValidate_RejectsBadValues(t *testing.T) {
	cases := map[string]func(*Config){
		"workers": func(c *Config) { c.Workers = 0 },
		"timeout": func(c *Config) { c.Timeout = 0 },
		"retries": func(c *Config) { c.MaxRetries = -1 },
		"level":   func(c *Config) { c.LogLevel = "loud" },
		"url":     func(c *Config) { c.URLs = append(c.URLs, "") },
	}
	for name, mutate := range cases {
		cfg := Defaults()
		cfg.URLs = []string{"https://a"}
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: want validation error", name)
		}
	}
}

func TestParseHeader(t *testing.T) {
	r, ok := ParseHeader("Content-Type: text/html; charset=utf-8")
	if !ok || r.Name != "Content-Type" || r.Value != "text/html; charset=utf-8" {
		t.Fatalf("unexpected %+v %v", r, ok)
	}
	if _, ok := ParseHeader("no colon"); ok {
		t.Fatal("want rejection without colon")
	}
	if _, ok := ParseHeader(" : value"); ok {
		t.Fatal("want rejection of empty name")
	}
}
