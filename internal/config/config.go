package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/viper"
)

// ErrNoURLs is returned when neither arguments nor a URL file supplied a target.
var ErrNoURLs = errors.New("no URLs provided")

// HeaderRule requires a response header to carry an exact value.
type HeaderRule struct {
	Name  string
	Value string
}

type Config struct {
	Workers    int           // fixed worker pool size
	Timeout    time.Duration // per-request connect/read/write timeout
	MaxRetries int           // extra attempts after the first
	Period     time.Duration // zero runs a single round
	Headers    []HeaderRule
	Contains   string // required body substring; empty disables the body check
	URLs       []string

	LogDir   string
	LogLevel string

	Listen        string // status API address; empty disables it
	PublicAPIKeys []string
	AdminAPIKeys  []string
	PublicRPM     int
	PublicBurst   int

	DatabaseURL     string // empty keeps history in memory
	SlackWebhook    string // empty disables alerts
	AlertOnRecovery bool
	AlertCooldown   time.Duration
}

// Defaults mirrors the command line defaults.
func Defaults() Config {
	return Config{
		Workers:         50,
		Timeout:         5 * time.Second,
		MaxRetries:      1,
		LogDir:          "logs",
		LogLevel:        "info",
		PublicRPM:       120,
		PublicBurst:     60,
		AlertOnRecovery: true,
		AlertCooldown:   5 * time.Minute,
	}
}

// SetDefaults registers every key with its default so env lookups resolve.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("threads", d.Workers)
	v.SetDefault("timeout", int(d.Timeout/time.Second))
	v.SetDefault("retries", d.MaxRetries)
	v.SetDefault("period", 0)
	v.SetDefault("log_dir", d.LogDir)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("listen", "")
	v.SetDefault("public_api_keys", "")
	v.SetDefault("admin_api_keys", "")
	v.SetDefault("public_rpm", d.PublicRPM)
	v.SetDefault("public_burst", d.PublicBurst)
	v.SetDefault("database_url", "")
	v.SetDefault("slack_webhook_url", "")
	v.SetDefault("alert_on_recovery", d.AlertOnRecovery)
	v.SetDefault("alert_cooldown_ms", d.AlertCooldown.Milliseconds())
}

// FromViper builds a Config from flags and SITECHECK_* environment values.
// URLs come from the optional file first, then from positional arguments.
func FromViper(v *viper.Viper, args []string) (Config, error) {
	cfg := Config{
		Workers:         v.GetInt("threads"),
		Timeout:         time.Duration(v.GetInt("timeout")) * time.Second,
		MaxRetries:      v.GetInt("retries"),
		Period:          time.Duration(v.GetInt("period")) * time.Second,
		Contains:        v.GetString("contains"),
		LogDir:          v.GetString("log_dir"),
		LogLevel:        strings.ToLower(v.GetString("log_level")),
		Listen:          v.GetString("listen"),
		PublicAPIKeys:   splitCSV(v.GetString("public_api_keys")),
		AdminAPIKeys:    splitCSV(v.GetString("admin_api_keys")),
		PublicRPM:       v.GetInt("public_rpm"),
		PublicBurst:     v.GetInt("public_burst"),
		DatabaseURL:     v.GetString("database_url"),
		SlackWebhook:    v.GetString("slack_webhook_url"),
		AlertOnRecovery: v.GetBool("alert_on_recovery"),
		AlertCooldown:   time.Duration(v.GetInt64("alert_cooldown_ms")) * time.Millisecond,
	}

	for _, h := range v.GetStringSlice("header") {
		if rule, ok := ParseHeader(h); ok {
			cfg.Headers = append(cfg.Headers, rule)
		}
	}

	if path := v.GetString("file"); path != "" {
		urls, err := ReadURLFile(path)
		if err != nil {
			return cfg, err
		}
		cfg.URLs = append(cfg.URLs, urls...)
	}
	cfg.URLs = append(cfg.URLs, args...)

	return cfg, nil
}

// ParseHeader splits "Name: Value" on the first colon.
func ParseHeader(s string) (HeaderRule, bool) {
	name, value, ok := strings.Cut(s, ":")
	if !ok {
		return HeaderRule{}, false
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return HeaderRule{}, false
	}
	return HeaderRule{Name: name, Value: strings.TrimSpace(value)}, true
}

func (c Config) Validate() error {
	if len(c.URLs) == 0 {
		return ErrNoURLs
	}
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Workers, validation.Required, validation.Min(1)),
		validation.Field(&c.Timeout, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&c.MaxRetries, validation.Min(0)),
		validation.Field(&c.Period, validation.Min(time.Duration(0))),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.URLs, validation.Each(validation.Required)),
		validation.Field(&c.Headers, validation.Each(validation.By(validateHeaderRule))),
	)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func validateHeaderRule(value interface{}) error {
	rule, ok := value.(HeaderRule)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a HeaderRule")
	}
	if strings.TrimSpace(rule.Name) == "" {
		return validation.NewError("validation_empty_header", "header name cannot be empty")
	}
	return nil
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
