// cmd/preflight/main.go
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/hamed0406/sitecheck/internal/config"
)

func main() {
	v := viper.New()
	config.SetDefaults(v)
	v.SetEnvPrefix("SITECHECK")
	v.AutomaticEnv()

	if !preflight(v, os.Stdout, os.Stderr) {
		os.Exit(1)
	}
}

// preflight reports on the SITECHECK_* environment and returns false when
// a setting would break a deployment.
func preflight(v *viper.Viper, stdout, stderr io.Writer) bool {
	passed := true
	fail := func(msg string) {
		fmt.Fprintln(stderr, "✖", msg)
		passed = false
	}
	warn := func(msg string) { fmt.Fprintln(stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Fprintln(stdout, "✔", msg) }

	listen := strings.TrimSpace(v.GetString("listen"))
	admin := strings.TrimSpace(v.GetString("admin_api_keys"))
	pub := strings.TrimSpace(v.GetString("public_api_keys"))

	if listen == "" {
		warn("SITECHECK_LISTEN is empty; the status API is disabled.")
	} else {
		ok("SITECHECK_LISTEN=" + listen)
		if admin == "" {
			warn("SITECHECK_ADMIN_API_KEYS is empty (POST /api/shutdown will 403).")
		}
		if pub == "" && admin == "" {
			warn("no API keys set; read routes are open to anyone who can reach " + listen)
		}
	}

	// Normalize and sanity-check lists (no spaces around commas).
	for name, val := range map[string]string{"SITECHECK_ADMIN_API_KEYS": admin, "SITECHECK_PUBLIC_API_KEYS": pub} {
		if strings.Contains(val, " ") {
			warn(name + " contains spaces; use comma-separated with no spaces, e.g. key1,key2")
		}
	}

	if n := v.GetInt("threads"); n < 1 {
		fail(fmt.Sprintf("SITECHECK_THREADS=%d; need at least one worker.", n))
	} else {
		ok(fmt.Sprintf("SITECHECK_THREADS=%d", n))
	}
	if s := v.GetInt("timeout"); s < 1 {
		fail(fmt.Sprintf("SITECHECK_TIMEOUT=%d; need a timeout of at least one second.", s))
	}
	if p := v.GetInt("period"); p < 0 {
		fail(fmt.Sprintf("SITECHECK_PERIOD=%d; must be zero (run once) or positive.", p))
	}

	if v.GetString("database_url") == "" {
		warn("SITECHECK_DATABASE_URL empty; results are kept in memory only.")
	} else {
		ok("SITECHECK_DATABASE_URL present")
	}
	if v.GetString("slack_webhook_url") == "" {
		warn("SITECHECK_SLACK_WEBHOOK_URL empty; alerts are disabled.")
	} else {
		ok("SITECHECK_SLACK_WEBHOOK_URL present")
	}

	if passed {
		ok("preflight passed")
	}
	return passed
}
