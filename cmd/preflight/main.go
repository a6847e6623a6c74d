// cmd/preflight/main.go
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hamed0406/urlmonitor/internal/config"
	"github.com/hamed0406/urlmonitor/internal/repo/file"
)

type report struct {
	out, errOut io.Writer
	failed      bool
}

func (r *report) fail(msg string) { fmt.Fprintln(r.errOut, "✖", msg); r.failed = true }
func (r *report) warn(msg string) { fmt.Fprintln(r.errOut, "⚠", msg) }
func (r *report) ok(msg string)   { fmt.Fprintln(r.out, "✔", msg) }

func main() {
	r := &report{out: os.Stdout, errOut: os.Stderr}
	check(config.FromEnv(), r)
	if r.failed {
		os.Exit(1)
	}
	r.ok("preflight passed")
}

func check(cfg config.Config, r *report) {
	if strings.TrimSpace(os.Getenv("API_ADDR")) == "" && strings.TrimSpace(os.Getenv("ADDR")) == "" {
		r.warn("API_ADDR is empty; defaulting to " + cfg.Addr)
	} else {
		r.ok("API_ADDR=" + cfg.Addr)
	}

	switch cfg.StoreDriver {
	case "file":
		dir := filepath.Dir(cfg.StorePath)
		if st, err := os.Stat(dir); err != nil || !st.IsDir() {
			r.fail("STORE_PATH directory " + dir + " does not exist")
			break
		}
		r.ok(fmt.Sprintf("STORE_DRIVER=file STORE_PATH=%s (%v)", cfg.StorePath, file.FormatFor(cfg.StorePath)))
	case "memory":
		r.warn("STORE_DRIVER=memory; targets are lost on restart")
	case "postgres":
		if cfg.DatabaseURL == "" {
			r.fail("STORE_DRIVER=postgres but DATABASE_URL is empty")
			break
		}
		r.ok("DATABASE_URL present")
	case "sqlite":
		r.ok("STORE_DRIVER=sqlite SQLITE_PATH=" + cfg.SQLitePath)
	case "redis":
		if cfg.RedisAddr == "" {
			r.fail("STORE_DRIVER=redis but REDIS_ADDR is empty")
			break
		}
		r.ok("REDIS_ADDR=" + cfg.RedisAddr)
	default:
		r.fail("unknown STORE_DRIVER " + cfg.StoreDriver + " (want file, memory, postgres, sqlite or redis)")
	}

	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		r.warn("ALLOWED_ORIGINS is * (any origin may call the API)")
	} else {
		r.ok("ALLOWED_ORIGINS=" + strings.Join(cfg.AllowedOrigins, ","))
	}

	if cfg.RateRPM == 0 {
		r.warn("RATE_RPM=0 disables rate limiting")
	}
	if cfg.RetryAttempts > 1 {
		r.ok(fmt.Sprintf("on-demand checks retry up to %d times", cfg.RetryAttempts))
	}
}
