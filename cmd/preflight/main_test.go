package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hamed0406/urlmonitor/internal/config"
)

func runCheck(t *testing.T) (*report, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	r := &report{out: &out, errOut: &errOut}
	check(config.FromEnv(), r)
	return r, out.String() + errOut.String()
}

func TestCheck_FileStoreOK(t *testing.T) {
	t.Setenv("STORE_DRIVER", "file")
	t.Setenv("STORE_PATH", filepath.Join(t.TempDir(), "urls.yaml"))
	r, text := runCheck(t)
	if r.failed {
		t.Fatalf("unexpected failure:\n%s", text)
	}
}

func TestCheck_PostgresNeedsDSN(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "")
	r, text := runCheck(t)
	if !r.failed || !strings.Contains(text, "DATABASE_URL") {
		t.Fatalf("want DATABASE_URL failure, got:\n%s", text)
	}
}

func TestCheck_UnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mongo")
	r, _ := runCheck(t)
	if !r.failed {
		t.Fatal("want failure for unknown driver")
	}
}
