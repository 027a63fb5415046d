package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"appshelf/internal/cachestore"
)

func TestFetchPopulatesCacheAndSkipsHitsOnRerun(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"fetch", "--seed", "3"}, env.configPath)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	requireContains(t, out, "Resolving 3 apps")
	requireContains(t, out, "3 apps: 0 cached, 2 fetched, 1 failed")
	requireContains(t, out, "remote_failure")

	if _, err := os.Stat(filepath.Join(env.cacheDir, "cache.bin")); err != nil {
		t.Fatalf("expected cache.bin: %v", err)
	}

	out, _, err = runCLI(t, []string{"fetch"}, env.configPath)
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	requireContains(t, out, "3 apps: 2 cached, 0 fetched, 1 failed")

	if got := env.catalog.Hits(620); got != 1 {
		t.Fatalf("expected one request for 620, got %d", got)
	}
	if got := env.catalog.Hits(42); got != 2 {
		t.Fatalf("expected failed id to be retried on the next run, got %d", got)
	}

	out, _, err = runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if rows := strings.Count(out, "done"); rows != 2 {
		t.Fatalf("expected 2 recorded runs, got %d in:\n%s", rows, out)
	}
}

func TestFetchLimit(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"fetch", "--limit", "1", "--verbose"}, env.configPath)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	requireContains(t, out, "Resolving 1 apps")
	requireContains(t, out, "App ")
}

func TestFetchRefusesWhenCacheLocked(t *testing.T) {
	env := setupCLITestEnv(t)

	lock, err := cachestore.AcquireLock(env.cacheDir)
	if err != nil {
		t.Fatalf("AcquireLock: %v", err)
	}
	defer func() { _ = lock.Release() }()

	_, _, err = runCLI(t, []string{"fetch"}, env.configPath)
	if !errors.Is(err, cachestore.ErrCacheBusy) {
		t.Fatalf("expected ErrCacheBusy, got %v", err)
	}
	if got := env.catalog.Hits(620); got != 0 {
		t.Fatalf("expected no requests while locked, got %d", got)
	}
}

func TestFetchMissingManifest(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"fetch", "--manifest", filepath.Join(t.TempDir(), "none.vdf")}, env.configPath)
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected missing manifest error, got %v", err)
	}
}

func TestGetResolvesAndCaches(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"get", "620"}, env.configPath)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	requireContains(t, out, "Portal 2")
	requireContains(t, out, "store")
	requireContains(t, out, "/620/header.jpg")

	out, _, err = runCLI(t, []string{"get", "620"}, env.configPath)
	if err != nil {
		t.Fatalf("second get: %v", err)
	}
	requireContains(t, out, "cache")
	if got := env.catalog.Hits(620); got != 1 {
		t.Fatalf("expected one request for 620, got %d", got)
	}
}

func TestGetReportsFailures(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"get", "440", "42"}, env.configPath)
	if err == nil {
		t.Fatal("expected error when an id fails")
	}
	requireContains(t, err.Error(), "1 of 2")
	requireContains(t, out, "Team Fortress 2")

	if _, _, err := runCLI(t, []string{"get", "abc"}, env.configPath); err == nil {
		t.Fatal("expected invalid id error")
	}
}

func TestGetJSON(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"get", "--json", "440"}, env.configPath)
	if err != nil {
		t.Fatalf("get --json: %v", err)
	}
	requireContains(t, out, `"steam_appid": 440`)
}

func TestCacheCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"cache", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("cache list: %v", err)
	}
	requireContains(t, out, "Cache is empty")

	if _, _, err := runCLI(t, []string{"get", "620", "440"}, env.configPath); err != nil {
		t.Fatalf("get: %v", err)
	}

	out, _, err = runCLI(t, []string{"cache", "list", "--images"}, env.configPath)
	if err != nil {
		t.Fatalf("cache list: %v", err)
	}
	requireContains(t, out, "Portal 2")
	requireContains(t, out, "win/linux")
	requireContains(t, out, "header.jpg")

	out, _, err = runCLI(t, []string{"cache", "stats"}, env.configPath)
	if err != nil {
		t.Fatalf("cache stats: %v", err)
	}
	requireContains(t, out, "Entries:   2")
	requireContains(t, out, "Format:    compact")
	requireContains(t, out, "Locked:    no")

	out, _, err = runCLI(t, []string{"cache", "path"}, env.configPath)
	if err != nil {
		t.Fatalf("cache path: %v", err)
	}
	if strings.TrimSpace(out) != filepath.Join(env.cacheDir, "cache.bin") {
		t.Fatalf("unexpected cache path %q", out)
	}
}

func TestHistoryShow(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"fetch"}, env.configPath); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	out, _, err := runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "done")

	lines := strings.Split(out, "\n")
	var runPrefix string
	for _, line := range lines {
		if strings.Contains(line, "done") {
			fields := strings.Fields(strings.Trim(line, "│ "))
			if len(fields) > 0 {
				runPrefix = fields[0]
			}
		}
	}
	if runPrefix == "" {
		t.Fatalf("could not find run id in:\n%s", out)
	}

	out, _, err = runCLI(t, []string{"history", "show", "--failed", runPrefix}, env.configPath)
	if err != nil {
		t.Fatalf("history show: %v", err)
	}
	requireContains(t, out, "remote_failure")
	if strings.Contains(out, "Portal 2") {
		t.Fatalf("expected --failed to hide successful apps:\n%s", out)
	}
}

func TestCheckCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"check"}, env.configPath)
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	requireContains(t, out, "Cache directory")
	requireContains(t, out, "Library manifest")
	requireContains(t, out, "Store catalog")
}

func TestConfigInitShowValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	out, _, err = runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "min_interval_ms = 0")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init to refuse overwriting")
	}
}

func TestInvalidConfigFailsEarly(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.WriteFile(env.configPath, []byte("[cache]\nformat = \"yaml\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, err := runCLI(t, []string{"cache", "path"}, env.configPath); err == nil {
		t.Fatal("expected invalid config to fail")
	}
}
