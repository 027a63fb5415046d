package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"appshelf/internal/config"
	"appshelf/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	catalog    *testsupport.CatalogServer
	configPath string
	cacheDir   string
}

// setupCLITestEnv writes a config whose manifest lists 620 and 440 in one
// folder and 620 and 42 in another. The catalog knows 620 and 440 only.
func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	catalog := testsupport.NewCatalogServer(t, map[uint64]string{
		620: "Portal 2",
		440: "Team Fortress 2",
	})
	cfg := testsupport.NewConfig(t,
		testsupport.WithCatalogURL(catalog.URL),
		testsupport.WithManifest([]uint64{620, 440}, []uint64{620, 42}))

	base := testsupport.BaseDir(cfg)
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("XDG_CACHE_HOME", filepath.Join(base, "xdg-cache"))
	for _, key := range []string{"APPSHELF_CACHE_DIR", "APPSHELF_MANIFEST", "APPSHELF_LOCALE", "APPSHELF_LOG_LEVEL"} {
		t.Setenv(key, "")
	}

	env := &cliTestEnv{
		cfg:        cfg,
		catalog:    catalog,
		configPath: filepath.Join(homeDir, ".config", "appshelf", "config.toml"),
		cacheDir:   cfg.Paths.CacheDir,
	}
	writeTestConfig(t, env.configPath, cfg)
	return env
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := cfg.Encode()
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
