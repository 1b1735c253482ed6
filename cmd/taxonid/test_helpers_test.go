package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"taxonid/internal/config"
	"taxonid/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	t.Setenv("TAXONID_DATABASE_DSN", "")
	t.Setenv("TAXONID_SEARCH_API_KEY", "")
	t.Setenv("TAXONID_CONFIG", "")

	cfg := testsupport.NewConfig(t, opts...)
	cfg.Logging.Level = "error"
	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", filepath.Join(base, "home"))

	configPath := filepath.Join(base, "taxonid.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
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

// mustRunJSON runs a command with --json and decodes its stdout into v.
func (e *cliTestEnv) mustRunJSON(t *testing.T, v any, args ...string) {
	t.Helper()
	out, _, err := runCLI(t, append([]string{"--json"}, args...), e.configPath)
	if err != nil {
		t.Fatalf("%s: %v", strings.Join(args, " "), err)
	}
	if err := json.Unmarshal([]byte(out), v); err != nil {
		t.Fatalf("decode %s output %q: %v", strings.Join(args, " "), out, err)
	}
}

func writeTaxaFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "taxa.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write taxa file: %v", err)
	}
	return path
}

const sampleTaxa = `[
  {"id": "gen-gallus", "scientific_name": "Gallus", "rank": "genus", "genus": "Gallus", "family": "Phasianidae", "taxonomic_status": "ACCEPTED"},
  {"id": "sp-gallus-gallus", "scientific_name": "Gallus gallus", "common_name": "red junglefowl", "rank": "species", "species": "Gallus gallus", "genus": "Gallus", "family": "Phasianidae", "taxonomic_status": "ACCEPTED"},
  {"id": "sp-gallus-varius", "scientific_name": "Gallus varius", "rank": "species", "species": "Gallus varius", "genus": "Gallus", "family": "Phasianidae", "taxonomic_status": "ACCEPTED"},
  {"id": "syn-gallus-bankiva", "scientific_name": "Gallus bankiva", "rank": "species", "taxonomic_status": "SYNONYM", "accepted_scientific_name": "Gallus gallus"}
]`

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
