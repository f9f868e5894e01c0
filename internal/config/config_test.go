package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/gohf/internal/hamiltonian"
	"example.com/gohf/internal/scf"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(Default(), cfg))
	assert.NoError(t, cfg.Validate())
	assert.False(t, cfg.IncludeAnnihilation)
	assert.False(t, cfg.IncludeRelativistic)
	assert.False(t, cfg.HamiltonianOptions(nil).IncludeAnnihilation)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "gohf.yaml", `
max_iterations: 50
use_diis: false
damping: 0.3
include_annihilation: true
positron_exchange: false
cache:
  capacity: 64
logging:
  level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	want := Default()
	want.MaxIterations = 50
	want.UseDIIS = false
	want.Damping = 0.3
	want.IncludeAnnihilation = true
	want.PositronExchange = false
	want.Cache.Capacity = 64
	want.Logging.Level = "debug"
	assert.Empty(t, cmp.Diff(want, cfg))
	assert.NoError(t, cfg.Validate())
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "gohf.toml", `
convergence_threshold = 1e-8
include_relativistic = true
annihilation_coupling = 0.25
workers = 2

[logging]
format = "json"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	want := Default()
	want.ConvergenceThreshold = 1e-8
	want.IncludeRelativistic = true
	want.AnnihilationCoupling = 0.25
	want.Workers = 2
	want.Logging.Format = "json"
	assert.Empty(t, cmp.Diff(want, cfg))
}

func TestLoadBadSyntax(t *testing.T) {
	_, err := Load(writeFile(t, "bad.yaml", "max_iterations: [1, 2"))
	assert.Error(t, err)
	_, err = Load(writeFile(t, "bad.toml", "max_iterations = "))
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	for _, name := range []string{"out.yaml", "nested/out.toml"} {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			cfg.MaxIterations = 7
			cfg.Logging.File = "run.log"
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, cfg.Save(path))

			got, err := Load(path)
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(cfg, got))
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Config)
	}{
		{"iterations", func(c *Config) { c.MaxIterations = 0 }},
		{"threshold", func(c *Config) { c.ConvergenceThreshold = -1 }},
		{"history", func(c *Config) { c.DIISHistorySize = 1 }},
		{"damping", func(c *Config) { c.Damping = 1.5 }},
		{"coupling", func(c *Config) { c.AnnihilationCoupling = -0.1 }},
		{"workers", func(c *Config) { c.Workers = -2 }},
		{"cache", func(c *Config) { c.Cache.Capacity = -1 }},
		{"level", func(c *Config) { c.Logging.Level = "loud" }},
		{"format", func(c *Config) { c.Logging.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mod(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestOptionsMapping(t *testing.T) {
	cfg := Default()
	cfg.PositronExchange = false
	cfg.IncludeAnnihilation = true
	cfg.Workers = 3

	h := cfg.HamiltonianOptions(nil)
	assert.True(t, h.DisablePositronExchange)
	assert.True(t, h.IncludeAnnihilation)
	assert.Equal(t, hamiltonian.DefaultAnnihilationCoupling, h.AnnihilationCoupling)
	assert.Equal(t, 3, h.Workers)

	s := cfg.SCFOptions(nil)
	want := scf.DefaultOptions()
	want.Workers = 3
	assert.Empty(t, cmp.Diff(want, s))
}
