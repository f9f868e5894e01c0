// config.go --  This file is part of goHF project.
// Mirzaeva Irina, 2023
//
//	goHF is distributed in the hope that it will be useful,
//	but WITHOUT ANY WARRANTY; without even the implied warranty
//	of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
//	See the GNU General Public License for more details.
//
//	You should have received a copy of the GNU General Public License
//	along with this program.  If not, see http://www.gnu.org/licenses/
//
// ------------------------------------------------

// Package config holds the calculation settings read from YAML or TOML files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"example.com/gohf/internal/hamiltonian"
	"example.com/gohf/internal/integrals"
	"example.com/gohf/internal/scf"
)

type Config struct {
	MaxIterations        int     `yaml:"max_iterations" toml:"max_iterations"`
	ConvergenceThreshold float64 `yaml:"convergence_threshold" toml:"convergence_threshold"`
	DensityThreshold     float64 `yaml:"density_threshold" toml:"density_threshold"`
	UseDIIS              bool    `yaml:"use_diis" toml:"use_diis"`
	DIISHistorySize      int     `yaml:"diis_history_size" toml:"diis_history_size"`
	Damping              float64 `yaml:"damping" toml:"damping"`

	// IncludeAnnihilation is off by default. Turned on, it is an error for an
	// input with positrons but no electron basis.
	IncludeAnnihilation  bool    `yaml:"include_annihilation" toml:"include_annihilation"`
	IncludeRelativistic  bool    `yaml:"include_relativistic" toml:"include_relativistic"`
	AnnihilationCoupling float64 `yaml:"annihilation_coupling" toml:"annihilation_coupling"`
	PositronExchange     bool    `yaml:"positron_exchange" toml:"positron_exchange"`

	// Workers bounds the goroutines of integral evaluation and Fock builds.
	Workers int `yaml:"workers" toml:"workers"`

	Cache   CacheConfig   `yaml:"cache" toml:"cache"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
}

type CacheConfig struct {
	Capacity int `yaml:"capacity" toml:"capacity"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`   // debug, info, warn, error
	Format string `yaml:"format" toml:"format"` // json, console
	File   string `yaml:"file" toml:"file"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		MaxIterations:        scf.DefaultMaxIterations,
		ConvergenceThreshold: scf.DefaultConvergenceThreshold,
		DensityThreshold:     scf.DefaultConvergenceThreshold,
		UseDIIS:              true,
		DIISHistorySize:      scf.DefaultDIISHistorySize,
		AnnihilationCoupling: hamiltonian.DefaultAnnihilationCoupling,
		PositronExchange:     true,
		Workers:              runtime.GOMAXPROCS(0),
		Cache: CacheConfig{
			Capacity: integrals.DefaultCacheCapacity,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// Load reads path over the defaults. A missing file yields the defaults.
// Files ending in .toml are TOML, anything else YAML.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if isTOML(path) {
		err = toml.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration in the format chosen by the file extension.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	var data []byte
	var err error
	if isTOML(path) {
		data, err = toml.Marshal(c)
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate checks ranges; solver option checks are shared with scf.
func (c *Config) Validate() error {
	if err := c.SCFOptions(nil).Validate(); err != nil {
		return err
	}
	if c.AnnihilationCoupling < 0 {
		return fmt.Errorf("annihilation_coupling must not be negative, got %v", c.AnnihilationCoupling)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.Cache.Capacity < 0 {
		return fmt.Errorf("cache.capacity must not be negative, got %d", c.Cache.Capacity)
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

func (c *Config) SCFOptions(log *zap.Logger) scf.Options {
	return scf.Options{
		MaxIterations:        c.MaxIterations,
		ConvergenceThreshold: c.ConvergenceThreshold,
		DensityThreshold:     c.DensityThreshold,
		UseDIIS:              c.UseDIIS,
		DIISHistorySize:      c.DIISHistorySize,
		Damping:              c.Damping,
		LinearDependence:     scf.DefaultLinearDependence,
		Workers:              c.Workers,
		Logger:               log,
	}
}

func (c *Config) HamiltonianOptions(log *zap.Logger) hamiltonian.Options {
	return hamiltonian.Options{
		IncludeAnnihilation:     c.IncludeAnnihilation,
		IncludeRelativistic:     c.IncludeRelativistic,
		AnnihilationCoupling:    c.AnnihilationCoupling,
		DisablePositronExchange: !c.PositronExchange,
		Screening:               hamiltonian.DefaultScreening,
		Workers:                 c.Workers,
		Logger:                  log,
	}
}
