// Package config loads menucarbon settings.
//
// Settings come from three layers, later layers winning:
//   - compiled defaults (New)
//   - the YAML config file, merged section by section (ShallowMergeYAML)
//   - MENUCARBON_* environment variables (ApplyEnv)
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/VeganGarden/MyGarden-sub002/internal/carbon"
	"github.com/VeganGarden/MyGarden-sub002/internal/engine/cache"
)

// File and directory names.
const (
	EnvHome        = "MENUCARBON_HOME"
	dirName        = ".menucarbon"
	configFileName = "config.yaml"
	dbFileName     = "menucarbon.db"

	defaultListenAddr = "127.0.0.1:8089"
	defaultBatchSize  = 100
	allocationEpsilon = 1e-6
)

// Config is the full menucarbon configuration.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Store   StoreConfig   `yaml:"store"`
	Cache   CacheConfig   `yaml:"cache"`
	Engine  EngineConfig  `yaml:"engine"`
	Server  ServerConfig  `yaml:"server"`
	Batch   BatchConfig   `yaml:"batch"`
}

// LoggingConfig controls the zerolog setup.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file,omitempty"`
}

// StoreConfig locates the SQLite document store.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// CacheConfig sets lifetimes of the configuration snapshot and factor match cache.
type CacheConfig struct {
	ConfigTTL              time.Duration `yaml:"config_ttl"`
	FactorTTL              time.Duration `yaml:"factor_ttl"`
	FactorCleanupThreshold int           `yaml:"factor_cleanup_threshold"`
}

// EngineConfig holds calculation policy.
type EngineConfig struct {
	DefaultLevel             carbon.Level                `yaml:"default_level"`
	DefaultMealType          carbon.MealType             `yaml:"default_meal_type"`
	DefaultEnergyType        carbon.EnergyType           `yaml:"default_energy_type"`
	DefaultFactorRegion      string                      `yaml:"default_factor_region"`
	DefaultBaselineRegion    string                      `yaml:"default_baseline_region"`
	MaxFootprintKg           float64                     `yaml:"max_footprint_kg"`
	SumTolerance             float64                     `yaml:"sum_tolerance"`
	BaselineUncertaintyRatio float64                     `yaml:"baseline_uncertainty_ratio"`
	GasFlowDivisor           float64                     `yaml:"gas_flow_divisor"`
	EstimateAllocation       carbon.Allocation           `yaml:"estimate_allocation"`
	DefaultBaselines         map[carbon.MealType]float64 `yaml:"default_baselines"`
}

// ServerConfig configures `menucarbon serve`.
type ServerConfig struct {
	Listen string `yaml:"listen"`
}

// BatchConfig configures recalculation batches.
type BatchConfig struct {
	Size int `yaml:"size"`
}

// New returns a Config populated with compiled defaults.
func New() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info", Format: "console"},
		Store:   StoreConfig{Path: filepath.Join(Dir(), dbFileName)},
		Cache: CacheConfig{
			ConfigTTL:              cache.DefaultTTL,
			FactorTTL:              cache.DefaultTTL,
			FactorCleanupThreshold: cache.DefaultCleanupThreshold,
		},
		Engine: EngineConfig{
			DefaultLevel:             carbon.LevelStandard,
			DefaultMealType:          carbon.MealTypeMeatSimple,
			DefaultEnergyType:        carbon.EnergyElectric,
			DefaultFactorRegion:      carbon.DefaultFactorRegion,
			DefaultBaselineRegion:    carbon.DefaultBaselineRegion,
			MaxFootprintKg:           carbon.DefaultMaxFootprintKg,
			SumTolerance:             carbon.DefaultSumTolerance,
			BaselineUncertaintyRatio: carbon.DefaultUncertaintyRatio,
			GasFlowDivisor:           carbon.DefaultGasFlowDivisor,
			EstimateAllocation:       carbon.DefaultAllocation(),
			DefaultBaselines:         carbon.DefaultBaselines(),
		},
		Server: ServerConfig{Listen: defaultListenAddr},
		Batch:  BatchConfig{Size: defaultBatchSize},
	}
}

// Dir returns the menucarbon home directory: $MENUCARBON_HOME, else ~/.menucarbon.
func Dir() string {
	if home := os.Getenv(EnvHome); home != "" {
		return home
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return dirName
	}
	return filepath.Join(userHome, dirName)
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(Dir(), configFileName)
}

// Load builds a Config from defaults, the YAML file at path and the environment.
//
// An empty path means DefaultPath; a missing default file is not an error, a
// missing explicit file is.
func Load(path string) (*Config, error) {
	cfg := New()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	if err := ShallowMergeYAML(cfg, path); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	if err := ApplyEnv(cfg, os.Getenv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes c as YAML to path, creating the directory when needed.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding configuration: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if !c.Engine.DefaultLevel.Valid() {
		errs = append(errs, fmt.Errorf("engine.default_level: unknown level %q", c.Engine.DefaultLevel))
	}
	if !c.Engine.DefaultMealType.Valid() {
		errs = append(errs, fmt.Errorf("engine.default_meal_type: unknown meal type %q", c.Engine.DefaultMealType))
	}
	if !c.Engine.DefaultEnergyType.Valid() {
		errs = append(errs, fmt.Errorf("engine.default_energy_type: unknown energy type %q", c.Engine.DefaultEnergyType))
	}
	if sum := c.Engine.EstimateAllocation.Sum(); math.Abs(sum-1) > allocationEpsilon {
		errs = append(errs, fmt.Errorf("engine.estimate_allocation: ratios sum to %.4f, want 1", sum))
	}
	if c.Engine.MaxFootprintKg <= 0 {
		errs = append(errs, errors.New("engine.max_footprint_kg must be positive"))
	}
	if c.Engine.SumTolerance < 0 {
		errs = append(errs, errors.New("engine.sum_tolerance must not be negative"))
	}
	if c.Engine.BaselineUncertaintyRatio < 0 {
		errs = append(errs, errors.New("engine.baseline_uncertainty_ratio must not be negative"))
	}
	if c.Engine.GasFlowDivisor <= 0 {
		errs = append(errs, errors.New("engine.gas_flow_divisor must be positive"))
	}
	for meal, v := range c.Engine.DefaultBaselines {
		if v < 0 {
			errs = append(errs, fmt.Errorf("engine.default_baselines.%s must not be negative", meal))
		}
	}
	if c.Cache.ConfigTTL <= 0 || c.Cache.FactorTTL <= 0 {
		errs = append(errs, errors.New("cache TTLs must be positive"))
	}
	if c.Batch.Size <= 0 {
		errs = append(errs, errors.New("batch.size must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}
