package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"breakfit/domain/fit"
	"breakfit/internal/elasticnet"
	"breakfit/internal/errors"
	"breakfit/internal/pwlf"
)

// Config represents the complete application configuration
type Config struct {
	Selector  SelectorConfig
	Solver    SolverConfig
	Database  DatabaseConfig
	Server    ServerConfig
	Cache     CacheConfig
	Profiling ProfilingConfig
	LogLevel  string
}

// SelectorConfig picks the named profile and any per-field overrides.
// BreaksLimit caps MaxBreaks after all overrides; zero means no cap.
type SelectorConfig struct {
	Profile      string
	ProfilesFile string
	Overrides    fit.Overrides
	Profiles     map[string]fit.Profile
	BreaksLimit  int
}

// SolverConfig tunes the breakpoint search and the elastic net
type SolverConfig struct {
	Seed      int64
	DEMaxIter int
	DEPopSize int
	CVFolds   int
	CVMaxIter int
	CVWorkers int
}

// DatabaseConfig holds database connection settings. An empty URL
// disables persistence.
type DatabaseConfig struct {
	Driver  string
	URL     string
	Retries int
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// CacheConfig bounds the in-process result cache
type CacheConfig struct {
	Size int
	TTL  time.Duration
}

// ProfilingConfig holds performance profiling settings
type ProfilingConfig struct {
	Port    string
	Enabled bool
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Solver:    loadSolverConfig(),
		Database:  loadDatabaseConfig(),
		Server:    loadServerConfig(),
		Cache:     loadCacheConfig(),
		Profiling: loadProfilingConfig(),
		LogLevel:  getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	selectorConfig, err := loadSelectorConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load selector configuration")
	}
	config.Selector = *selectorConfig

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

// Default returns the configuration Load produces with an empty environment
func Default() *Config {
	return &Config{
		Selector: SelectorConfig{
			Profile:     fit.ProfileStandard,
			Profiles:    fit.BuiltinProfiles(),
			BreaksLimit: 30,
		},
		Solver: SolverConfig{
			Seed:      42,
			DEMaxIter: 1000,
			DEPopSize: 15,
			CVFolds:   5,
			CVMaxIter: 1000,
		},
		Database:  DatabaseConfig{Driver: "postgres", Retries: 5},
		Server:    ServerConfig{Port: "8080", GinMode: "release"},
		Cache:     CacheConfig{Size: 1000, TTL: time.Hour},
		Profiling: ProfilingConfig{Port: "6060"},
		LogLevel:  "INFO",
	}
}

func loadSelectorConfig() (*SelectorConfig, error) {
	cfg := &SelectorConfig{
		Profile:      getEnvOrDefault("BREAKFIT_PROFILE", fit.ProfileStandard),
		ProfilesFile: os.Getenv("PROFILES_FILE"),
		Profiles:     fit.BuiltinProfiles(),
		BreaksLimit:  getEnvIntOrDefault("MAX_BREAKS_LIMIT", Default().Selector.BreaksLimit),
	}

	if cfg.ProfilesFile != "" {
		extra, err := LoadProfiles(cfg.ProfilesFile)
		if err != nil {
			return nil, err
		}
		for name, p := range extra {
			cfg.Profiles[name] = p
		}
	}

	var err error
	if cfg.Overrides.ComplexityPenalty, err = envFloatPtr("COMPLEXITY_PENALTY"); err != nil {
		return nil, err
	}
	if cfg.Overrides.MaxBreaks, err = envIntPtr("MAX_BREAKS"); err != nil {
		return nil, err
	}
	if cfg.Overrides.OutlierThreshold, err = envFloatPtr("OUTLIER_THRESHOLD"); err != nil {
		return nil, err
	}
	if cfg.Overrides.PlotResults, err = envBoolPtr("PLOT_RESULTS"); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadSolverConfig() SolverConfig {
	d := Default().Solver
	return SolverConfig{
		Seed:      int64(getEnvIntOrDefault("RANDOM_SEED", int(d.Seed))),
		DEMaxIter: getEnvIntOrDefault("DE_MAX_ITER", d.DEMaxIter),
		DEPopSize: getEnvIntOrDefault("DE_POPSIZE", d.DEPopSize),
		CVFolds:   getEnvIntOrDefault("CV_FOLDS", d.CVFolds),
		CVMaxIter: getEnvIntOrDefault("CV_MAX_ITER", d.CVMaxIter),
		CVWorkers: getEnvIntOrDefault("CV_WORKERS", d.CVWorkers),
	}
}

func loadDatabaseConfig() DatabaseConfig {
	d := Default().Database
	return DatabaseConfig{
		Driver:  strings.ToLower(getEnvOrDefault("DATABASE_DRIVER", d.Driver)),
		URL:     os.Getenv("DATABASE_URL"),
		Retries: getEnvIntOrDefault("DB_CONNECT_RETRIES", d.Retries),
	}
}

func loadServerConfig() ServerConfig {
	d := Default().Server
	return ServerConfig{
		Port:    getEnvOrDefault("PORT", d.Port),
		GinMode: getEnvOrDefault("GIN_MODE", d.GinMode),
	}
}

func loadCacheConfig() CacheConfig {
	d := Default().Cache
	return CacheConfig{
		Size: getEnvIntOrDefault("CACHE_SIZE", d.Size),
		TTL:  getEnvDurationOrDefault("CACHE_TTL", d.TTL),
	}
}

func loadProfilingConfig() ProfilingConfig {
	d := Default().Profiling
	return ProfilingConfig{
		Port:    getEnvOrDefault("PPROF_PORT", d.Port),
		Enabled: getEnvBoolOrDefault("PPROF_ENABLED", d.Enabled),
	}
}

func validateConfig(config *Config) error {
	if _, ok := config.Selector.Profiles[config.Selector.Profile]; !ok {
		return errors.ConfigInvalid(fmt.Sprintf("unknown profile %q (have %s)",
			config.Selector.Profile, strings.Join(fit.ProfileNames(config.Selector.Profiles), ", ")))
	}
	if _, err := config.Selector.Resolve("", fit.Overrides{}); err != nil {
		return err
	}
	if config.Selector.BreaksLimit < 0 {
		return errors.ConfigInvalid("MAX_BREAKS_LIMIT must not be negative")
	}
	if config.Solver.CVFolds < 2 {
		return errors.ConfigInvalid(fmt.Sprintf("CV_FOLDS must be at least 2, got %d", config.Solver.CVFolds))
	}
	if config.Solver.DEPopSize < 1 || config.Solver.DEMaxIter < 1 || config.Solver.CVMaxIter < 1 {
		return errors.ConfigInvalid("solver iteration and population settings must be positive")
	}
	switch config.Database.Driver {
	case "postgres", "sqlite":
	default:
		return errors.ConfigInvalid(fmt.Sprintf("DATABASE_DRIVER must be postgres or sqlite, got %q", config.Database.Driver))
	}
	if config.Cache.Size < 0 {
		return errors.ConfigInvalid("CACHE_SIZE must not be negative")
	}
	return nil
}

// Resolve returns the selection config for the named profile, or the
// configured one when name is empty. Environment overrides apply first,
// then the request's own.
func (s SelectorConfig) Resolve(name string, request fit.Overrides) (fit.Config, error) {
	if name == "" {
		name = s.Profile
	}
	profiles := s.Profiles
	if profiles == nil {
		profiles = fit.BuiltinProfiles()
	}
	p, ok := profiles[name]
	if !ok {
		return fit.Config{}, errors.ConfigInvalid(fmt.Sprintf("unknown profile %q", name))
	}
	cfg := request.Apply(s.Overrides.Apply(p.Config))
	if err := cfg.Validate(); err != nil {
		return fit.Config{}, errors.WithCode(errors.CodeConfigInvalid, err)
	}
	if s.BreaksLimit > 0 && cfg.MaxBreaks > s.BreaksLimit {
		return fit.Config{}, errors.ConfigInvalid(fmt.Sprintf("max breaks %d exceeds the limit of %d", cfg.MaxBreaks, s.BreaksLimit))
	}
	return cfg, nil
}

// SearchOptions converts the solver settings for the breakpoint search
func (s SolverConfig) SearchOptions() pwlf.Options {
	opts := pwlf.DefaultOptions()
	opts.Seed = s.Seed
	opts.MaxIter = s.DEMaxIter
	opts.PopSize = s.DEPopSize
	return opts
}

// CV converts the solver settings for the elastic net cross-validation
func (s SolverConfig) CV() elasticnet.CV {
	cv := elasticnet.DefaultCV()
	cv.Folds = s.CVFolds
	cv.MaxIter = s.CVMaxIter
	cv.Workers = s.CVWorkers
	return cv
}

// Enabled reports whether runs are persisted
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Override variables must parse when set; a typo should not silently fall
// back to the profile value.
func envFloatPtr(key string) (*float64, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, errors.ConfigInvalid(fmt.Sprintf("%s: %q is not a number", key, value))
	}
	return &f, nil
}

func envIntPtr(key string) (*int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return nil, nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return nil, errors.ConfigInvalid(fmt.Sprintf("%s: %q is not an integer", key, value))
	}
	return &i, nil
}

func envBoolPtr(key string) (*bool, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return nil, errors.ConfigInvalid(fmt.Sprintf("%s: %q is not a boolean", key, value))
	}
	return &b, nil
}
