package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the searchdex API configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Backend  BackendConfig  `yaml:"backend"`
	Cache    CacheConfig    `yaml:"cache"`
	Registry RegistryConfig `yaml:"registry"`
	Search   SearchConfig   `yaml:"search"`
	Tenant   TenantConfig   `yaml:"tenant"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// BackendConfig holds search backend connection settings.
type BackendConfig struct {
	BaseURL         string `yaml:"base_url"`
	TimeoutSec      int    `yaml:"timeout_sec"`
	ScrollKeepAlive string `yaml:"scroll_keep_alive"`
}

// CacheConfig holds query response cache settings. An empty addrs list
// disables caching.
type CacheConfig struct {
	Addrs     []string `yaml:"addrs"`
	Username  string   `yaml:"username"`
	Password  string   `yaml:"password"`
	TTLSec    int      `yaml:"ttl_sec"`
	KeyPrefix string   `yaml:"key_prefix"`
}

// RegistryConfig locates the entity type registry file.
type RegistryConfig struct {
	Path string `yaml:"path"`
}

// SearchConfig holds result processing thresholds and redaction.
type SearchConfig struct {
	// CliffRatio is the merit cliff cutoff; an explicit 0 disables cliff
	// filtering, absent means the default.
	CliffRatio *float64 `yaml:"cliff_ratio"`
	// DeflectionRatio is the suggestion relevancy cutoff.
	DeflectionRatio float64 `yaml:"deflection_ratio"`
	// RedactedFields are stripped from every returned document.
	RedactedFields []string `yaml:"redacted_fields"`
	// BasePath prefixes generated pagination links.
	BasePath string `yaml:"base_path"`
}

// TenantConfig selects and parameterizes the tenant section strategy.
type TenantConfig struct {
	// Strategy is "default" or "vehicles".
	Strategy     string         `yaml:"strategy"`
	SectionTypes []string       `yaml:"section_types"`
	Vehicles     VehiclesConfig `yaml:"vehicles"`
}

// VehiclesConfig holds the vehicles tenant probe and section wiring.
type VehiclesConfig struct {
	BrandIndex    string `yaml:"brand_index"`
	ModelIndex    string `yaml:"model_index"`
	VariantIndex  string `yaml:"variant_index"`
	DocType       string `yaml:"doc_type"`
	EntityField   string `yaml:"entity_field"`
	ListingType   string `yaml:"listing_type"`
	UsedType      string `yaml:"used_type"`
	ContentType   string `yaml:"content_type"`
	BrandFilter   string `yaml:"brand_filter"`
	ModelFilter   string `yaml:"model_filter"`
	VariantFilter string `yaml:"variant_filter"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Backend.TimeoutSec <= 0 {
		c.Backend.TimeoutSec = 30
	}
	if c.Backend.ScrollKeepAlive == "" {
		c.Backend.ScrollKeepAlive = "1m"
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 60
	}
	if c.Cache.KeyPrefix == "" {
		c.Cache.KeyPrefix = "searchdex:query:"
	}
	if c.Registry.Path == "" {
		c.Registry.Path = "config/registry.yaml"
	}
	if c.Search.CliffRatio == nil {
		cliff := 0.40
		c.Search.CliffRatio = &cliff
	}
	if c.Search.DeflectionRatio == 0 {
		c.Search.DeflectionRatio = 0.50
	}
	if c.Search.BasePath == "" {
		c.Search.BasePath = "/api/v1/search"
	}
	if c.Tenant.Strategy == "" {
		c.Tenant.Strategy = "default"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	if cliff := c.Search.CliffRatio; cliff != nil && (*cliff < 0 || *cliff >= 1) {
		return fmt.Errorf("search.cliff_ratio must be in [0, 1), got %v", *cliff)
	}
	if c.Search.DeflectionRatio <= 0 || c.Search.DeflectionRatio >= 1 {
		return fmt.Errorf("search.deflection_ratio must be in (0, 1), got %v", c.Search.DeflectionRatio)
	}
	switch c.Tenant.Strategy {
	case "default", "vehicles":
		// ok
	default:
		return fmt.Errorf("tenant.strategy must be \"default\" or \"vehicles\", got %q", c.Tenant.Strategy)
	}
	if c.Tenant.Strategy == "vehicles" {
		v := c.Tenant.Vehicles
		if v.BrandIndex == "" || v.EntityField == "" || v.ListingType == "" {
			return fmt.Errorf("tenant.vehicles needs brand_index, entity_field and listing_type")
		}
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
