package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "GENOMEMCP_"

// FileName is the YAML config file inside the config dir.
const FileName = "config.yaml"

// Config holds runtime configuration. It is built once by Load and passed to
// constructors; nothing reads it globally.
type Config struct {
	// Model backend: ollama, llamacpp, openrouter or openai.
	Backend     string  `yaml:"backend"`
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	APIKey      string  `yaml:"api_key"`
	Temperature float64 `yaml:"temperature"`

	// Conversation loop.
	MaxIterations      int    `yaml:"max_iterations"`
	ParallelTools      bool   `yaml:"parallel_tools"`
	ToolOutputMaxRunes int    `yaml:"tool_output_max_runes"`
	SystemPromptFile   string `yaml:"system_prompt_file"`
	Verbose            bool   `yaml:"verbose"`

	DataTimeout  time.Duration `yaml:"data_timeout"`
	ModelTimeout time.Duration `yaml:"model_timeout"`

	// NCBI E-utilities etiquette.
	NCBIAPIKey string `yaml:"ncbi_api_key"`
	NCBITool   string `yaml:"ncbi_tool"`
	NCBIEmail  string `yaml:"ncbi_email"`

	// GenomeBuild selects the gnomAD dataset (GRCh38 or GRCh37).
	GenomeBuild string `yaml:"genome_build"`

	DBPath string `yaml:"db_path"`
	UserID string `yaml:"user_id"`

	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`
	LogJSON  bool   `yaml:"log_json"`

	HTTPAddr string `yaml:"http_addr"`

	OTelEnabled  bool   `yaml:"otel_enabled"`
	OTelEndpoint string `yaml:"otel_endpoint"`

	// ConfigDir is where config.yaml, .env and the default database live.
	ConfigDir string `yaml:"-"`
}

// Defaults returns the built-in configuration for configDir.
func Defaults(configDir string) *Config {
	return &Config{
		Backend:       "ollama",
		Temperature:   0.7,
		MaxIterations: 10,
		DataTimeout:   30 * time.Second,
		ModelTimeout:  120 * time.Second,
		NCBITool:      "genomemcp",
		GenomeBuild:   "GRCh38",
		DBPath:        filepath.Join(configDir, "genomemcp.db"),
		UserID:        "local",
		LogLevel:      "info",
		HTTPAddr:      ":8080",
		OTelEndpoint:  "localhost:4318",
		ConfigDir:     configDir,
	}
}

// DefaultConfigDir returns the default config directory (project-local .genomemcp if present, else ~/.config/genomemcp).
func DefaultConfigDir() string {
	cwd, _ := os.Getwd()
	local := filepath.Join(cwd, ".genomemcp")
	if info, err := os.Stat(local); err == nil && info.IsDir() {
		return local
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "genomemcp")
}

// Load builds config with priority defaults < .env < environment < config.yaml.
// configDir can be empty to use GENOMEMCP_CONFIG_DIR or the default. Missing
// .env and config.yaml files are ignored; malformed ones are errors.
func Load(configDir string) (*Config, error) {
	return load(configDir, os.LookupEnv)
}

func load(configDir string, lookup func(string) (string, bool)) (*Config, error) {
	if configDir == "" {
		if d, ok := lookup(EnvPrefix + "CONFIG_DIR"); ok && d != "" {
			configDir = d
		} else {
			configDir = DefaultConfigDir()
		}
	}
	cfg := Defaults(configDir)

	dotenv, err := readDotEnv(filepath.Join(configDir, ".env"), ".env")
	if err != nil {
		return nil, err
	}
	get := func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
	if err := cfg.applyEnv(get); err != nil {
		return nil, err
	}

	path := filepath.Join(configDir, FileName)
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	cfg.ConfigDir = configDir

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// readDotEnv merges the given .env files; earlier files win.
func readDotEnv(paths ...string) (map[string]string, error) {
	out := map[string]string{}
	for i := len(paths) - 1; i >= 0; i-- {
		p := paths[i]
		if _, err := os.Stat(p); err != nil {
			continue
		}
		m, err := godotenv.Read(p)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", p, err)
		}
		for k, v := range m {
			out[k] = v
		}
	}
	return out, nil
}

// applyEnv overlays GENOMEMCP_<KEY> variables, plus the conventional
// OPENROUTER_API_KEY and NCBI_API_KEY when the prefixed ones are absent.
func (c *Config) applyEnv(get func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := get(EnvPrefix + key); ok {
			*dst = v
		}
	}
	var errs []error
	boolean := func(key string, dst *bool) {
		if v, ok := get(EnvPrefix + key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = b
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := get(EnvPrefix + key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = n
		}
	}
	float := func(key string, dst *float64) {
		if v, ok := get(EnvPrefix + key); ok && v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = f
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v, ok := get(EnvPrefix + key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = d
		}
	}

	if v, ok := get("OPENROUTER_API_KEY"); ok {
		c.APIKey = v
	}
	if v, ok := get("NCBI_API_KEY"); ok {
		c.NCBIAPIKey = v
	}

	str("BACKEND", &c.Backend)
	str("MODEL", &c.Model)
	str("BASE_URL", &c.BaseURL)
	str("API_KEY", &c.APIKey)
	float("TEMPERATURE", &c.Temperature)
	integer("MAX_ITERATIONS", &c.MaxIterations)
	boolean("PARALLEL_TOOLS", &c.ParallelTools)
	integer("TOOL_OUTPUT_MAX_RUNES", &c.ToolOutputMaxRunes)
	str("SYSTEM_PROMPT_FILE", &c.SystemPromptFile)
	boolean("VERBOSE", &c.Verbose)
	duration("DATA_TIMEOUT", &c.DataTimeout)
	duration("MODEL_TIMEOUT", &c.ModelTimeout)
	str("NCBI_API_KEY", &c.NCBIAPIKey)
	str("NCBI_TOOL", &c.NCBITool)
	str("NCBI_EMAIL", &c.NCBIEmail)
	str("GENOME_BUILD", &c.GenomeBuild)
	str("DB_PATH", &c.DBPath)
	str("USER_ID", &c.UserID)
	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FILE", &c.LogFile)
	boolean("LOG_JSON", &c.LogJSON)
	str("HTTP_ADDR", &c.HTTPAddr)
	boolean("OTEL_ENABLED", &c.OTelEnabled)
	str("OTEL_ENDPOINT", &c.OTelEndpoint)

	return errors.Join(errs...)
}

// Validate rejects values no component can run with and canonicalises the
// genome build name.
func (c *Config) Validate() error {
	var errs []error
	if c.MaxIterations <= 0 {
		errs = append(errs, fmt.Errorf("max_iterations must be positive, got %d", c.MaxIterations))
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		errs = append(errs, fmt.Errorf("temperature must be within [0, 2], got %g", c.Temperature))
	}
	if c.DataTimeout <= 0 || c.ModelTimeout <= 0 {
		errs = append(errs, errors.New("data_timeout and model_timeout must be positive"))
	}
	if c.ToolOutputMaxRunes < 0 {
		errs = append(errs, errors.New("tool_output_max_runes must not be negative"))
	}
	switch strings.ToUpper(c.GenomeBuild) {
	case "GRCH38":
		c.GenomeBuild = "GRCh38"
	case "GRCH37":
		c.GenomeBuild = "GRCh37"
	default:
		errs = append(errs, fmt.Errorf("genome_build must be GRCh38 or GRCh37, got %q", c.GenomeBuild))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
