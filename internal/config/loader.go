package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

var validQualities = []string{"low", "medium", "high", "production"}

// Load reads and parses configuration from a file. A directory is accepted
// if it contains manimcp.yaml.
func Load(configPath string) (*Config, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("config file not found: %s\n"+
			"Hint: Check the path or run with --config flag", absPath)
	}
	if info.IsDir() {
		absPath = filepath.Join(absPath, configFileName)
		if _, err := os.Stat(absPath); err != nil {
			return nil, fmt.Errorf("directory provided but %s not found: %s", configFileName, absPath)
		}
	}

	cfg, err := loadConfigFile(absPath)
	if err != nil {
		return nil, err
	}
	cfg.SourcePath = absPath

	return finalize(cfg)
}

// LoadOrDefault loads configPath when given, otherwise the first discovered
// config file, otherwise the built-in defaults.
func LoadOrDefault(configPath string) (*Config, error) {
	if strings.TrimSpace(configPath) != "" {
		return Load(configPath)
	}

	discovered, err := Discover()
	if errors.Is(err, ErrNoConfig) {
		return finalize(&Config{})
	}
	if err != nil {
		return nil, err
	}
	return Load(discovered)
}

func finalize(cfg *Config) (*Config, error) {
	cfg = applyConfigDefaults(cfg)
	applyEnvOverrides(cfg)
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadConfigFile loads and parses a single config file.
func loadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	interpolated := interpolateEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(interpolated), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return &cfg, nil
}

// applyConfigDefaults merges default values into config where not explicitly set.
func applyConfigDefaults(cfg *Config) *Config {
	defaults := Defaults()

	if cfg.Service.Name == "" {
		cfg.Service.Name = defaults.Service.Name
	}
	if cfg.Service.LogLevel == "" {
		cfg.Service.LogLevel = defaults.Service.LogLevel
	}
	cfg.Service.LogLevel = strings.ToLower(cfg.Service.LogLevel)
	if cfg.Service.LogFormat == "" {
		cfg.Service.LogFormat = defaults.Service.LogFormat
	}

	if cfg.Workspace.BaseDir == "" {
		cfg.Workspace.BaseDir = defaults.Workspace.BaseDir
	}
	if cfg.Workspace.Prefix == "" {
		cfg.Workspace.Prefix = defaults.Workspace.Prefix
	}

	if cfg.Render.Executable == "" {
		cfg.Render.Executable = defaults.Render.Executable
	}
	if cfg.Render.DefaultQuality == "" {
		cfg.Render.DefaultQuality = defaults.Render.DefaultQuality
	}
	if cfg.Render.VideoPattern == "" {
		cfg.Render.VideoPattern = defaults.Render.VideoPattern
	}

	if cfg.History.Path == "" {
		cfg.History.Path = defaults.History.Path
	}

	if !cfg.API.Enabled && cfg.API.Listen == "" {
		cfg.API = defaults.API
	}
	if cfg.API.Listen == "" {
		cfg.API.Listen = defaults.API.Listen
	}

	return cfg
}

// applyEnvOverrides lets the environment select the renderer regardless of
// what the config file says.
func applyEnvOverrides(cfg *Config) {
	if exe := strings.TrimSpace(os.Getenv(ExecutableEnv)); exe != "" {
		cfg.Render.Executable = exe
	}
}

// interpolateEnv replaces ${VAR} with environment variable values.
// Undefined variables are left as-is (not expanded).
func interpolateEnv(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		return match
	})
}

// validate performs basic validation on the configuration.
func validate(cfg *Config) error {
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[cfg.Service.LogLevel] {
		return fmt.Errorf("service.log_level must be one of: debug, info, warn, error (got %q)", cfg.Service.LogLevel)
	}
	switch strings.ToLower(cfg.Service.LogFormat) {
	case "json", "text":
	default:
		return fmt.Errorf("service.log_format must be json or text (got %q)", cfg.Service.LogFormat)
	}

	if strings.ContainsAny(cfg.Workspace.Prefix, `/\`) {
		return fmt.Errorf("workspace.prefix must not contain path separators (got %q)", cfg.Workspace.Prefix)
	}

	if !IsValidQuality(cfg.Render.DefaultQuality) {
		return fmt.Errorf("render.default_quality must be one of %v (got %q)", validQualities, cfg.Render.DefaultQuality)
	}
	if _, err := filepath.Match(cfg.Render.VideoPattern, "probe.mp4"); err != nil {
		return fmt.Errorf("render.video_pattern %q: %w", cfg.Render.VideoPattern, err)
	}
	if cfg.Render.Timeout < 0 {
		return fmt.Errorf("render.timeout must not be negative")
	}
	if cfg.Render.MaxConcurrent < 0 {
		return fmt.Errorf("render.max_concurrent must not be negative")
	}

	if cfg.API.Enabled {
		if cfg.API.Auth.APIKey == "" && len(cfg.API.Auth.Tokens) == 0 {
			return fmt.Errorf("api.auth.api_key is required when the API is enabled and no tokens are configured")
		}
		if envVarPattern.MatchString(cfg.API.Auth.APIKey) {
			matches := envVarPattern.FindStringSubmatch(cfg.API.Auth.APIKey)
			return fmt.Errorf("api.auth.api_key: environment variable ${%s} is not set", matches[1])
		}
		for i, tok := range cfg.API.Auth.Tokens {
			if tok.Token == "" || envVarPattern.MatchString(tok.Token) {
				return fmt.Errorf("api.auth.tokens[%d]: token is empty or references an unset variable", i)
			}
			if len(tok.Scopes) == 0 {
				return fmt.Errorf("api.auth.tokens[%d]: at least one scope is required", i)
			}
		}
	}

	return nil
}

// IsValidQuality reports whether q names a supported render quality.
func IsValidQuality(q string) bool {
	for _, v := range validQualities {
		if q == v {
			return true
		}
	}
	return false
}
