package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// searchPaths returns the ordered list of config file locations to try.
func searchPaths() []string {
	paths := []string{
		"/etc/peon-bridge/config.yaml",
	}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "peon-bridge", "config.yaml"))
	}

	paths = append(paths, "peon-bridge.yaml")

	if envPath := os.Getenv("PEON_BRIDGE_CONFIG"); envPath != "" {
		paths = append(paths, envPath)
	}

	return paths
}

// Load reads configuration from YAML files and environment variables.
// Files are loaded in order (each overrides the previous):
// /etc/peon-bridge/config.yaml < ~/.config/peon-bridge/config.yaml < ./peon-bridge.yaml < $PEON_BRIDGE_CONFIG
func Load() (*Config, error) {
	cfg := Defaults()

	for _, path := range searchPaths() {
		if err := loadFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	cfg := Defaults()

	if err := loadFile(cfg, path); err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables have higher priority than YAML config values.
func applyEnvOverrides(cfg *Config) {
	if token := os.Getenv("PEON_BRIDGE_TOKEN"); token != "" {
		cfg.Server.Token = token
	}
	if url := os.Getenv("PEON_BRIDGE_OPENCODE_URL"); url != "" {
		cfg.OpenCode.URL = url
	}
}

func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from trusted config search paths
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}

	slog.Debug("loading config file", "path", path)

	expanded := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return fmt.Errorf("parsing YAML: %w", err)
	}

	return nil
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

// PluginDir returns the directory handed to the notification script,
// <home>/.config/<runtime>/plugins/<plugin>/ unless overridden.
func (c *Config) PluginDir() string {
	if c.Runtime.PluginDir != "" {
		return c.Runtime.PluginDir
	}
	return ExpandHome(filepath.Join("~", ".config", c.Runtime.Name, "plugins", c.Runtime.PluginName))
}

// ScriptPath returns the absolute path of the notification script.
func (c *Config) ScriptPath() string {
	if filepath.IsAbs(c.Script.Path) {
		return c.Script.Path
	}
	return filepath.Join(c.PluginDir(), c.Script.Path)
}

// ScriptEnv returns the variables injected into the script's environment.
func (c *Config) ScriptEnv() map[string]string {
	env := make(map[string]string, len(c.Script.Env)+1)
	for k, v := range c.Script.Env {
		env[k] = v
	}
	env[c.Script.DirEnv] = c.PluginDir()
	return env
}

func validate(cfg *Config) error {
	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", cfg.Log.Level)
	}

	if cfg.Runtime.PluginDir == "" && (cfg.Runtime.Name == "" || cfg.Runtime.PluginName == "") {
		return fmt.Errorf("runtime.name and runtime.plugin_name are required unless runtime.plugin_dir is set")
	}

	if cfg.Script.Path == "" {
		return fmt.Errorf("script.path must not be empty")
	}

	if cfg.Script.DirEnv == "" {
		return fmt.Errorf("script.dir_env must not be empty")
	}

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", cfg.Server.Port)
	}

	if cfg.Server.Host == "0.0.0.0" && cfg.Server.Token == "" {
		return fmt.Errorf("server.token is required when server.host is 0.0.0.0")
	}

	if cfg.Server.RequestsPerMinute < 0 {
		return fmt.Errorf("server.requests_per_minute must not be negative")
	}

	if cfg.Journal.RetentionDays < 0 {
		return fmt.Errorf("journal.retention_days must not be negative")
	}

	cfg.Runtime.PluginDir = ExpandHome(cfg.Runtime.PluginDir)
	cfg.Script.Path = ExpandHome(cfg.Script.Path)
	cfg.Journal.Path = ExpandHome(cfg.Journal.Path)
	cfg.Log.File = ExpandHome(cfg.Log.File)

	return nil
}
