package config

import "time"

// Config is the root configuration for peon-bridge.
type Config struct {
	Log      LogConfig      `yaml:"log"`
	Runtime  RuntimeConfig  `yaml:"runtime"`
	Script   ScriptConfig   `yaml:"script"`
	Server   ServerConfig   `yaml:"server"`
	OpenCode OpenCodeConfig `yaml:"opencode"`
	Journal  JournalConfig  `yaml:"journal"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// RuntimeConfig names the host runtime and the plugin directory the
// notification script reads its configuration from:
// ~/.config/<name>/plugins/<plugin_name>/.
type RuntimeConfig struct {
	Name       string `yaml:"name"`
	PluginName string `yaml:"plugin_name"`
	// PluginDir overrides the derived directory.
	PluginDir string `yaml:"plugin_dir"`
}

type ScriptConfig struct {
	Interpreter string `yaml:"interpreter"`
	// Path is relative to the plugin directory unless absolute.
	Path string `yaml:"path"`
	// DirEnv is the variable that receives the plugin directory.
	DirEnv string            `yaml:"dir_env"`
	Env    map[string]string `yaml:"env"`
}

type ServerConfig struct {
	Host              string `yaml:"host"`
	Port              int    `yaml:"port"`
	Token             string `yaml:"token"`
	RequestsPerMinute int    `yaml:"requests_per_minute"`
}

type OpenCodeConfig struct {
	URL            string        `yaml:"url"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`
}

type JournalConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Path          string `yaml:"path"`
	RetentionDays int    `yaml:"retention_days"`
}

// Defaults returns a Config with sensible default values.
func Defaults() *Config {
	return &Config{
		Log: LogConfig{
			Level: "info",
		},
		Runtime: RuntimeConfig{
			Name:       "opencode",
			PluginName: "peon-ping",
		},
		Script: ScriptConfig{
			Interpreter: "bash",
			Path:        "peon.sh",
			DirEnv:      "CLAUDE_PEON_DIR",
		},
		Server: ServerConfig{
			Host:              "127.0.0.1",
			Port:              8431,
			RequestsPerMinute: 600,
		},
		OpenCode: OpenCodeConfig{
			URL:            "http://127.0.0.1:4096",
			ReconnectDelay: 2 * time.Second,
		},
		Journal: JournalConfig{
			Enabled:       false,
			Path:          "~/.config/peon-bridge/journal.db",
			RetentionDays: 30,
		},
	}
}
