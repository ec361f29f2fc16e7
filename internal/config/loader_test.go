package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "peon-bridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaults_SetsExpectedValues(t *testing.T) {
	t.Parallel()

	cfg := Defaults()

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "opencode", cfg.Runtime.Name)
	assert.Equal(t, "peon-ping", cfg.Runtime.PluginName)
	assert.Equal(t, "bash", cfg.Script.Interpreter)
	assert.Equal(t, "peon.sh", cfg.Script.Path)
	assert.Equal(t, "CLAUDE_PEON_DIR", cfg.Script.DirEnv)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 8431, cfg.Server.Port)
	assert.Equal(t, "http://127.0.0.1:4096", cfg.OpenCode.URL)
	assert.Equal(t, 2*time.Second, cfg.OpenCode.ReconnectDelay)
	assert.False(t, cfg.Journal.Enabled)
	assert.Equal(t, 30, cfg.Journal.RetentionDays)
}

func TestPluginDir_DerivesFromHomeAndRuntime(t *testing.T) {
	t.Parallel()

	home, err := os.UserHomeDir()
	require.NoError(t, err)

	cfg := Defaults()
	want := filepath.Join(home, ".config", "opencode", "plugins", "peon-ping")

	assert.Equal(t, want, cfg.PluginDir())
	assert.Equal(t, filepath.Join(want, "peon.sh"), cfg.ScriptPath())
	assert.Equal(t, want, cfg.ScriptEnv()["CLAUDE_PEON_DIR"])
}

func TestPluginDir_WhenOverridden_UsesOverride(t *testing.T) {
	t.Parallel()

	cfg := Defaults()
	cfg.Runtime.PluginDir = "/opt/peon"
	cfg.Script.Path = "/usr/local/bin/peon.sh"

	assert.Equal(t, "/opt/peon", cfg.PluginDir())
	assert.Equal(t, "/usr/local/bin/peon.sh", cfg.ScriptPath())
}

func TestScriptEnv_MergesExtraVariables(t *testing.T) {
	t.Parallel()

	cfg := Defaults()
	cfg.Runtime.PluginDir = "/opt/peon"
	cfg.Script.Env = map[string]string{"PEON_HARNESS": "claude", "CLAUDE_PEON_DIR": "/ignored"}

	env := cfg.ScriptEnv()
	assert.Equal(t, "claude", env["PEON_HARNESS"])
	assert.Equal(t, "/opt/peon", env["CLAUDE_PEON_DIR"], "plugin dir wins over script.env")
	assert.Equal(t, "/ignored", cfg.Script.Env["CLAUDE_PEON_DIR"], "config map is not mutated")
}

func TestLoadFromFile_ParsesYAML(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
log:
  level: debug

runtime:
  name: "claude"
  plugin_name: "peon"

script:
  interpreter: "/bin/sh"
  path: "notify.sh"
  env:
    PEON_HARNESS: "claude"

server:
  port: 9000
  token: "abc"
  requests_per_minute: 60

opencode:
  url: "http://localhost:5000"
  reconnect_delay: 500ms

journal:
  enabled: true
  path: "/var/lib/peon/journal.db"
  retention_days: 7
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "claude", cfg.Runtime.Name)
	assert.Equal(t, "peon", cfg.Runtime.PluginName)
	assert.Equal(t, "/bin/sh", cfg.Script.Interpreter)
	assert.Equal(t, "notify.sh", cfg.Script.Path)
	assert.Equal(t, map[string]string{"PEON_HARNESS": "claude"}, cfg.Script.Env)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "abc", cfg.Server.Token)
	assert.Equal(t, 60, cfg.Server.RequestsPerMinute)
	assert.Equal(t, "http://localhost:5000", cfg.OpenCode.URL)
	assert.Equal(t, 500*time.Millisecond, cfg.OpenCode.ReconnectDelay)
	assert.True(t, cfg.Journal.Enabled)
	assert.Equal(t, "/var/lib/peon/journal.db", cfg.Journal.Path)
	assert.Equal(t, 7, cfg.Journal.RetentionDays)
}

func TestLoadFromFile_ExpandsEnvVars(t *testing.T) {
	t.Setenv("PEON_BRIDGE_TEST_DIR", "/srv/peon")

	path := writeConfig(t, `
runtime:
  plugin_dir: "${PEON_BRIDGE_TEST_DIR}"
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/peon", cfg.PluginDir())
}

func TestLoadFromFile_EnvOverridesYAML(t *testing.T) {
	t.Setenv("PEON_BRIDGE_TOKEN", "from-env")
	t.Setenv("PEON_BRIDGE_OPENCODE_URL", "http://10.0.0.2:4096")

	path := writeConfig(t, `
server:
  token: "from-file"
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Server.Token)
	assert.Equal(t, "http://10.0.0.2:4096", cfg.OpenCode.URL)
}

func TestLoadFromFile_ExpandsHomeInPaths(t *testing.T) {
	t.Parallel()

	home, err := os.UserHomeDir()
	require.NoError(t, err)

	path := writeConfig(t, `
journal:
  path: "~/peon/journal.db"
log:
  file: "~/peon/bridge.log"
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "peon/journal.db"), cfg.Journal.Path)
	assert.Equal(t, filepath.Join(home, "peon/bridge.log"), cfg.Log.File)
}

func TestLoadFromFile_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"invalid port", "server:\n  port: 99999\n", "port"},
		{"port zero", "server:\n  port: 0\n", "port"},
		{"unknown log level", "log:\n  level: verbose\n", "log.level"},
		{"empty script path", "script:\n  path: \"\"\n", "script.path"},
		{"empty dir env", "script:\n  dir_env: \"\"\n", "script.dir_env"},
		{"missing runtime name", "runtime:\n  name: \"\"\n", "runtime.name"},
		{"open bind without token", "server:\n  host: \"0.0.0.0\"\n", "server.token"},
		{"negative rate limit", "server:\n  requests_per_minute: -1\n", "requests_per_minute"},
		{"negative retention", "journal:\n  retention_days: -3\n", "retention_days"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := LoadFromFile(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromFile_OpenBindWithToken_IsAccepted(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFromFile(writeConfig(t, "server:\n  host: \"0.0.0.0\"\n  token: \"t\"\n"))
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
}

func TestLoadFromFile_NonexistentFileReturnsDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8431, cfg.Server.Port)
	assert.Equal(t, "opencode", cfg.Runtime.Name)
}

func TestLoadFromFile_InvalidYAML_ReturnsError(t *testing.T) {
	t.Parallel()

	_, err := LoadFromFile(writeConfig(t, "{{invalid yaml:::"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing YAML")
}

func TestLoadFromFile_PartialOverride_KeepsDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFromFile(writeConfig(t, "server:\n  port: 9999\n"))
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host, "default host should be preserved")
	assert.Equal(t, "bash", cfg.Script.Interpreter, "default interpreter should be preserved")
}

func TestExpandHome_ReplacesLeadingTilde(t *testing.T) {
	t.Parallel()

	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "some/path"), ExpandHome("~/some/path"))
}

func TestExpandHome_LeavesAbsolutePathsUnchanged(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/absolute/path", ExpandHome("/absolute/path"))
}
