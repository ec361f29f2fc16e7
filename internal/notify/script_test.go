//go:build unix

package notify

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScript creates a shell script that copies its stdin and the
// CLAUDE_PEON_DIR variable into files under dir, renaming them into place
// once complete.
func writeScript(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "peon.sh")
	script := `#!/bin/sh
cat > "$OUT_DIR/stdin.tmp" && mv "$OUT_DIR/stdin.tmp" "$OUT_DIR/stdin.json"
printf '%s' "$CLAUDE_PEON_DIR" > "$OUT_DIR/env.tmp" && mv "$OUT_DIR/env.tmp" "$OUT_DIR/env.txt"
echo "noise on stdout"
echo "noise on stderr" >&2
`
	require.NoError(t, os.WriteFile(path, []byte(script), 0755))
	return path
}

func readEventually(t *testing.T, path string) string {
	t.Helper()
	var data []byte
	require.Eventually(t, func() bool {
		var err error
		data, err = os.ReadFile(path)
		return err == nil
	}, 5*time.Second, 20*time.Millisecond, "script never wrote %s", path)
	return string(data)
}

func TestScriptNotifier_WritesPayloadToStdin(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	n := &ScriptNotifier{
		Interpreter: "sh",
		Script:      writeScript(t, dir),
		Env: map[string]string{
			"CLAUDE_PEON_DIR": "/home/u/.config/opencode/plugins/peon-ping",
			"OUT_DIR":         dir,
		},
	}

	require.NoError(t, n.Notify(Payload{HookEventName: UserPromptSubmit, SessionID: "s1", CWD: "/work"}))

	stdin := readEventually(t, filepath.Join(dir, "stdin.json"))
	assert.JSONEq(t, `{"hook_event_name":"UserPromptSubmit","session_id":"s1","cwd":"/work"}`, stdin)

	env := readEventually(t, filepath.Join(dir, "env.txt"))
	assert.Equal(t, "/home/u/.config/opencode/plugins/peon-ping", env)
}

func TestScriptNotifier_WhenNoInterpreter_ExecutesScriptDirectly(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	n := &ScriptNotifier{
		Script: writeScript(t, dir),
		Env:    map[string]string{"OUT_DIR": dir},
	}

	require.NoError(t, n.Notify(Payload{HookEventName: Stop, SessionID: "s2"}))

	stdin := readEventually(t, filepath.Join(dir, "stdin.json"))
	assert.True(t, strings.Contains(stdin, `"session_id":"s2"`))
}

func TestScriptNotifier_WhenChildExitsImmediately_ReturnsNilOrWriteError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	script := filepath.Join(dir, "quit.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nexit 0\n"), 0755))

	n := &ScriptNotifier{Interpreter: "sh", Script: script}

	for range 50 {
		err := n.Notify(Payload{HookEventName: Stop, SessionID: "s1"})
		if err == nil {
			continue
		}
		var de *DeliveryError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "write", de.Stage)
	}
}

func TestScriptNotifier_WhenInterpreterMissing_ReturnsSpawnError(t *testing.T) {
	t.Parallel()

	n := &ScriptNotifier{
		Interpreter: "/nonexistent/peon-bridge-interpreter",
		Script:      "peon.sh",
	}

	err := n.Notify(Payload{HookEventName: Stop})
	var de *DeliveryError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "spawn", de.Stage)
}

func TestScriptNotifier_DoesNotWaitForChild(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	script := filepath.Join(dir, "slow.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\ncat >/dev/null\nsleep 5\n"), 0755))

	n := &ScriptNotifier{Interpreter: "sh", Script: script}

	start := time.Now()
	require.NoError(t, n.Notify(Payload{HookEventName: Stop}))
	assert.Less(t, time.Since(start), 2*time.Second)
}
