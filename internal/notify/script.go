package notify

import (
	"encoding/json"
	"log/slog"
	"os"
	"os/exec"
)

// ScriptNotifier delivers payloads to an external script by spawning it
// detached and writing the JSON payload to its stdin.
type ScriptNotifier struct {
	// Interpreter runs Script. Empty means Script is executed directly.
	Interpreter string
	Script      string
	// Env is added on top of the parent's environment. The child inherits
	// the bridge's working directory.
	Env map[string]string
}

// Notify spawns the script, hands it p and returns without waiting for it.
// The child's stdout and stderr go to the null device and its exit status
// is never inspected.
func (n *ScriptNotifier) Notify(p Payload) error {
	data, err := json.Marshal(p)
	if err != nil {
		return &DeliveryError{Stage: "marshal", Err: err}
	}

	cmd := n.command()

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return &DeliveryError{Stage: "spawn", Err: err}
	}

	if err := cmd.Start(); err != nil {
		return &DeliveryError{Stage: "spawn", Err: err}
	}

	slog.Debug("notification script started",
		"hook_event_name", string(p.HookEventName),
		"session_id", p.SessionID,
		"pid", cmd.Process.Pid)

	_, werr := stdin.Write(data)
	cerr := stdin.Close()

	// Wait closes the pipe, so it may only start once writing is done.
	// Reaping keeps detached children from lingering as zombies.
	go func() { _ = cmd.Wait() }()

	if werr != nil {
		return &DeliveryError{Stage: "write", Err: werr}
	}
	if cerr != nil {
		return &DeliveryError{Stage: "write", Err: cerr}
	}
	return nil
}

func (n *ScriptNotifier) command() *exec.Cmd {
	var cmd *exec.Cmd
	if n.Interpreter != "" {
		cmd = exec.Command(n.Interpreter, n.Script)
	} else {
		cmd = exec.Command(n.Script)
	}

	cmd.Env = os.Environ()
	for k, v := range n.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	cmd.SysProcAttr = detachedAttr()

	return cmd
}
