//go:build unix

package notify

import "syscall"

// detachedAttr puts the child in its own session so it outlives the
// bridge and is not tied to the controlling terminal.
func detachedAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true}
}
