//go:build !unix

package notify

import "syscall"

func detachedAttr() *syscall.SysProcAttr {
	return nil
}
