//go:build !windows

package app

import (
	"syscall"
)

// RestartProcess 使用 syscall.Exec 原地替换当前进程，成功时不会返回
func RestartProcess(argv0 string, args []string, env []string) error {
	return syscall.Exec(argv0, args, env)
}
