//go:build darwin

package profile

import (
	"os"

	"golang.org/x/sys/unix"
)

// syncFile forces file contents to stable storage. On Darwin fsync does
// not reach the platter; F_FULLFSYNC does.
func syncFile(f *os.File) error {
	_, err := unix.FcntlInt(f.Fd(), unix.F_FULLFSYNC, 0)
	return err
}
