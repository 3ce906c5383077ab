//go:build linux || freebsd

package profile

import (
	"os"

	"golang.org/x/sys/unix"
)

// syncFile forces file contents to stable storage. fdatasync is enough
// here; the rename that follows carries the metadata.
func syncFile(f *os.File) error {
	return unix.Fdatasync(int(f.Fd()))
}
