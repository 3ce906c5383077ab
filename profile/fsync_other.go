//go:build !linux && !freebsd && !darwin

package profile

import "os"

// syncFile forces file contents to stable storage.
func syncFile(f *os.File) error {
	return f.Sync()
}
