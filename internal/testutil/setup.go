// Package testutil provides shared helpers for scopekit tests.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/joshuapare/scopekit/scope"
)

var nameSeq atomic.Uint64

// FactoryName returns a factory name unique across the test binary. The
// factory registry is process-wide and append-only, so every test that
// registers must use a fresh name.
func FactoryName(t *testing.T) string {
	t.Helper()
	base := strings.ReplaceAll(t.Name(), "/", ".")
	return fmt.Sprintf("test/%s#%d", base, nameSeq.Add(1))
}

// NewEnv returns an environment closed automatically at test end.
func NewEnv(t *testing.T) *scope.Env {
	t.Helper()
	e := scope.NewEnv()
	t.Cleanup(e.Close)
	return e
}

// WriteFile writes content to a file under a per-test temporary directory
// and returns its path.
func WriteFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}
