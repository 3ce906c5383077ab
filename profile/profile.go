package profile

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/joshuapare/scopekit/internal/mmfile"
	"github.com/joshuapare/scopekit/scope"
)

// Entry is one parsed profile line.
type Entry struct {
	// Factory is the registered factory name.
	Factory string

	// Count is the preallocation target.
	Count int

	// Capacity is the initial-capacity hint for buffer factories; zero when
	// the line has no third field.
	Capacity int
}

// scan parses the stream line by line, handing each entry to apply as soon
// as it is read. It stops at the first malformed line or apply failure.
func scan(r io.Reader, apply func(Entry) error) error {
	// BOMOverride switches to UTF-16 when the stream leads with a UTF-16
	// byte-order mark, and strips a UTF-8 one.
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	sc := bufio.NewScanner(transform.NewReader(r, dec))

	ln := 0
	for sc.Scan() {
		ln++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 || len(fields) > 3 {
			return fmt.Errorf("%w: line %d: %q", ErrBadSyntax, ln, line)
		}
		count, err := strconv.Atoi(fields[1])
		if err != nil || count < 0 {
			return fmt.Errorf("%w: line %d: bad count %q", ErrBadSyntax, ln, fields[1])
		}
		e := Entry{Factory: fields[0], Count: count}
		if len(fields) == 3 {
			capacity, err := strconv.Atoi(fields[2])
			if err != nil || capacity < 0 {
				return fmt.Errorf("%w: line %d: bad capacity %q", ErrBadSyntax, ln, fields[2])
			}
			e.Capacity = capacity
		}
		if err := apply(e); err != nil {
			return err
		}
	}
	return sc.Err()
}

// Parse reads profile entries without touching the factory registry. Used
// by tooling that inspects or merges profiles outside the producing
// process.
func Parse(r io.Reader) ([]Entry, error) {
	var entries []Entry
	err := scan(r, func(e Entry) error {
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Load installs each entry as the named factory's preallocation target as
// it is read. The load aborts at the first malformed line or unknown
// factory name; entries before the bad line stay installed.
func Load(r io.Reader) error {
	return scan(r, func(e Entry) error {
		f, ok := scope.Lookup(e.Factory)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownFactory, e.Factory)
		}
		f.SetTarget(e.Count, e.Capacity)
		return nil
	})
}

// LoadFile loads a profile from disk. The file is memory-mapped rather
// than read into a transient buffer.
func LoadFile(path string) error {
	data, cleanup, err := mmfile.Map(path)
	if err != nil {
		return err
	}
	defer cleanup()
	return Load(bytes.NewReader(data))
}

// Save writes the current allocation figures of every registered factory
// whose high-water demand is nonzero, in the format Load reads back.
func Save(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, s := range scope.Snapshot() {
		if s.HighWater == 0 {
			continue
		}
		var err error
		if s.CapHigh > 0 {
			_, err = fmt.Fprintf(bw, "%s %d %d\n", s.Name, s.HighWater, s.CapHigh)
		} else {
			_, err = fmt.Fprintf(bw, "%s %d\n", s.Name, s.HighWater)
		}
		if err != nil {
			return err
		}
	}
	return bw.Flush()
}

// SaveFile atomically replaces the profile at path: the figures are written
// to a temporary file in the same directory, synced to disk and renamed
// into place, so a crash mid-save never truncates an existing profile.
func SaveFile(path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := Save(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := syncFile(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Preallocate tops every registered factory up to its installed target and
// starts a new demand cycle. Call at a quiet point.
func Preallocate() {
	for _, f := range scope.Factories() {
		f.Preallocate()
	}
}

// Reset drops every factory's standby set and zeroes all demand
// accounting.
func Reset() {
	for _, f := range scope.Factories() {
		f.Reset()
	}
}
