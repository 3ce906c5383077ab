package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/joshuapare/scopekit/profile"
)

// parseFile reads and parses one profile file.
func parseFile(path string) ([]profile.Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return profile.Parse(f)
}

// writeProfile writes entries to path in the format profile.Load reads.
func writeProfile(path string, entries []profile.Entry) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	for _, e := range entries {
		if e.Capacity > 0 {
			fmt.Fprintf(w, "%s %d %d\n", e.Factory, e.Count, e.Capacity)
		} else {
			fmt.Fprintf(w, "%s %d\n", e.Factory, e.Count)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
