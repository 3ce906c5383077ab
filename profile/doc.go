// Package profile persists and restores factory allocation profiles.
//
// A profile is a plain-text file recording, per factory, how many objects a
// previous run constructed (and for buffer factories, the largest capacity
// requested). Loading a profile at startup installs those figures as
// preallocation targets; Preallocate then constructs everything up front so
// that steady-state allocation under pool scopes never constructs and the
// garbage collector stays quiet.
//
// # Format
//
// One factory per line, whitespace separated:
//
//	<factory-name> <count> [<capacity>]
//
// Blank lines are ignored. Files may carry a UTF-8 or UTF-16 byte-order
// mark; both are handled transparently.
//
// # Typical usage
//
//	if err := profile.LoadFile("alloc.profile"); err != nil { ... }
//	profile.Preallocate()
//	...
//	defer profile.SaveFile("alloc.profile")
package profile
