package profile

import "errors"

var (
	// ErrBadSyntax reports a malformed profile line.
	ErrBadSyntax = errors.New("profile: bad syntax")

	// ErrUnknownFactory reports a profile entry naming a factory that is not
	// registered. Loading stops at the first unknown name so a stale profile
	// is detected rather than silently half-applied.
	ErrUnknownFactory = errors.New("profile: unknown factory")
)
