package engine

import "errors"

// Sentinel errors for the fatal categories named in SPEC_FULL.md §7,
// generalized from the teacher's own CommandError (a typed error
// distinguishing "unknown command" from other daemon-control failures).
var (
	// ErrUnknownServiceType is returned when a descriptor's Service.Type
	// does not match one of simple, oneshot, notify, forking, sysv.
	ErrUnknownServiceType = errors.New("unknown service type")

	// ErrCommandFailed is returned when a checked command (one whose
	// Exec* line did not begin with '-') exits non-zero.
	ErrCommandFailed = errors.New("command failed")
)
