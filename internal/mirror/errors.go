package mirror

import (
	"errors"
	"fmt"
)

// ErrInitFailed is returned when the mirror stays corrupt after the allowed
// number of re-initializations.
var ErrInitFailed = errors.New("cache initialization failed")

// ErrOffline is the cause of a SyncError raised while network use is disabled.
var ErrOffline = errors.New("network access disabled (offline mode)")

// EnvironmentError indicates no usable cache directory could be resolved.
type EnvironmentError struct {
	Err error
}

func (e *EnvironmentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("no usable cache directory: %v", e.Err)
	}
	return "no usable cache directory"
}

func (e *EnvironmentError) Unwrap() error {
	return e.Err
}

// SyncError indicates a clone, fetch or remote query failed.
type SyncError struct {
	Op  string // clone, fetch, ls-remote
	URL string
	Err error
}

func (e *SyncError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("%s %s failed: %v", e.Op, e.URL, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// CorruptMirrorError indicates the marker and the mirror content disagree.
type CorruptMirrorError struct {
	Dir    string
	Reason string
}

func (e *CorruptMirrorError) Error() string {
	return fmt.Sprintf("template mirror at %s is corrupt: %s", e.Dir, e.Reason)
}

// IsSyncError reports whether err is, or wraps, a SyncError.
func IsSyncError(err error) bool {
	var syncErr *SyncError
	return errors.As(err, &syncErr)
}
