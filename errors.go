package frankentui

import "errors"

// Sentinel errors for the session lifecycle (spec.md §7), matching the
// teacher's plain fmt.Errorf("...: %w", err) wrapping style in screen.go's
// EnterRawMode/ExitRawMode - these are the values callers compare against
// with errors.Is once a lower-level syscall error has been wrapped.
var (
	ErrCapabilityAcquisitionFailed = errors.New("frankentui: capability acquisition failed")
	ErrRawModeEntryFailed          = errors.New("frankentui: raw mode entry failed")
	ErrWriteFailed                 = errors.New("frankentui: write failed")
	ErrAlreadyStarted              = errors.New("frankentui: session already started")
	ErrNotStarted                  = errors.New("frankentui: session not started")
)
