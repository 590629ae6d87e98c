// Dumpwarden - Scheduled Database Dump Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dumpwarden

package backup

import (
	"errors"
	"fmt"
	"strings"
)

// ErrRunInProgress is returned by Orchestrator.Run when another run is active.
var ErrRunInProgress = errors.New("backup run already in progress")

// ProducerErrorKind classifies producer failures.
type ProducerErrorKind int

const (
	// ConnectionFailed means the remote host could not be reached or authenticated.
	ConnectionFailed ProducerErrorKind = iota + 1

	// RemoteCommandFailed means the dump command exited non-zero.
	RemoteCommandFailed

	// TransferFailed means the dump could not be copied to the local archive.
	TransferFailed
)

// String returns the snake_case kind used in logs and metrics.
func (k ProducerErrorKind) String() string {
	switch k {
	case ConnectionFailed:
		return "connection_failed"
	case RemoteCommandFailed:
		return "remote_command_failed"
	case TransferFailed:
		return "transfer_failed"
	default:
		return "unknown"
	}
}

// maxStderr bounds the stderr kept in a ProducerError.
const maxStderr = 2048

// ProducerError reports why no artifact was produced for a source.
type ProducerError struct {
	Source string
	Kind   ProducerErrorKind

	// ExitCode and Stderr are set for RemoteCommandFailed.
	ExitCode int
	Stderr   string

	Err error
}

func (e *ProducerError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "produce %s: %s", e.Source, strings.ReplaceAll(e.Kind.String(), "_", " "))
	if e.Kind == RemoteCommandFailed {
		fmt.Fprintf(&b, " (exit %d)", e.ExitCode)
		if s := strings.TrimSpace(e.Stderr); s != "" {
			fmt.Fprintf(&b, ": %s", s)
		}
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *ProducerError) Unwrap() error { return e.Err }

// NewConnectionError builds a ConnectionFailed error.
func NewConnectionError(source string, err error) *ProducerError {
	return &ProducerError{Source: source, Kind: ConnectionFailed, Err: err}
}

// NewRemoteCommandError builds a RemoteCommandFailed error. Stderr is truncated.
func NewRemoteCommandError(source string, exitCode int, stderr string, err error) *ProducerError {
	if len(stderr) > maxStderr {
		stderr = stderr[:maxStderr]
	}
	return &ProducerError{Source: source, Kind: RemoteCommandFailed, ExitCode: exitCode, Stderr: stderr, Err: err}
}

// NewTransferError builds a TransferFailed error.
func NewTransferError(source string, err error) *ProducerError {
	return &ProducerError{Source: source, Kind: TransferFailed, Err: err}
}

// ProducerErrorKindOf returns the kind of a wrapped ProducerError, or 0.
func ProducerErrorKindOf(err error) ProducerErrorKind {
	var pe *ProducerError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return 0
}

// StoreError reports a failed Store at a destination.
type StoreError struct {
	Destination string
	Err         error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store to %s: %v", e.Destination, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// PruneError reports a failed List or Prune after a successful Store.
type PruneError struct {
	Destination string
	Err         error
}

func (e *PruneError) Error() string {
	return fmt.Sprintf("prune at %s: %v", e.Destination, e.Err)
}

func (e *PruneError) Unwrap() error { return e.Err }

// SyncError reports a failed batched publish.
type SyncError struct {
	Syncer string
	Err    error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync %s: %v", e.Syncer, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }
