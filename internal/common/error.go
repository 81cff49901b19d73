// Package common defines shared constants and sentinel errors used across
// the store, engine and service layers of fieldsync. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// ErrorStorage marks a local persistence failure (quota, IO, schema).
	// A save wrapping this error must surface to the caller immediately;
	// it is never swallowed.
	ErrorStorage = errors.New("local storage failure")

	// ErrorUnavailable marks a transport-level failure reaching the remote
	// API: connectivity is down and the drain must abort rather than burn
	// retry attempts.
	ErrorUnavailable = errors.New("remote unavailable")

	// ErrSyncInProgress is returned when a drain is requested while another
	// drain holds the lock. The trigger is dropped, not queued.
	ErrSyncInProgress = errors.New("sync already in progress")

	// ErrInvalidOperation marks a queue entry whose operation the engine
	// does not recognize.
	ErrInvalidOperation = errors.New("invalid queue operation")
)
