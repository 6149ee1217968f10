package carestatus

import "fmt"

// FetchError wraps a read failure from the backing store. The caller
// recovers by retaining the last-known-good cache entry; only
// user-initiated refreshes surface it as a notification.
type FetchError struct {
	Op   string
	Date string
	Err  error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.Date != "" {
		return fmt.Sprintf("care status fetch %s for %s: %v", e.Op, e.Date, e.Err)
	}
	return fmt.Sprintf("care status fetch %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying store error.
func (e *FetchError) Unwrap() error { return e.Err }

// WriteError wraps an insert/delete failure during an optimistic
// action. Recovery is a compensating local rollback plus a per-dog
// notification.
type WriteError struct {
	Op    string
	DogID string
	Err   error
}

// Error implements the error interface.
func (e *WriteError) Error() string {
	return fmt.Sprintf("care log %s for dog %s: %v", e.Op, e.DogID, e.Err)
}

// Unwrap returns the underlying store error.
func (e *WriteError) Unwrap() error { return e.Err }

// ValidationError rejects bad input before any network call is made.
// It is surfaced inline at the point of input, never as a toast alone.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}
