// Package carestatus holds the domain types of the daily-care
// dashboard: dog roster records, care log entries, aggregated per-dog
// care status, flags and derived observations, together with the
// validation rules and the error taxonomy shared by the engine.
//
// # Errors
//
// Three error kinds cross the subsystem boundary:
//
//   - FetchError: a read from the backing store failed. The last-known
//     good cache entry is retained; only user-initiated refreshes
//     surface a notification.
//   - WriteError: an insert/delete behind an optimistic action failed.
//     The local mutation is rolled back and a per-dog notification
//     fires.
//   - ValidationError: input was rejected before any network call.
//
// Nothing in this subsystem propagates an error uncaught into
// rendering; total backing-store unavailability degrades to empty or
// stale state.
package carestatus
