// Package queue provides the durable, ordered log of pending mutations.
//
// # Overview
//
// Every entity save enqueues a row here in the same transaction, so mutation
// intent survives process loss. Rows move through
// pending → in_flight → done | failed; failed rows stay visible for manual
// retry and are never auto-discarded.
//
// # Ordering
//
// Sequence is an AUTOINCREMENT primary key, so it is strictly monotonic.
// NextReady enforces per-entity FIFO: a row is ready only when no earlier
// row for the same entity is still short of done. Rows for unrelated
// entities may be returned in any relative order; the afterSequence cursor
// lets the engine skip a dependency-blocked row and keep draining the rest
// of the queue within one pass.
//
// # Crash recovery
//
// A crash between in_flight and done leaves the row in_flight. ResetInFlight
// returns such rows to pending at startup; the retried submission is safe
// because every remote call carries the entity's local id as an idempotency
// token.
package queue
