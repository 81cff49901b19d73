// Package entities provides the local persistence layer for field entities.
//
// # Overview
//
// The package defines a Repository interface for saving and querying
// FieldEntity records (see internal/models). A SQLite-backed implementation
// (SQLiteRepository) persists data using a dbx.DBTX (either *sql.DB or
// *sql.Tx), which lets the capture service write an entity and its queue
// entry inside one transaction.
//
// # Data Model
//
// Each row keeps the entity's local UUID (stable for its whole lifetime),
// domain attributes, the ordered photo id list (JSON-encoded), the synced
// flag and the server-assigned id. The invariant server_id IS NOT NULL ⟺
// synced=1 is maintained by MarkSynced being the only transition to the
// synced state.
//
// # Errors
//
// Write failures wrap common.ErrorStorage and must surface to the caller
// immediately; lookups of unknown ids return common.ErrorNotFound.
package entities
