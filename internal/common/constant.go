package common

// PlaceholderOwner is the reserved owner id for photos captured before their
// parent entity's final id is known. It is never a valid entity id.
const PlaceholderOwner = "__unassigned__"

// IdempotencyKeyHeader is the HTTP header carrying the entity's stable local
// id on every mutation sent to the remote API, letting the server deduplicate
// a retried request.
const IdempotencyKeyHeader = "Idempotency-Key"
