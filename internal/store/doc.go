// Package store provides SQLite-backed persistence for effect instances.
//
// A save captures everything an instance holds beyond its descriptor:
//   - Clips: connection state per clip
//   - Param values: static value per parameter, canonical JSON
//   - Keyframes: one row per keyframe, ordered by time
//   - Properties: host-settable property overrides (labels, display ranges)
//
// Each save gets the next sequence number and a state hash, so two saves of
// an unchanged effect compare equal. Values use the canonical encoding of
// the property package (NFC strings, shortest round-trip doubles).
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//   - user_version: schema version, checked on open
package store
