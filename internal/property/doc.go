// Package property provides the typed property sets that every descriptor
// and instance in the host is built on.
//
// A Set maps names to fixed-dimension sequences of one declared Type
// (String, Int, Double or Pointer). Every access is checked against the
// declaration: unknown names, out-of-range indices and values of the wrong
// type are errors from package status, never silent coercions.
//
// # Hooks
//
// Each name may carry one NotifyHook and one GetHook. Registering a second
// hook replaces the first.
//
//   - NotifyHook runs after a write is stored. Get from inside the hook
//     returns the new value. An error from the hook undoes the write.
//   - GetHook supplies a computed value that takes precedence over the
//     stored one (derived counts, connection state).
//
// Writing a property from inside its own notify hook fails with Reentrant.
//
// # Host-facing writes
//
// Set and SetAll refuse properties whose Spec is not HostSettable.
// SetInternal and SetAllInternal are the owner's writers and skip that check.
// Freeze turns a published descriptor's set read-only.
//
// # Encoding
//
// Entries, MarshalValues and MarshalCanonical expose the set as an opaque bag
// of typed values for persistence and schema hashing.
package property
