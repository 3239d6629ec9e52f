// Package attribute holds the pieces shared by every named attribute of an
// effect: the descriptor/instance split, label lookups, and clips.
//
// A Descriptor is built once, frozen on publish and shared read-only. Each
// Instance owns a private copy of the descriptor's properties plus a unique
// identity, so runtime overrides never leak back into the descriptor.
package attribute
