// Package schema builds compiled conversion plans for configuration struct
// types. A plan (TypeDescriptor) is derived from a type exactly once, on
// first use, and holds one pair of specialized converter closures per
// serializable member. Converters move data between native struct fields and
// values.Value trees, applying the numeric coercion matrix where the native
// and tree numeric kinds differ and delegating recursively for nested
// structs, slices, and maps.
//
// # Member discovery
//
// Exported struct fields are serializable by default under their field name.
// The `conf` struct tag overrides the serialized name; `conf:"-"` excludes a
// field; the `readonly` option marks a member that is written to disk but
// never loaded back. When a type declares Get<Field>/Set<Field> method pairs,
// the plan routes access through them instead of direct field access, giving
// computed properties the same accessor shape as plain fields.
//
// # Error policy
//
// Structural problems in the type itself (a property getter without a
// matching setter, an unsupported member type) abort plan construction and
// surface at first use. Structural problems in the data (a tree node whose
// kind does not match the member) are logged and skipped per member so a
// partially valid document still populates everything else.
package schema
