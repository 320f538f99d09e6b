// Package values defines the generic hierarchical value tree used as the
// serialization-neutral intermediate form between native configuration
// structs and on-disk encodings. A Value is a tagged union over null, bool,
// int, float, string, list, and map variants.
package values
