// Package providers contains the pluggable on-disk encodings for
// configuration value trees. A Provider moves whole trees between a path and
// the values.Value form; it knows nothing about the struct types the trees
// came from. YAML and JSON providers map paths to plain files, the SQLite
// provider maps logical paths to rows in a local database, and the memory
// provider backs tests.
package providers
