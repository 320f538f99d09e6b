package schema

import "errors"

var (
	// ErrNotStruct is returned when a descriptor is requested for a type
	// that is not a struct or pointer to struct.
	ErrNotStruct = errors.New("schema: type is not a struct")

	// ErrMissingSetter indicates a property member with a getter but no
	// matching setter that is not marked readonly.
	ErrMissingSetter = errors.New("schema: property has no setter")

	// ErrMissingGetter indicates a property member with a setter but no
	// matching getter.
	ErrMissingGetter = errors.New("schema: property has no getter")

	// ErrUnsupportedType indicates a member whose type has no conversion
	// path.
	ErrUnsupportedType = errors.New("schema: unsupported member type")
)
