package pocket

import "errors"

// Pocket operation errors.
var (
	// ErrTypeConflict is returned by SubPocket when the key already
	// holds a value that is not a sub-pocket.
	ErrTypeConflict = errors.New("key holds a non-pocket value")

	// ErrAlreadyAttached is returned by Set when the given pocket is
	// already attached to a parent, or would create a cycle.
	ErrAlreadyAttached = errors.New("pocket is already attached")

	// ErrKeyNotFound is returned by callers that must distinguish a
	// missing key from a present one (the typed getters return their
	// default instead).
	ErrKeyNotFound = errors.New("key not found")

	// ErrUnsupportedValue is returned by Set for value types outside
	// the supported set (nil, string, bool, numbers, []any, maps,
	// sub-pockets).
	ErrUnsupportedValue = errors.New("unsupported value type")
)
