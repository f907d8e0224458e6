// Package clone provides structural deep copies of the loosely-typed object
// model used for machine contexts: map[string]any, []any, and scalar leaves.
//
// Clone semantics: maps and slices are copied recursively so the result shares
// no nested structure with the source. Every other value (numbers, strings,
// bools, but also structs, pointers, funcs, channels) is copied with plain Go
// assignment, so pointer-like leaves still alias the original. Cyclic
// structures are not detected; cloning one does not terminate.
package clone

// Value deep-copies v according to the package's clone semantics.
func Value(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		return Map(typed)
	case []any:
		return Slice(typed)
	default:
		return v
	}
}

// Map deep-copies m. A nil map clones to nil.
func Map(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}

	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = Value(v)
	}

	return out
}

// Slice deep-copies s. A nil slice clones to nil.
func Slice(s []any) []any {
	if s == nil {
		return nil
	}

	out := make([]any, len(s))
	for i, v := range s {
		out[i] = Value(v)
	}

	return out
}
