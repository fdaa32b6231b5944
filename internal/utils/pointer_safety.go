package utils

// Value dereferences v, yielding the zero value for nil. Generated API
// structs leave optional nested objects nil.
func Value[T any](v *T) T {
	if v == nil {
		return *new(T)
	}
	return *v
}
