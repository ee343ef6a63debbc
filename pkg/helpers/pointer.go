package helpers

// Float64Pointer returns a pointer to the given float64 value.
func Float64Pointer(f float64) *float64 {
	return &f
}

// IntPointer returns a pointer to the given int value.
func IntPointer(i int) *int {
	return &i
}

// IntPointerIfPositive returns nil for zero or negative values, which
// providers use to mean "not reported".
func IntPointerIfPositive(i int) *int {
	if i <= 0 {
		return nil
	}
	return &i
}
