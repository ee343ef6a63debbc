package helpers

import (
	"testing"
)

func TestFloat64Pointer(t *testing.T) {
	for _, val := range []float64{3.14, 0.0, -42.5} {
		ptr := Float64Pointer(val)
		if ptr == nil {
			t.Fatalf("Float64Pointer returned nil for value %f", val)
		}
		if *ptr != val {
			t.Errorf("Float64Pointer returned %f, expected %f", *ptr, val)
		}
	}
}

func TestIntPointer(t *testing.T) {
	ptr := IntPointer(7)
	if ptr == nil || *ptr != 7 {
		t.Errorf("IntPointer returned %v, expected 7", ptr)
	}

	a, b := IntPointer(1), IntPointer(1)
	if a == b {
		t.Errorf("IntPointer returned the same pointer twice")
	}
}

func TestIntPointerIfPositive(t *testing.T) {
	if p := IntPointerIfPositive(0); p != nil {
		t.Errorf("expected nil for zero, got %d", *p)
	}
	if p := IntPointerIfPositive(-1); p != nil {
		t.Errorf("expected nil for negative, got %d", *p)
	}
	if p := IntPointerIfPositive(12); p == nil || *p != 12 {
		t.Errorf("expected 12, got %v", p)
	}
}
