package geom

import "testing"

func TestResolveExpressions(t *testing.T) {
	cases := []struct {
		name   string
		expr   any
		axis   int
		offset int
		want   int
	}{
		{"sum expression", "64-26+5", 64, 0, 43},
		{"negative literal wraps", -5, 64, 0, 59},
		{"axis length is inclusive", 64, 64, 0, 64},
		{"plain literal", 12, 64, 0, 12},
		{"json number", float64(12), 64, 0, 12},
		{"offset added before wrap", "-2", 64, 1, 63},
		{"offset on literal", 5, 64, 10, 15},
		{"no axis disables wrapping", -5, 0, 0, -5},
		{"foreign characters ignored", "a64b-c26", 64, 0, 38},
		{"leading minus", "-26", 64, 0, 38},
		{"double wrap", -130, 64, 0, 62},
		{"wrap above axis", 70, 64, 0, 6},
		{"empty string", "", 64, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Resolve(tc.expr, tc.axis, tc.offset)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if got != tc.want {
				t.Errorf("Resolve(%v, %d, %d) = %d, want %d", tc.expr, tc.axis, tc.offset, got, tc.want)
			}
		})
	}
}

func TestResolveRejectsBadType(t *testing.T) {
	if _, err := Resolve([]string{"x"}, 64, 0); err == nil {
		t.Fatal("expected error for non-coordinate type")
	}
}
