package gpu

import "testing"

func TestBeforeWraps(t *testing.T) {
	tests := []struct {
		a, b uint32
		want bool
	}{
		{0, 1, true},
		{1, 1, false},
		{2, 1, false},
		{0xffff_fff0, 5, true},
		{5, 0xffff_fff0, false},
	}
	for _, tc := range tests {
		if got := before(tc.a, tc.b); got != tc.want {
			t.Errorf("before(%#x, %#x) = %v", tc.a, tc.b, got)
		}
	}
}
