package plot

import (
	"reflect"
	"testing"
)

func TestHistoryKeepsMostRecent(t *testing.T) {
	const k = 5
	for _, total := range []int{0, 1, k - 1, k, k + 1, 3*k + 2} {
		h := NewHistory[int](k)
		for i := 0; i < total; i++ {
			h.Append(i)
		}
		wantLen := total
		if wantLen > k {
			wantLen = k
		}
		if h.Len() != wantLen || h.Cap() != k {
			t.Fatalf("total=%d: len=%d cap=%d; want len=%d cap=%d", total, h.Len(), h.Cap(), wantLen, k)
		}
		want := make([]int, 0, wantLen)
		for i := total - wantLen; i < total; i++ {
			want = append(want, i)
		}
		if got := h.Values(); !reflect.DeepEqual(got, want) {
			t.Fatalf("total=%d: got %v want %v", total, got, want)
		}
	}
}

func TestHistoryValuesIsACopy(t *testing.T) {
	h := NewHistory[float64](2)
	h.Append(1)
	v := h.Values()
	v[0] = 99
	if h.Values()[0] != 1 {
		t.Fatalf("Values exposed internal storage")
	}
}

func TestNewHistoryRejectsZeroCapacity(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	NewHistory[int](0)
}
