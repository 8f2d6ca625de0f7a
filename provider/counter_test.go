package provider

import (
	"errors"
	"math"
	"testing"
)

func TestParseCounter(t *testing.T) {
	cases := []struct {
		in      []byte
		want    int64
		wantErr bool
	}{
		{nil, 0, false},
		{[]byte("0"), 0, false},
		{[]byte("42"), 42, false},
		{[]byte("-7"), -7, false},
		{[]byte(""), 0, true},
		{[]byte("abc"), 0, true},
		{[]byte("1.5"), 0, true},
	}
	for _, tc := range cases {
		got, err := ParseCounter(tc.in)
		if tc.wantErr {
			if !errors.Is(err, ErrNotInteger) {
				t.Fatalf("ParseCounter(%q): expected ErrNotInteger, got %v", tc.in, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("ParseCounter(%q) = %d, %v; want %d", tc.in, got, err, tc.want)
		}
	}
}

func TestFormatCounterRoundTrip(t *testing.T) {
	for _, n := range []int64{0, 1, -1, math.MaxInt64, math.MinInt64} {
		got, err := ParseCounter(FormatCounter(n))
		if err != nil || got != n {
			t.Fatalf("round trip %d: got %d err=%v", n, got, err)
		}
	}
}

func TestAddDelta(t *testing.T) {
	if got, err := AddDelta(10, 5, false); err != nil || got != 15 {
		t.Fatalf("incr: got %d err=%v", got, err)
	}
	if got, err := AddDelta(10, 15, true); err != nil || got != -5 {
		t.Fatalf("decr: got %d err=%v", got, err)
	}
	if _, err := AddDelta(math.MaxInt64, 1, false); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected overflow on incr, got %v", err)
	}
	if _, err := AddDelta(math.MinInt64, 1, true); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected overflow on decr, got %v", err)
	}
	if _, err := AddDelta(0, math.MaxUint64, false); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected overflow for huge delta, got %v", err)
	}
}
