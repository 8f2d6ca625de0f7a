package provider

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ErrNotInteger is returned by Incr/Decr when the stored value is not a
// decimal integer.
var ErrNotInteger = errors.New("provider: value is not an integer")

// ErrOverflow is returned by Incr/Decr when the result does not fit in int64.
var ErrOverflow = errors.New("provider: increment or decrement would overflow")

// ParseCounter decodes a counter value. A nil slice is a missing counter (0).
func ParseCounter(b []byte) (int64, error) {
	if b == nil {
		return 0, nil
	}
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNotInteger, b)
	}
	return n, nil
}

// FormatCounter encodes a counter value as decimal ASCII.
func FormatCounter(n int64) []byte {
	return strconv.AppendInt(nil, n, 10)
}

// AddDelta applies a signed step of magnitude delta to cur.
// Used by in-process stores that emulate INCRBY/DECRBY.
func AddDelta(cur int64, delta uint64, negative bool) (int64, error) {
	if delta > math.MaxInt64 {
		return 0, ErrOverflow
	}
	d := int64(delta)
	if negative {
		if cur < math.MinInt64+d {
			return 0, ErrOverflow
		}
		return cur - d, nil
	}
	if cur > math.MaxInt64-d {
		return 0, ErrOverflow
	}
	return cur + d, nil
}
