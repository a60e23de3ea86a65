package asset

import (
	"errors"
	"math"
	"time"
)

// ErrExpirationOverflow is returned when an expiration cannot be represented.
var ErrExpirationOverflow = errors.New("asset: expiration overflow")

// Advance returns from + unit*units, computed in whole seconds. It fails
// instead of wrapping when the result exceeds the int64 seconds range.
func Advance(from time.Time, unit time.Duration, units uint64) (time.Time, error) {
	step := int64(unit / time.Second)
	if step <= 0 {
		return time.Time{}, errors.New("asset: unit duration must be at least one second")
	}
	if units > uint64(math.MaxInt64/step) {
		return time.Time{}, ErrExpirationOverflow
	}
	delta := step * int64(units)

	base := from.Unix()
	if base > math.MaxInt64-delta {
		return time.Time{}, ErrExpirationOverflow
	}
	return time.Unix(base+delta, 0).UTC(), nil
}
