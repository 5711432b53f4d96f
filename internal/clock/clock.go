// Package clock provides the server's wall-clock source: the host's wall
// clock converted to the Unix-microsecond midpoint the wire format
// carries, with a fixed signed offset applied before signing.
package clock

import (
	"math"

	"github.com/kyhwana/roughenough/mjd"
)

// Source computes the signed response midpoint: the host's wall clock plus
// a fixed, signed per-deployment offset.
type Source struct {
	// OffsetSeconds is added to every reported midpoint. May be negative.
	OffsetSeconds int64
}

// NewSource returns a Source with the given offset.
func NewSource(offsetSeconds int64) *Source {
	return &Source{OffsetSeconds: offsetSeconds}
}

// MidpointMicros returns the current midpoint, in Unix microseconds, with
// OffsetSeconds applied and the result clamped to [0, 2^63-1]. It is handed to the batch responder as a bound
// method value rather than through an interface.
func (s *Source) MidpointMicros() uint64 {
	now := mjd.Now().Unix()
	micros := now.UnixMicro()

	offsetMicros := s.OffsetSeconds * 1_000_000
	if offsetMicros/1_000_000 != s.OffsetSeconds {
		if s.OffsetSeconds < 0 {
			return 0
		}
		return math.MaxInt64
	}
	signed := micros + offsetMicros
	if offsetMicros > 0 && signed < micros {
		return math.MaxInt64
	}

	if signed < 0 {
		return 0
	}
	return uint64(signed)
}
