package engine

import (
	"encoding/binary"
	"time"

	"github.com/google/uuid"
)

// Source supplies the host services a reducer needs: fresh 64-bit random
// values and the current time.
// Implemented by SystemSource (production) and testutil.FixedSource (tests).
type Source interface {
	RandomU64() uint64
	Now() time.Time
}

// SystemSource draws randomness from random (version 4) UUIDs and time from
// the system clock.
//
// A v4 UUID carries 122 random bits; the version and variant bits sit in
// different halves, so folding the halves together with XOR yields 64 fully
// random bits.
//
// Thread-safety: SystemSource is stateless and safe for concurrent use.
type SystemSource struct{}

// RandomU64 returns a uniformly distributed 64-bit value.
//
// Panics if the system random source fails (should never happen in practice).
func (SystemSource) RandomU64() uint64 {
	u := uuid.Must(uuid.NewRandom())
	return binary.BigEndian.Uint64(u[:8]) ^ binary.BigEndian.Uint64(u[8:])
}

// Now returns the current time in UTC.
func (SystemSource) Now() time.Time {
	return time.Now().UTC()
}
