package testutil

import (
	"sync"
	"time"
)

// FixedSource is a deterministic host source for engine tests.
//
// Random values come from a predetermined list, in order. Once the list is
// exhausted a seeded source continues with a splitmix64 sequence, and a
// fixed source panics. Time comes from a SteppingClock.
//
// Implements engine.Source.
//
// Thread-safety: FixedSource is safe for concurrent use via internal mutex.
type FixedSource struct {
	mu     sync.Mutex
	values []uint64
	idx    int
	seeded bool
	state  uint64
	clock  *SteppingClock
}

// NewFixedSource creates a source that returns values in order.
//
// Example:
//
//	src := NewFixedSource(10, 20)
//	src.RandomU64() // 10
//	src.RandomU64() // 20
//	src.RandomU64() // panic: all values exhausted
func NewFixedSource(values ...uint64) *FixedSource {
	return &FixedSource{values: values, clock: NewSteppingClock()}
}

// NewSeededSource creates a source that returns an endless deterministic
// sequence derived from seed. Distinct draws collide with negligible probability.
func NewSeededSource(seed uint64) *FixedSource {
	return &FixedSource{seeded: true, state: seed, clock: NewSteppingClock()}
}

// WithClock replaces the source's clock and returns the source.
func (s *FixedSource) WithClock(c *SteppingClock) *FixedSource {
	s.clock = c
	return s
}

// RandomU64 returns the next predetermined value.
//
// Panics if a fixed source has run out of values. This is a fail-fast
// approach to catch a test drawing more randomness than it planned for.
func (s *FixedSource) RandomU64() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.idx < len(s.values) {
		v := s.values[s.idx]
		s.idx++
		return v
	}
	if !s.seeded {
		panic("FixedSource: all values exhausted")
	}
	return s.splitmix()
}

// Now returns the clock's current time and advances it.
func (s *FixedSource) Now() time.Time {
	return s.clock.Now()
}

// Drawn returns how many random values have been returned so far from the
// predetermined list.
func (s *FixedSource) Drawn() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idx
}

// splitmix advances the splitmix64 state. Caller holds mu.
func (s *FixedSource) splitmix() uint64 {
	s.state += 0x9e3779b97f4a7c15
	z := s.state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
