package philox

import "math/bits"

// laneState is the per-lane generator record. The counter is the stream
// position, the key is fixed for the life of the stream, result caches
// tenRounds(counter, key) and phase indexes the next unconsumed word of it.
type laneState struct {
	counter Block
	key     Key
	result  Block
	phase   uint32
}

// setSeed derives the key from seed (low word, high word) and rewinds
// the counter to zero.
func (s *laneState) setSeed(seed uint64) {
	s.key = Key{uint32(seed), uint32(seed >> 32)}
	s.counter = Block{}
	s.phase = 0
}

// counterHalves returns the counter as two 64-bit halves.
func (s *laneState) counterHalves() (lo, hi uint64) {
	lo = uint64(s.counter[0]) | uint64(s.counter[1])<<32
	hi = uint64(s.counter[2]) | uint64(s.counter[3])<<32
	return lo, hi
}

func (s *laneState) setCounterHalves(lo, hi uint64) {
	s.counter = Block{uint32(lo), uint32(lo >> 32), uint32(hi), uint32(hi >> 32)}
}

// discardSequence moves the stream n sequences ahead. A sequence is the
// upper 64 bits of the counter, so each one spans 2^64 blocks.
func (s *laneState) discardSequence(n uint64) {
	lo, hi := s.counterHalves()
	s.setCounterHalves(lo, hi+n)
}

// discard moves the counter n blocks ahead, carrying across all four
// words and wrapping at 2^128.
func (s *laneState) discard(n uint64) {
	lo, hi := s.counterHalves()
	lo, carry := bits.Add64(lo, n, 0)
	hi += carry
	s.setCounterHalves(lo, hi)
}

// refill recomputes the cached block for the current counter.
func (s *laneState) refill() {
	s.result = tenRounds(s.counter, s.key)
}

// initState prepares a fresh lane: seed, then sequence, then offset.
func (s *laneState) initState(offset, sequence, seed uint64) {
	s.setSeed(seed)
	s.discardSequence(sequence)
	s.discard(offset)
	s.refill()
	s.phase = 0
}

// newLaneState returns an initialized lane state.
func newLaneState(offset, sequence, seed uint64) laneState {
	var s laneState
	s.initState(offset, sequence, seed)
	return s
}
