package philox

import (
	"golang.org/x/exp/rand"

	"github.com/opd-ai/go-philox/internal"
)

var _ rand.Source = (*Stream)(nil)

// Stream is a single Philox lane used directly, without an engine.
// It satisfies golang.org/x/exp/rand.Source, so rand.New(stream) gives
// the usual distributions on top of it. A Stream is not safe for
// concurrent use.
type Stream struct {
	st       laneState
	offset   uint64
	sequence uint64
}

// NewStream returns the stream for seed, positioned offset blocks into
// sequence. Streams that differ only in sequence never overlap.
func NewStream(seed, offset, sequence uint64) *Stream {
	return &Stream{
		st:       newLaneState(offset, sequence, seed),
		offset:   offset,
		sequence: sequence,
	}
}

// Seed restarts the stream from seed, keeping its offset and sequence.
func (s *Stream) Seed(seed uint64) {
	s.st.initState(s.offset, s.sequence, seed)
}

// Uint32 returns the next word.
func (s *Stream) Uint32() uint32 {
	return s.st.nextScalar()
}

// Uint64 returns the next two words, the first in the low half.
func (s *Stream) Uint64() uint64 {
	lo := s.st.nextScalar()
	hi := s.st.nextScalar()
	return uint64(hi)<<32 | uint64(lo)
}

// Block returns the next four words. It always advances the counter by
// one block, whatever the position inside the current block.
func (s *Stream) Block() Block {
	return s.st.next4()
}

// Discard jumps n blocks ahead without producing them.
func (s *Stream) Discard(n uint64) {
	s.st.discard(n)
	s.st.refill()
}

// Counter returns the counter of the cached block.
func (s *Stream) Counter() Block {
	return s.st.counter
}

// Phase returns the index of the next unconsumed word in the cached block.
func (s *Stream) Phase() int {
	return int(s.st.phase)
}

// SeedFromBytes derives a seed from an arbitrary label, such as an
// experiment name, by hashing it with BLAKE2b.
func SeedFromBytes(b []byte) uint64 {
	return internal.DeriveUint64(b)
}
