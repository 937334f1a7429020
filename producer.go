package philox

// nextScalar returns the next word of the stream. Every fourth call moves
// the counter one block ahead.
func (s *laneState) nextScalar() uint32 {
	ret := s.result[s.phase]
	s.phase++
	if s.phase == 4 {
		s.phase = 0
		s.discard(1)
		s.refill()
	}
	return ret
}

// Uint32 lets a lane feed scalar consumers such as the Poisson sampler.
func (s *laneState) Uint32() uint32 {
	return s.nextScalar()
}

// next4 returns the next four unconsumed words and always advances the
// lane by exactly one block. With a non-zero phase the result is stitched
// from the tail of the current block and the head of the following one.
// The phase itself is left unchanged.
func (s *laneState) next4() Block {
	cur := s.result
	s.discard(1)
	s.refill()
	return stitch(cur, s.result, s.phase)
}

// next4Unsafe returns the cached block and advances one block without
// looking at the phase. Callers must know the lane is aligned.
func (s *laneState) next4Unsafe() Block {
	ret := s.result
	s.discard(1)
	s.refill()
	return ret
}

// peek4 returns what next4 would return without moving the lane.
func (s *laneState) peek4() Block {
	if s.phase == 0 {
		return s.result
	}
	next := tenRounds(s.successor(), s.key)
	return stitch(s.result, next, s.phase)
}

// skip consumes n words as if nextScalar had been called n times, without
// generating blocks that are passed over entirely.
func (s *laneState) skip(n uint64) {
	total := uint64(s.phase) + n
	if blocks := total / 4; blocks > 0 {
		s.discard(blocks)
		s.refill()
	}
	s.phase = uint32(total % 4)
}

// successor returns the counter one block ahead of the current one.
func (s *laneState) successor() Block {
	t := *s
	t.discard(1)
	return t.counter
}

// stitch joins the words cur[p:] and next[:p] into one block.
func stitch(cur, next Block, p uint32) Block {
	if p == 0 {
		return cur
	}
	var out Block
	n := 4 - p
	for i := uint32(0); i < n; i++ {
		out[i] = cur[p+i]
	}
	for i := uint32(0); i < p; i++ {
		out[n+i] = next[i]
	}
	return out
}
