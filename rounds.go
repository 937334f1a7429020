package philox

// Philox4x32 constants as published with Random123.
// See https://www.deshawresearch.com/resources_random123.html
const (
	philoxM0 = 0xD2511F53
	philoxM1 = 0xCD9E8D57
	philoxW0 = 0x9E3779B9
	philoxW1 = 0xBB67AE85
)

// Block is one permutation output (or input): four 32-bit words.
type Block [4]uint32

// X returns word 0.
func (b Block) X() uint32 { return b[0] }

// Y returns word 1.
func (b Block) Y() uint32 { return b[1] }

// Z returns word 2.
func (b Block) Z() uint32 { return b[2] }

// W returns word 3.
func (b Block) W() uint32 { return b[3] }

// Key is the 64-bit Philox key held as two 32-bit words.
type Key [2]uint32

// Lo returns the low key word.
func (k Key) Lo() uint32 { return k[0] }

// Hi returns the high key word.
func (k Key) Hi() uint32 { return k[1] }

// mulHiLo returns the low and high halves of the 64-bit product a*b.
func mulHiLo(a, b uint32) (lo, hi uint32) {
	prod := uint64(a) * uint64(b)
	return uint32(prod), uint32(prod >> 32)
}

// singleRound applies one Philox S-box round to the counter.
func singleRound(ctr Block, key Key) Block {
	lo0, hi0 := mulHiLo(philoxM0, ctr[0])
	lo1, hi1 := mulHiLo(philoxM1, ctr[2])
	return Block{
		hi1 ^ ctr[1] ^ key[0],
		lo1,
		hi0 ^ ctr[3] ^ key[1],
		lo0,
	}
}

// bumpKey advances the round key by the Weyl constants.
func bumpKey(key Key) Key {
	key[0] += philoxW0
	key[1] += philoxW1
	return key
}

// tenRounds is Philox4x32-10. The key bumps are local to this call.
func tenRounds(ctr Block, key Key) Block {
	ctr = singleRound(ctr, key) // 1
	key = bumpKey(key)
	ctr = singleRound(ctr, key) // 2
	key = bumpKey(key)
	ctr = singleRound(ctr, key) // 3
	key = bumpKey(key)
	ctr = singleRound(ctr, key) // 4
	key = bumpKey(key)
	ctr = singleRound(ctr, key) // 5
	key = bumpKey(key)
	ctr = singleRound(ctr, key) // 6
	key = bumpKey(key)
	ctr = singleRound(ctr, key) // 7
	key = bumpKey(key)
	ctr = singleRound(ctr, key) // 8
	key = bumpKey(key)
	ctr = singleRound(ctr, key) // 9
	key = bumpKey(key)

	return singleRound(ctr, key) // 10
}

// Permute returns the Philox4x32-10 image of counter under key.
// It is a pure function and safe for concurrent use.
func Permute(counter Block, key Key) Block {
	return tenRounds(counter, key)
}
