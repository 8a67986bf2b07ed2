package pattern

// seedHash produces a deterministic pseudo-random float64 in [0,1) from a
// (cycle, index) pair, so that repeated queries of a stochastic transform
// over the same span always produce the same haps (§4.2, §8 "deterministic
// seeding"). This is a splitmix64-style mix, not a statistical-quality
// PRNG — determinism, not distribution quality, is the contract here.
func seedHash(cycle int64, index int) float64 {
	x := uint64(cycle)*0x9E3779B97F4A7C15 + uint64(uint32(index))*0xBF58476D1CE4E5B9
	x ^= x >> 30
	x *= 0xBF58476D1CE4E5B9
	x ^= x >> 27
	x *= 0x94D049BB133111EB
	x ^= x >> 31
	// Top 53 bits give a float64 mantissa's worth of entropy.
	return float64(x>>11) / float64(1<<53)
}

// seedPermutation returns a deterministic permutation of [0,n) derived
// from cycle, via a seeded Fisher-Yates shuffle.
func seedPermutation(cycle int64, n int) []int {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := int(seedHash(cycle, i+1000) * float64(i+1))
		if j > i {
			j = i
		}
		perm[i], perm[j] = perm[j], perm[i]
	}
	return perm
}
