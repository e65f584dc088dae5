package noise

// Hasher mixes a seed with integer inputs. Equal seeds and inputs always give
// equal outputs; there is no hidden state.
type Hasher struct {
	seed uint32
}

// NewHasher returns a hasher for the world seed.
func NewHasher(seed uint32) Hasher {
	return Hasher{seed: seed}
}

func (h Hasher) Seed() uint32 {
	return h.seed
}

// Combine folds x into seed (boost-style hash_combine).
func Combine(seed, x uint32) uint32 {
	return seed ^ (x + 0x9e3779b9 + (seed << 6) + (seed >> 2))
}

// Avalanche is the murmur3 32-bit finalizer: every input bit affects every output bit.
func Avalanche(h uint32) uint32 {
	h ^= h >> 16
	h *= 0x85ebca6b
	h ^= h >> 13
	h *= 0xc2b2ae35
	h ^= h >> 16
	return h
}

// Hash combines the seed with every value in order and finalizes the result.
func (h Hasher) Hash(vals ...uint32) uint32 {
	acc := h.seed
	for _, v := range vals {
		acc = Combine(acc, Avalanche(v))
	}
	return Avalanche(acc)
}

// Hash3 hashes a signed integer position with a salt distinguishing call sites.
func (h Hasher) Hash3(x, y, z int, salt uint32) uint32 {
	return h.Hash(uint32(int32(x)), uint32(int32(y)), uint32(int32(z)), salt)
}

// Unit maps a hash to [0, 1).
func Unit(h uint32) float64 {
	return float64(h) / (1 << 32)
}
