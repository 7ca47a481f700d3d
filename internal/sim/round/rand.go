package round

// Rand is the engine's only source of randomness. The round holds one
// deterministic instance seeded from the round seed; tests inject their own.
type Rand interface {
	// Float64 returns a value in [0,1).
	Float64() float64
	// Intn returns a value in [0,n). n must be > 0.
	Intn(n int) int
	// Between returns a value in [lo,hi], inclusive.
	Between(lo, hi int) int
	// Chance returns true with probability p (clamped to [0,1]).
	Chance(p float64) bool
}

// seqRand is a splitmix64 counter stream. Same seed, same call sequence,
// same draws.
type seqRand struct {
	state uint64
}

func NewSeeded(seed int64) Rand {
	return &seqRand{state: uint64(seed)}
}

func (r *seqRand) next() uint64 {
	r.state += 0x9e3779b97f4a7c15
	z := r.state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

func (r *seqRand) Float64() float64 {
	return float64(r.next()>>11) / (1 << 53)
}

func (r *seqRand) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(r.next() % uint64(n))
}

func (r *seqRand) Between(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + r.Intn(hi-lo+1)
}

func (r *seqRand) Chance(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return r.Float64() < p
}
