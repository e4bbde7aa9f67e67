package brackets

// Mulberry32 is a small counter-based generator: the state advances by a constant
// on every draw and is mixed with multiply-xor-shift steps.
type Mulberry32 struct {
	state uint32
}

func NewMulberry32(seed uint32) *Mulberry32 {
	return &Mulberry32{state: seed}
}

// Next returns a float in [0, 1).
func (m *Mulberry32) Next() float64 {
	m.state += 0x6D2B79F5
	t := m.state
	t = (t ^ (t >> 15)) * (t | 1)
	t ^= t + (t^(t>>7))*(t|61)
	return float64(t^(t>>14)) / 4294967296
}

// ShuffleWithSeed returns a Fisher-Yates permutation of items driven by Mulberry32.
// The input slice is not modified; the same seed and input always give the same order.
func ShuffleWithSeed[T any](items []T, seed int32) []T {
	out := make([]T, len(items))
	copy(out, items)

	rng := NewMulberry32(uint32(seed))
	for i := len(out) - 1; i > 0; i-- {
		j := int(rng.Next() * float64(i+1))
		out[i], out[j] = out[j], out[i]
	}
	return out
}
