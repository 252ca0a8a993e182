package ecs

import "math/bits"

// MaxComponentTypes is the maximum number of distinct component types a
// world can register.
const MaxComponentTypes = 256

// typeMask is a 256-bit set of component type identifiers. Archetypes are
// keyed by their exact mask.
type typeMask [4]uint64

func (m *typeMask) set(bit ComponentID) {
	m[bit/64] |= 1 << (bit % 64)
}

func (m *typeMask) unset(bit ComponentID) {
	m[bit/64] &^= 1 << (bit % 64)
}

func (m typeMask) has(bit ComponentID) bool {
	return m[bit/64]&(1<<(bit%64)) != 0
}

// contains reports whether every bit of sub is set in m.
func (m typeMask) contains(sub typeMask) bool {
	return m[0]&sub[0] == sub[0] &&
		m[1]&sub[1] == sub[1] &&
		m[2]&sub[2] == sub[2] &&
		m[3]&sub[3] == sub[3]
}

// intersects reports whether m and other share any bit.
func (m typeMask) intersects(other typeMask) bool {
	return m[0]&other[0] != 0 ||
		m[1]&other[1] != 0 ||
		m[2]&other[2] != 0 ||
		m[3]&other[3] != 0
}

func (m typeMask) isEmpty() bool {
	return m == typeMask{}
}

func (m typeMask) count() int {
	return bits.OnesCount64(m[0]) + bits.OnesCount64(m[1]) +
		bits.OnesCount64(m[2]) + bits.OnesCount64(m[3])
}

// ids returns the set bits in ascending order.
func (m typeMask) ids() []ComponentID {
	out := make([]ComponentID, 0, m.count())
	for word := 0; word < 4; word++ {
		w := m[word]
		for w != 0 {
			bit := bits.TrailingZeros64(w)
			out = append(out, ComponentID(word*64+bit))
			w &= w - 1
		}
	}
	return out
}
