package galois

import (
	"math/bits"
	"sync"
)

// primPoly[w] is the primitive polynomial used to define GF(2^w), with the
// x^w term stored explicitly so reduction is a single XOR.
var primPoly = [33]uint64{
	1:  1<<1 | 0x1,
	2:  1<<2 | 0x3,
	3:  1<<3 | 0x3,
	4:  1<<4 | 0x3,
	5:  1<<5 | 0x5,
	6:  1<<6 | 0x3,
	7:  1<<7 | 0x9,
	8:  1<<8 | 0x1D,
	9:  1<<9 | 0x11,
	10: 1<<10 | 0x9,
	11: 1<<11 | 0x5,
	12: 1<<12 | 0x53,
	13: 1<<13 | 0x1B,
	14: 1<<14 | 0x443,
	15: 1<<15 | 0x3,
	16: 1<<16 | 0x100B,
	17: 1<<17 | 0x9,
	18: 1<<18 | 0x81,
	19: 1<<19 | 0x27,
	20: 1<<20 | 0x9,
	21: 1<<21 | 0x5,
	22: 1<<22 | 0x3,
	23: 1<<23 | 0x21,
	24: 1<<24 | 0x87,
	25: 1<<25 | 0x9,
	26: 1<<26 | 0x47,
	27: 1<<27 | 0x27,
	28: 1<<28 | 0x9,
	29: 1<<29 | 0x5,
	30: 1<<30 | 0x800007,
	31: 1<<31 | 0x9,
	32: 1<<32 | 0x400007,
}

// tables carries the per-width lookup state. Widths 2..16 get log/antilog
// tables; width 8 additionally gets a full 256x256 product table for region
// multiplication; larger widths multiply by shift-and-reduce.
type tables struct {
	w    int
	poly uint64

	log  []uint32 // log[a] for a in 1..2^w-1, widths 2..16
	alog []uint32 // doubled antilog table, indexed by log[a]+log[b]
	mul8 []byte   // width 8 only: product of (row<<8 | col)
}

var tableCache struct {
	sync.Mutex
	byWidth [33]*tables
}

func tablesFor(w int) (*tables, error) {
	tableCache.Lock()
	defer tableCache.Unlock()
	if t := tableCache.byWidth[w]; t != nil {
		return t, nil
	}
	t := newTables(w)
	tableCache.byWidth[w] = t
	log.Debugf("initialized GF(2^%d) tables", w)
	return t, nil
}

func newTables(w int) *tables {
	t := &tables{w: w, poly: primPoly[w]}
	if w < 2 || w > 16 {
		return t
	}
	// Powers of x generate the multiplicative group for every polynomial in
	// primPoly, so walking b = x^i fills both tables in one pass. The antilog
	// table is doubled so log[a]+log[b] never needs a modular reduction.
	n := 1 << w
	t.log = make([]uint32, n)
	t.alog = make([]uint32, 2*(n-1))
	b := uint64(1)
	for i := 0; i < n-1; i++ {
		t.log[b] = uint32(i)
		t.alog[i] = uint32(b)
		t.alog[i+n-1] = uint32(b)
		b <<= 1
		if b&(1<<w) != 0 {
			b ^= t.poly
		}
	}
	if w == 8 {
		t.mul8 = make([]byte, 256*256)
		for a := 1; a < 256; a++ {
			row := t.mul8[a<<8:]
			for c := 1; c < 256; c++ {
				row[c] = byte(t.alog[t.log[a]+t.log[c]])
			}
		}
	}
	return t
}

func (t *tables) multiply(a, b uint32) uint32 {
	switch {
	case t.w == 1:
		return a & b & 1
	case t.w <= 16:
		if a == 0 || b == 0 {
			return 0
		}
		return t.alog[t.log[a]+t.log[b]]
	default:
		return uint32(shiftMultiply(uint64(a), uint64(b), t.w, t.poly))
	}
}

func (t *tables) inverse(a uint32) uint32 {
	switch {
	case t.w == 1:
		return 1
	case t.w <= 16:
		n := uint32(1<<t.w) - 1
		return t.alog[n-t.log[a]]
	default:
		return shiftInverse(a, t.poly)
	}
}

// shiftMultiply multiplies two field elements by plain shift-and-reduce.
// Both operands must be below 2^w; poly carries the x^w term so the partial
// product never exceeds w+1 bits before reduction.
func shiftMultiply(a, b uint64, w int, poly uint64) uint64 {
	var prod uint64
	for b != 0 {
		if b&1 != 0 {
			prod ^= a
		}
		b >>= 1
		a <<= 1
		if a&(1<<w) != 0 {
			a ^= poly
		}
	}
	return prod
}

// shiftInverse computes the multiplicative inverse with the extended
// Euclidean algorithm over GF(2)[x]. The modulus is irreducible and a is
// nonzero, so the gcd is 1 and the loop always terminates there.
func shiftInverse(a uint32, poly uint64) uint32 {
	r0, r1 := poly, uint64(a)
	s0, s1 := uint64(0), uint64(1)
	for r1 != 1 {
		for polyDegree(r0) >= polyDegree(r1) {
			d := polyDegree(r0) - polyDegree(r1)
			r0 ^= r1 << d
			s0 ^= s1 << d
		}
		r0, r1 = r1, r0
		s0, s1 = s1, s0
	}
	return uint32(s1)
}

func polyDegree(x uint64) int {
	return bits.Len64(x) - 1
}
