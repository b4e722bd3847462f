package erasure

import (
	"math/rand"
	"testing"
)

// buildCauchy builds one codec per technique over the same parameters, so
// their outputs can be compared directly.
func buildCauchy(t *testing.T, tech Technique, k, m, w, packetSize int) *ErasureCode {
	t.Helper()
	ec, err := NewBuilder().
		K(k).M(m).W(w).PacketSize(packetSize).
		CodingMethod(Cauchy).Technique(tech).
		Build()
	if err != nil {
		t.Fatal(err)
	}
	return ec
}

func TestTechniquesAgree(t *testing.T) {
	const (
		k    = 4
		m    = 2
		w    = 8
		ps   = 16
		size = 2048
	)
	bm := buildCauchy(t, BitMatrix, k, m, w, ps)
	sched := buildCauchy(t, Schedule, k, m, w, ps)
	cache := buildCauchy(t, ScheduleCache, k, m, w, ps)
	mtx := buildCauchy(t, Matrix, k, m, w, ps)

	rng := rand.New(rand.NewSource(11))
	data := randBlocks(rng, k, size)

	ref := zeroBlocks(m, size)
	if err := mtx.Encode(data, ref); err != nil {
		t.Fatal(err)
	}
	for _, ec := range []*ErasureCode{bm, sched, cache} {
		parity := zeroBlocks(m, size)
		if err := ec.Encode(data, parity); err != nil {
			t.Fatalf("%s encode: %v", ec.Technique(), err)
		}
		if !equalBlocks(parity, ref) {
			t.Errorf("%s parity differs from matrix parity", ec.Technique())
		}
	}

	// All techniques share the generator, so each one can repair blocks
	// encoded by any other.
	for _, ec := range []*ErasureCode{bm, sched, cache} {
		eraseAndDecode(t, ec, data, ref, []int{1, 4})
		eraseAndDecode(t, ec, data, ref, []int{0, 1})
		eraseAndDecode(t, ec, data, ref, []int{4, 5})
	}
}

func TestCompileSchedule(t *testing.T) {
	// Every target bit-row must start with a copy op, never an XOR into
	// uninitialized memory.
	for _, cfg := range [][3]int{{3, 2, 4}, {4, 2, 8}, {5, 3, 4}} {
		k, m, w := cfg[0], cfg[1], cfg[2]
		ec := buildCauchy(t, Schedule, k, m, w, 8)
		sc := ec.coder.(*scheduleCoder)
		seen := make(map[[2]int]bool)
		for _, op := range sc.encOps {
			dst := [2]int{op.dstID, op.dstBit}
			if !seen[dst] {
				if op.xor {
					t.Fatalf("k=%d m=%d w=%d: first op for %v is an XOR", k, m, w, dst)
				}
				seen[dst] = true
			}
		}
		if len(seen) != m*w {
			t.Fatalf("k=%d m=%d w=%d: %d target rows written, want %d", k, m, w, len(seen), m*w)
		}
	}
}
