package erasure

import (
	"errors"
	"testing"

	"github.com/ethp2p/erasure/galois"
)

func TestInvertMatrix(t *testing.T) {
	f, err := galois.New(8)
	if err != nil {
		t.Fatal(err)
	}

	t.Run("cauchy", func(t *testing.T) {
		// A square Cauchy matrix is always invertible.
		const n = 5
		mat := make([]uint32, n*n)
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				e, err := f.Inverse(uint32(i ^ (n + j)))
				if err != nil {
					t.Fatal(err)
				}
				mat[i*n+j] = e
			}
		}
		inv, err := invertMatrix(f, mat, n)
		if err != nil {
			t.Fatal(err)
		}
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				var got uint32
				for x := 0; x < n; x++ {
					got ^= f.Multiply(mat[i*n+x], inv[x*n+j])
				}
				want := uint32(0)
				if i == j {
					want = 1
				}
				if got != want {
					t.Fatalf("product entry (%d,%d) = %d, want %d", i, j, got, want)
				}
			}
		}
	})

	t.Run("singular", func(t *testing.T) {
		mat := []uint32{
			1, 2, 3,
			4, 5, 6,
			5, 7, 5, // row 0 + row 1
		}
		if _, err := invertMatrix(f, mat, 3); !errors.Is(err, ErrDecodeFailed) {
			t.Errorf("expected ErrDecodeFailed, got %v", err)
		}
	})
}

func TestRSVandCodingMatrix(t *testing.T) {
	for _, w := range []int{8, 16, 32} {
		f, err := galois.New(w)
		if err != nil {
			t.Fatal(err)
		}
		for _, km := range [][2]int{{4, 2}, {7, 3}, {10, 4}} {
			k, m := km[0], km[1]
			mat, err := rsVandCodingMatrix(f, k, m, w)
			if err != nil {
				t.Fatalf("w=%d k=%d m=%d: %v", w, k, m, err)
			}
			// The first parity row must be all ones so single data
			// erasures can be repaired by XOR alone.
			for j := 0; j < k; j++ {
				if mat[j] != 1 {
					t.Fatalf("w=%d k=%d m=%d: first row entry %d is %d", w, k, m, j, mat[j])
				}
			}
			for i, e := range mat {
				if e == 0 {
					t.Fatalf("w=%d k=%d m=%d: zero entry at %d", w, k, m, i)
				}
			}
		}
	}
}

func TestCauchyCodingMatrix(t *testing.T) {
	for _, w := range []int{4, 8, 12} {
		f, err := galois.New(w)
		if err != nil {
			t.Fatal(err)
		}
		k, m := 4, 3
		mat, err := cauchyCodingMatrix(f, k, m, w)
		if err != nil {
			t.Fatalf("w=%d: %v", w, err)
		}
		for j := 0; j < k; j++ {
			if mat[j] != 1 {
				t.Fatalf("w=%d: first row entry %d is %d", w, j, mat[j])
			}
		}
		for i, e := range mat {
			if e == 0 || e >= 1<<w {
				t.Fatalf("w=%d: entry %d out of field: %d", w, i, e)
			}
		}
		// Every m x m submatrix must be invertible for the code to
		// tolerate m erasures; check the contiguous ones.
		for start := 0; start+m <= k; start++ {
			sub := make([]uint32, m*m)
			for i := 0; i < m; i++ {
				for j := 0; j < m; j++ {
					sub[i*m+j] = mat[i*k+start+j]
				}
			}
			if _, err := invertMatrix(f, sub, m); err != nil {
				t.Fatalf("w=%d: submatrix at column %d not invertible: %v", w, start, err)
			}
		}
	}
}

func TestExpandToBits(t *testing.T) {
	f, err := galois.New(4)
	if err != nil {
		t.Fatal(err)
	}
	const w = 4
	for e := uint32(1); e < 16; e++ {
		b := expandToBits(f, []uint32{e}, 1, 1, w)
		// Multiplying the basis vector 2^x by e must match the field
		// product, bit by bit.
		for x := 0; x < w; x++ {
			want := f.Multiply(e, 1<<x)
			var got uint32
			for l := 0; l < w; l++ {
				if b.bits[l*w+x] != 0 {
					got |= 1 << l
				}
			}
			if got != want {
				t.Fatalf("element %d column %d: got %#x, want %#x", e, x, got, want)
			}
		}
	}
}
