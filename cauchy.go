package erasure

import (
	"fmt"
	"math/bits"

	"github.com/ethp2p/erasure/galois"
)

// cauchyCodingMatrix returns the m x k Cauchy generator matrix with entries
// 1/(i XOR (m+j)), improved by rescaling to lower the number of ones in its
// binary expansion. Every square submatrix of a Cauchy matrix is invertible,
// so the improved matrix tolerates any m erasures.
func cauchyCodingMatrix(f *galois.Field, k, m, w int) ([]uint32, error) {
	if w < 31 && k+m > 1<<w {
		return nil, fmt.Errorf("%d blocks do not fit in GF(2^%d): %w", k+m, w, ErrInvalidArguments)
	}
	mat := make([]uint32, m*k)
	for i := 0; i < m; i++ {
		for j := 0; j < k; j++ {
			e, err := f.Inverse(uint32(i ^ (m + j)))
			if err != nil {
				return nil, err
			}
			mat[i*k+j] = e
		}
	}
	if err := cauchyImproveMatrix(f, mat, k, m, w); err != nil {
		return nil, err
	}
	return mat, nil
}

// cauchyNOnes counts the ones in the w x w binary expansion of e, which is
// the XOR cost of multiplying by e in a bit-matrix technique.
func cauchyNOnes(f *galois.Field, e uint32, w int) int {
	n := 0
	for x := 0; x < w; x++ {
		n += bits.OnesCount32(f.Multiply(e, uint32(1)<<x))
	}
	return n
}

// cauchyImproveMatrix rescales the matrix in place: each column is divided
// by its first entry so row 0 becomes all ones, then every other row is
// divided by whichever of its entries minimizes the row's total bit weight.
// Rescaling rows and columns by nonzero constants keeps every square
// submatrix invertible.
func cauchyImproveMatrix(f *galois.Field, mat []uint32, k, m, w int) error {
	for j := 0; j < k; j++ {
		if mat[j] == 1 {
			continue
		}
		inv, err := f.Inverse(mat[j])
		if err != nil {
			return err
		}
		for i := 0; i < m; i++ {
			mat[i*k+j] = f.Multiply(mat[i*k+j], inv)
		}
	}
	for i := 1; i < m; i++ {
		row := mat[i*k : (i+1)*k]
		best := 0
		for _, e := range row {
			best += cauchyNOnes(f, e, w)
		}
		bestDiv := uint32(0)
		for _, d := range row {
			if d == 1 {
				continue
			}
			inv, err := f.Inverse(d)
			if err != nil {
				return err
			}
			cost := 0
			for _, e := range row {
				cost += cauchyNOnes(f, f.Multiply(e, inv), w)
			}
			if cost < best {
				best = cost
				bestDiv = d
			}
		}
		if bestDiv != 0 {
			inv, err := f.Inverse(bestDiv)
			if err != nil {
				return err
			}
			for j := range row {
				row[j] = f.Multiply(row[j], inv)
			}
		}
	}
	return nil
}
