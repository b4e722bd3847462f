package erasure

import (
	"fmt"

	"github.com/ethp2p/erasure/galois"
)

// codeParams is the shape shared by every technique implementation.
type codeParams struct {
	k, m, w int
	f       *galois.Field
}

// invertMatrix returns the inverse of the n x n row-major matrix mat over
// GF(2^w) by Gaussian elimination, or ErrDecodeFailed if it is singular.
// mat is left untouched.
func invertMatrix(f *galois.Field, mat []uint32, n int) ([]uint32, error) {
	a := make([]uint32, len(mat))
	copy(a, mat)
	inv := make([]uint32, n*n)
	for i := 0; i < n; i++ {
		inv[i*n+i] = 1
	}

	// Upper-triangularize, swapping in a lower row whenever the pivot is
	// zero, then normalize the pivot row and clear the column below it.
	for i := 0; i < n; i++ {
		if a[i*n+i] == 0 {
			j := i + 1
			for ; j < n && a[j*n+i] == 0; j++ {
			}
			if j == n {
				return nil, fmt.Errorf("matrix is singular: %w", ErrDecodeFailed)
			}
			swapRows(a, n, i, j)
			swapRows(inv, n, i, j)
		}
		if piv := a[i*n+i]; piv != 1 {
			pinv, err := f.Inverse(piv)
			if err != nil {
				return nil, err
			}
			scaleRow(f, a[i*n:(i+1)*n], pinv)
			scaleRow(f, inv[i*n:(i+1)*n], pinv)
		}
		for j := i + 1; j < n; j++ {
			if c := a[j*n+i]; c != 0 {
				addScaledRow(f, a[j*n:(j+1)*n], a[i*n:(i+1)*n], c)
				addScaledRow(f, inv[j*n:(j+1)*n], inv[i*n:(i+1)*n], c)
			}
		}
	}

	// Back-substitute.
	for i := n - 1; i >= 0; i-- {
		for j := 0; j < i; j++ {
			if c := a[j*n+i]; c != 0 {
				a[j*n+i] = 0
				addScaledRow(f, inv[j*n:(j+1)*n], inv[i*n:(i+1)*n], c)
			}
		}
	}
	return inv, nil
}

func swapRows(mat []uint32, n, i, j int) {
	for x := 0; x < n; x++ {
		mat[i*n+x], mat[j*n+x] = mat[j*n+x], mat[i*n+x]
	}
}

func scaleRow(f *galois.Field, row []uint32, c uint32) {
	for x := range row {
		row[x] = f.Multiply(row[x], c)
	}
}

func addScaledRow(f *galois.Field, dst, src []uint32, c uint32) {
	if c == 1 {
		for x := range dst {
			dst[x] ^= src[x]
		}
		return
	}
	for x := range dst {
		dst[x] ^= f.Multiply(src[x], c)
	}
}

// blockFor resolves a block id to its buffer: ids below k are data blocks,
// the rest are parity blocks.
func blockFor(id, k int, data, parity [][]byte) []byte {
	if id < k {
		return data[id]
	}
	return parity[id-k]
}

// dotprod computes one output block as the inner product of a matrix row
// with k source blocks. srcIDs remaps row positions to block ids during
// decoding; a nil srcIDs means position i reads block i. Coefficient-one
// sources are folded in first with copies and XORs so that region
// multiplication only runs for the remaining coefficients.
func (p codeParams) dotprod(row []uint32, srcIDs []int, dstID int, data, parity [][]byte) error {
	dst := blockFor(dstID, p.k, data, parity)
	init := false
	for i := 0; i < p.k; i++ {
		if row[i] != 1 {
			continue
		}
		id := i
		if srcIDs != nil {
			id = srcIDs[i]
		}
		src := blockFor(id, p.k, data, parity)
		if !init {
			copy(dst, src)
			init = true
		} else if err := p.f.RegionXorAcc(dst, src); err != nil {
			return err
		}
	}
	for i := 0; i < p.k; i++ {
		if row[i] == 0 || row[i] == 1 {
			continue
		}
		id := i
		if srcIDs != nil {
			id = srcIDs[i]
		}
		src := blockFor(id, p.k, data, parity)
		if err := p.f.RegionMultiply(src, row[i], init, dst); err != nil {
			return err
		}
		init = true
	}
	if !init {
		clear(dst)
	}
	return nil
}

// matrixCoder applies an m x k generator matrix directly in GF(2^w).
type matrixCoder struct {
	codeParams
	mat        []uint32 // m x k, row-major
	rowAllOnes bool     // first parity row is all ones, see rsVandCodingMatrix
}

func (c *matrixCoder) technique() Technique {
	return Matrix
}

func (c *matrixCoder) encode(data, parity [][]byte) error {
	for i := 0; i < c.m; i++ {
		if err := c.dotprod(c.mat[i*c.k:(i+1)*c.k], nil, c.k+i, data, parity); err != nil {
			return err
		}
	}
	return nil
}

func (c *matrixCoder) decode(data, parity [][]byte, erased []bool) error {
	// Count the failed data blocks and remember the last one. When the
	// first parity row is all ones and that parity block survives, the last
	// failed data block can be repaired with a plain XOR pass, so the
	// decoding matrix only needs to cover the blocks before it.
	edd := 0
	lastData := c.k
	for i := 0; i < c.k; i++ {
		if erased[i] {
			edd++
			lastData = i
		}
	}
	if !c.rowAllOnes || erased[c.k] {
		lastData = c.k
	}

	var dmIDs []int
	var dec []uint32
	if edd > 1 || (edd > 0 && (!c.rowAllOnes || erased[c.k])) {
		var err error
		dec, dmIDs, err = c.decodingMatrix(erased)
		if err != nil {
			return err
		}
	}

	for i := 0; edd > 0 && i < lastData; i++ {
		if !erased[i] {
			continue
		}
		if err := c.dotprod(dec[i*c.k:(i+1)*c.k], dmIDs, i, data, parity); err != nil {
			return err
		}
		edd--
	}

	// The XOR pass for the last failed data block: parity block 0 plus all
	// surviving data blocks.
	if edd > 0 {
		ids := make([]int, c.k)
		for i := range ids {
			if i < lastData {
				ids[i] = i
			} else {
				ids[i] = i + 1
			}
		}
		if err := c.dotprod(c.mat[:c.k], ids, lastData, data, parity); err != nil {
			return err
		}
	}

	// Re-encode any failed parity blocks from the repaired data.
	for i := 0; i < c.m; i++ {
		if !erased[c.k+i] {
			continue
		}
		if err := c.dotprod(c.mat[i*c.k:(i+1)*c.k], nil, c.k+i, data, parity); err != nil {
			return err
		}
	}
	return nil
}

// decodingMatrix inverts the k x k matrix formed by the first k surviving
// blocks. dmIDs records which block feeds each row position.
func (c *matrixCoder) decodingMatrix(erased []bool) ([]uint32, []int, error) {
	dmIDs := make([]int, c.k)
	j := 0
	for i := 0; j < c.k; i++ {
		if !erased[i] {
			dmIDs[j] = i
			j++
		}
	}

	tmp := make([]uint32, c.k*c.k)
	for i := 0; i < c.k; i++ {
		if dmIDs[i] < c.k {
			tmp[i*c.k+dmIDs[i]] = 1
		} else {
			copy(tmp[i*c.k:(i+1)*c.k], c.mat[(dmIDs[i]-c.k)*c.k:])
		}
	}
	dec, err := invertMatrix(c.f, tmp, c.k)
	if err != nil {
		return nil, nil, err
	}
	return dec, dmIDs, nil
}
