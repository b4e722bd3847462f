package erasure

import (
	"fmt"

	"github.com/ethp2p/erasure/galois"
)

// rsVandCodingMatrix returns the m x k Reed-Solomon generator matrix derived
// from an extended Vandermonde matrix. The distribution matrix is massaged so
// its top k x k block is the identity, its first parity row is all ones and
// the first column of every parity row is one; the identity block is then
// dropped. Any k rows of the distribution matrix stay linearly independent
// throughout, so the result tolerates any m erasures.
func rsVandCodingMatrix(f *galois.Field, k, m, w int) ([]uint32, error) {
	dist, err := rsBigVandDistMatrix(f, k+m, k, w)
	if err != nil {
		return nil, err
	}
	mat := make([]uint32, m*k)
	copy(mat, dist[k*k:])
	return mat, nil
}

// rsExtendedVandMatrix returns the rows x cols extended Vandermonde matrix:
// the first and last rows are unit vectors and row i in between is
// [1, i, i^2, ...] over GF(2^w).
func rsExtendedVandMatrix(f *galois.Field, rows, cols, w int) ([]uint32, error) {
	if w < 30 && (rows > 1<<w || cols > 1<<w) {
		return nil, fmt.Errorf("%d x %d Vandermonde matrix does not fit in GF(2^%d): %w",
			rows, cols, w, ErrInvalidArguments)
	}
	vdm := make([]uint32, rows*cols)
	vdm[0] = 1
	if rows == 1 {
		return vdm, nil
	}
	vdm[(rows-1)*cols+cols-1] = 1
	for i := 1; i < rows-1; i++ {
		e := uint32(1)
		for j := 0; j < cols; j++ {
			vdm[i*cols+j] = e
			e = f.Multiply(e, uint32(i))
		}
	}
	return vdm, nil
}

// rsBigVandDistMatrix turns the extended Vandermonde matrix into a systematic
// distribution matrix using only column operations, row swaps and row
// scaling, all of which preserve the independence of every k-row subset.
func rsBigVandDistMatrix(f *galois.Field, rows, cols, w int) ([]uint32, error) {
	if cols >= rows {
		return nil, fmt.Errorf("distribution matrix needs more rows (%d) than columns (%d): %w",
			rows, cols, ErrInvalidArguments)
	}
	dist, err := rsExtendedVandMatrix(f, rows, cols, w)
	if err != nil {
		return nil, err
	}

	// Eliminate column by column so rows 0..cols-1 become unit vectors. Row
	// 0 starts as a unit vector and stays one.
	for i := 1; i < cols; i++ {
		if dist[i*cols+i] == 0 {
			j := i + 1
			for ; j < rows && dist[j*cols+i] == 0; j++ {
			}
			if j == rows {
				return nil, fmt.Errorf("Vandermonde elimination found no pivot in column %d: %w",
					i, ErrInvalidArguments)
			}
			for x := 0; x < cols; x++ {
				dist[i*cols+x], dist[j*cols+x] = dist[j*cols+x], dist[i*cols+x]
			}
		}
		if piv := dist[i*cols+i]; piv != 1 {
			pinv, err := f.Inverse(piv)
			if err != nil {
				return nil, err
			}
			for j := 0; j < rows; j++ {
				dist[j*cols+i] = f.Multiply(dist[j*cols+i], pinv)
			}
		}
		for j := 0; j < cols; j++ {
			c := dist[i*cols+j]
			if j == i || c == 0 {
				continue
			}
			for x := 0; x < rows; x++ {
				dist[x*cols+j] ^= f.Multiply(c, dist[x*cols+i])
			}
		}
	}

	// Scale columns so row cols (the first parity row) becomes all ones,
	// rescaling each identity row to keep the top block intact.
	for j := 0; j < cols; j++ {
		c := dist[cols*cols+j]
		if c == 0 {
			return nil, fmt.Errorf("parity row has a zero entry in column %d: %w", j, ErrInvalidArguments)
		}
		if c == 1 {
			continue
		}
		cinv, err := f.Inverse(c)
		if err != nil {
			return nil, err
		}
		for x := 0; x < rows; x++ {
			dist[x*cols+j] = f.Multiply(dist[x*cols+j], cinv)
		}
		for x := 0; x < cols; x++ {
			dist[j*cols+x] = f.Multiply(dist[j*cols+x], c)
		}
	}

	// Scale the remaining parity rows so their first column is one.
	for i := cols + 1; i < rows; i++ {
		c := dist[i*cols]
		if c == 0 {
			return nil, fmt.Errorf("parity row %d has a zero leading entry: %w", i, ErrInvalidArguments)
		}
		if c == 1 {
			continue
		}
		cinv, err := f.Inverse(c)
		if err != nil {
			return nil, err
		}
		for x := 0; x < cols; x++ {
			dist[i*cols+x] = f.Multiply(dist[i*cols+x], cinv)
		}
	}
	return dist, nil
}
