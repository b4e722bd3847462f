package erasure

import (
	"fmt"

	"github.com/ethp2p/erasure/galois"
)

// bitmatrix holds a binary matrix with one byte per bit, row-major.
type bitmatrix struct {
	rows, cols int
	bits       []byte
}

func newBitmatrix(rows, cols int) *bitmatrix {
	return &bitmatrix{rows: rows, cols: cols, bits: make([]byte, rows*cols)}
}

func (b *bitmatrix) row(i int) []byte {
	return b.bits[i*b.cols : (i+1)*b.cols]
}

// expandToBits turns an m x k matrix over GF(2^w) into its (m*w) x (k*w)
// binary equivalent. Each element e becomes a w x w block whose column x
// holds the bits of e * 2^x, because multiplying by e maps the basis vector
// 2^x to that product.
func expandToBits(f *galois.Field, mat []uint32, k, m, w int) *bitmatrix {
	b := newBitmatrix(m*w, k*w)
	for i := 0; i < m; i++ {
		for j := 0; j < k; j++ {
			e := mat[i*k+j]
			for x := 0; x < w; x++ {
				for l := 0; l < w; l++ {
					if e&(1<<l) != 0 {
						b.bits[(i*w+l)*b.cols+j*w+x] = 1
					}
				}
				e = f.Multiply(e, 2)
			}
		}
	}
	return b
}

// invert returns the inverse of a square binary matrix, or ErrDecodeFailed
// if it is singular. The receiver is left untouched.
func (b *bitmatrix) invert() (*bitmatrix, error) {
	if b.rows != b.cols {
		return nil, fmt.Errorf("cannot invert %d x %d matrix: %w", b.rows, b.cols, ErrInvalidArguments)
	}
	n := b.rows
	a := newBitmatrix(n, n)
	copy(a.bits, b.bits)
	inv := newBitmatrix(n, n)
	for i := 0; i < n; i++ {
		inv.bits[i*n+i] = 1
	}

	for i := 0; i < n; i++ {
		if a.bits[i*n+i] == 0 {
			j := i + 1
			for ; j < n && a.bits[j*n+i] == 0; j++ {
			}
			if j == n {
				return nil, fmt.Errorf("bit matrix is singular: %w", ErrDecodeFailed)
			}
			xorRow(a.row(i), a.row(j))
			xorRow(a.row(j), a.row(i))
			xorRow(a.row(i), a.row(j))
			xorRow(inv.row(i), inv.row(j))
			xorRow(inv.row(j), inv.row(i))
			xorRow(inv.row(i), inv.row(j))
		}
		for j := i + 1; j < n; j++ {
			if a.bits[j*n+i] != 0 {
				xorRow(a.row(j), a.row(i))
				xorRow(inv.row(j), inv.row(i))
			}
		}
	}
	for i := n - 1; i >= 0; i-- {
		for j := 0; j < i; j++ {
			if a.bits[j*n+i] != 0 {
				xorRow(a.row(j), a.row(i))
				xorRow(inv.row(j), inv.row(i))
			}
		}
	}
	return inv, nil
}

func xorRow(dst, src []byte) {
	for i := range dst {
		dst[i] ^= src[i]
	}
}

// bitMatrixCoder applies the expanded binary generator packet by packet.
// Every block is treated as a sequence of super-packets of w*packetSize
// bytes, and each output bit-row is the XOR of the source packets selected
// by its row of the bit matrix.
type bitMatrixCoder struct {
	codeParams
	bmat       *bitmatrix // (m*w) x (k*w)
	packetSize int
}

func (c *bitMatrixCoder) technique() Technique {
	return BitMatrix
}

// bitDotprod fills the w packets of the destination block from the w rows of
// rowBlock. srcIDs remaps block positions during decoding, as in dotprod.
func (c *bitMatrixCoder) bitDotprod(rowBlock *bitmatrix, blockRow int, srcIDs []int, dstID int, data, parity [][]byte, size int) error {
	dst := blockFor(dstID, c.k, data, parity)
	ps := c.packetSize
	for base := 0; base < size; base += ps * c.w {
		for j := 0; j < c.w; j++ {
			row := rowBlock.row(blockRow*c.w + j)
			dptr := dst[base+j*ps : base+(j+1)*ps]
			started := false
			for x := 0; x < c.k*c.w; x++ {
				if row[x] == 0 {
					continue
				}
				id := x / c.w
				if srcIDs != nil {
					id = srcIDs[id]
				}
				src := blockFor(id, c.k, data, parity)
				pptr := src[base+(x%c.w)*ps : base+(x%c.w+1)*ps]
				if !started {
					copy(dptr, pptr)
					started = true
				} else if err := c.f.RegionXorAcc(dptr, pptr); err != nil {
					return err
				}
			}
			if !started {
				clear(dptr)
			}
		}
	}
	return nil
}

func (c *bitMatrixCoder) encode(data, parity [][]byte) error {
	size := len(data[0])
	if err := checkPacketMultiple(size, c.w, c.packetSize); err != nil {
		return err
	}
	for i := 0; i < c.m; i++ {
		if err := c.bitDotprod(c.bmat, i, nil, c.k+i, data, parity, size); err != nil {
			return err
		}
	}
	return nil
}

func (c *bitMatrixCoder) decode(data, parity [][]byte, erased []bool) error {
	size := len(data[0])
	if err := checkPacketMultiple(size, c.w, c.packetSize); err != nil {
		return err
	}

	edd := 0
	for i := 0; i < c.k; i++ {
		if erased[i] {
			edd++
		}
	}

	var dmIDs []int
	var dec *bitmatrix
	if edd > 0 {
		var err error
		dec, dmIDs, err = c.decodingBitmatrix(erased)
		if err != nil {
			return err
		}
	}
	for i := 0; i < c.k; i++ {
		if !erased[i] {
			continue
		}
		if err := c.bitDotprod(dec, i, dmIDs, i, data, parity, size); err != nil {
			return err
		}
	}
	for i := 0; i < c.m; i++ {
		if !erased[c.k+i] {
			continue
		}
		if err := c.bitDotprod(c.bmat, i, nil, c.k+i, data, parity, size); err != nil {
			return err
		}
	}
	return nil
}

// decodingBitmatrix builds the (k*w) x (k*w) matrix of the first k surviving
// blocks and inverts it over GF(2).
func (c *bitMatrixCoder) decodingBitmatrix(erased []bool) (*bitmatrix, []int, error) {
	dmIDs := make([]int, c.k)
	j := 0
	for i := 0; j < c.k; i++ {
		if !erased[i] {
			dmIDs[j] = i
			j++
		}
	}

	tmp := newBitmatrix(c.k*c.w, c.k*c.w)
	for i := 0; i < c.k; i++ {
		if dmIDs[i] < c.k {
			for x := 0; x < c.w; x++ {
				tmp.bits[(i*c.w+x)*tmp.cols+dmIDs[i]*c.w+x] = 1
			}
		} else {
			src := c.bmat.bits[(dmIDs[i]-c.k)*c.w*c.bmat.cols:]
			copy(tmp.bits[i*c.w*tmp.cols:(i+1)*c.w*tmp.cols], src)
		}
	}
	dec, err := tmp.invert()
	if err != nil {
		return nil, nil, err
	}
	return dec, dmIDs, nil
}

func checkPacketMultiple(size, w, packetSize int) error {
	if size%(w*packetSize) != 0 {
		return fmt.Errorf("block size %d is not a multiple of w*packetSize (%d): %w",
			size, w*packetSize, ErrInvalidArguments)
	}
	return nil
}
