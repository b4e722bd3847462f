// Package erasure implements systematic Reed-Solomon and Cauchy erasure
// codes over GF(2^w). Data is split into k equally sized blocks from which m
// parity blocks are computed, and any combination of up to m lost blocks can
// be reconstructed from the survivors.
//
// A codec is configured through the Builder and applies its generator matrix
// with one of four techniques: direct field arithmetic (Matrix), a binary
// expansion of the generator (BitMatrix), a precompiled XOR program
// (Schedule), or a precompiled XOR program per erasure pattern
// (ScheduleCache).
package erasure

import (
	"fmt"

	logging "github.com/ipfs/go-log/v2"

	"github.com/ethp2p/erasure/galois"
)

var log = logging.Logger("erasure")

// coder is one technique's view of the generator matrix. Buffers are
// validated by ErasureCode before they reach a coder.
type coder interface {
	technique() Technique
	encode(data, parity [][]byte) error
	decode(data, parity [][]byte, erased []bool) error
}

// ErasureCode encodes k data blocks into m parity blocks and reconstructs
// erased blocks. It is immutable after Build and safe for concurrent use.
type ErasureCode struct {
	codeParams
	method CodingMethod
	coder  coder
}

// K returns the number of data blocks.
func (c *ErasureCode) K() int {
	return c.k
}

// M returns the number of parity blocks.
func (c *ErasureCode) M() int {
	return c.m
}

// W returns the word size in bits.
func (c *ErasureCode) W() int {
	return c.w
}

// Technique returns the technique the codec was built with.
func (c *ErasureCode) Technique() Technique {
	return c.coder.technique()
}

// Method returns the coding method the codec was built with.
func (c *ErasureCode) Method() CodingMethod {
	return c.method
}

// Encode computes the m parity blocks from the k data blocks. All blocks
// must be the same length, which must be a multiple of the machine word
// size. The data blocks are never modified.
func (c *ErasureCode) Encode(data, parity [][]byte) error {
	if err := c.checkBuffers(data, parity); err != nil {
		return err
	}
	return c.coder.encode(data, parity)
}

// Decode reconstructs the blocks listed in erased, in place. Data blocks
// are indexed 0..k-1 and parity blocks k..k+m-1. Duplicate indices are
// ignored; after deduplication at most m blocks may be erased. The contents
// of the erased buffers are irrelevant on entry and fully rewritten.
func (c *ErasureCode) Decode(data, parity [][]byte, erased []int) error {
	set, err := c.erasedSet(erased)
	if err != nil {
		return err
	}
	if err := c.checkBuffers(data, parity); err != nil {
		return err
	}
	return c.coder.decode(data, parity, set)
}

// Parity computes the single XOR parity of the k data blocks, regardless of
// the configured coding method. parity must be the same length as every
// data block.
func (c *ErasureCode) Parity(data [][]byte, parity []byte) error {
	if len(data) != c.k {
		return fmt.Errorf("need %d data blocks, got %d: %w", c.k, len(data), ErrInvalidArguments)
	}
	if len(parity)%galois.Alignment != 0 {
		return fmt.Errorf("parity block length %d: %w", len(parity), ErrNotAligned)
	}
	for _, d := range data {
		if len(d)%galois.Alignment != 0 {
			return fmt.Errorf("data block length %d: %w", len(d), ErrNotAligned)
		}
		if len(d) != len(parity) {
			return fmt.Errorf("all blocks must be the same length: %w", ErrInvalidArguments)
		}
	}
	copy(parity, data[0])
	for _, d := range data[1:] {
		if err := c.f.RegionXorAcc(parity, d); err != nil {
			return err
		}
	}
	return nil
}

// erasedSet validates and deduplicates the erasure indices into a
// membership set over all k+m blocks.
func (c *ErasureCode) erasedSet(erased []int) ([]bool, error) {
	set := make([]bool, c.k+c.m)
	count := 0
	for _, i := range erased {
		if i < 0 || i >= c.k+c.m {
			return nil, fmt.Errorf("erased index %d out of range 0..%d: %w",
				i, c.k+c.m-1, ErrInvalidArguments)
		}
		if !set[i] {
			set[i] = true
			count++
		}
	}
	if count > c.m {
		return nil, &TooManyErasuresError{Count: count, Max: c.m}
	}
	return set, nil
}

func (c *ErasureCode) checkBuffers(data, parity [][]byte) error {
	if len(data) != c.k {
		return fmt.Errorf("need %d data blocks, got %d: %w", c.k, len(data), ErrInvalidArguments)
	}
	if len(parity) != c.m {
		return fmt.Errorf("need %d parity blocks, got %d: %w", c.m, len(parity), ErrInvalidArguments)
	}
	size := len(data[0])
	for _, d := range data {
		if len(d)%galois.Alignment != 0 {
			return fmt.Errorf("data block length %d: %w", len(d), ErrNotAligned)
		}
		if len(d) != size {
			return fmt.Errorf("all blocks must be the same length: %w", ErrInvalidArguments)
		}
	}
	for _, p := range parity {
		if len(p)%galois.Alignment != 0 {
			return fmt.Errorf("parity block length %d: %w", len(p), ErrNotAligned)
		}
		if len(p) != size {
			return fmt.Errorf("all blocks must be the same length: %w", ErrInvalidArguments)
		}
	}
	return nil
}
