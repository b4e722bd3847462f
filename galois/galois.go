// Package galois implements scalar and bulk ("region") arithmetic in the
// Galois fields GF(2^w) for w in 1..32.
//
// Field addition in GF(2^w) is bitwise XOR. Multiplication is polynomial
// multiplication modulo a fixed primitive polynomial per width, so every
// nonzero element has a multiplicative inverse. The erasure coding engine
// builds all of its generator matrices on top of these operations.
package galois

import (
	"errors"
	"fmt"
	"math/bits"

	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("galois")

// Alignment is the buffer alignment unit in bytes (the platform word size).
// Region operations only accept buffers whose lengths are multiples of it.
const Alignment = bits.UintSize / 8

var (
	// ErrInvalidWidth means the requested field width is outside 1..32.
	ErrInvalidWidth = errors.New("field width must be in 1..32")
	// ErrDivideByZero means a zero divisor was passed to Divide or Inverse.
	ErrDivideByZero = errors.New("zero has no multiplicative inverse")
	// ErrNotAligned means a region buffer length is not a multiple of Alignment.
	ErrNotAligned = errors.New("buffer length not a multiple of the alignment unit")
	// ErrInvalidRange means region buffers disagree in length.
	ErrInvalidRange = errors.New("buffers must be the same length")
	// ErrNotSupported means the operation is not defined for this field width.
	ErrNotSupported = errors.New("operation not supported for this field width")
)

// Field is a handle bound to one GF(2^w). It is stateless after construction
// and safe for concurrent use; the underlying width-keyed tables are built
// once per process and shared between all handles of the same width.
type Field struct {
	w int
	t *tables
}

// New returns a handle for GF(2^w). The width must be in 1..32; the field
// tables for that width are initialized on first use and reused afterwards.
func New(w int) (*Field, error) {
	if w < 1 || w > 32 {
		return nil, fmt.Errorf("GF(2^%d): %w", w, ErrInvalidWidth)
	}
	t, err := tablesFor(w)
	if err != nil {
		return nil, err
	}
	return &Field{w: w, t: t}, nil
}

// W returns the field width in bits.
func (f *Field) W() int {
	return f.w
}

// Add returns a + b in GF(2^w), which is bitwise XOR.
func (f *Field) Add(a, b uint32) uint32 {
	return a ^ b
}

// Multiply returns a * b in GF(2^w).
func (f *Field) Multiply(a, b uint32) uint32 {
	return f.t.multiply(a, b)
}

// Divide returns a / b in GF(2^w). Dividing by zero is undefined and
// returns ErrDivideByZero.
func (f *Field) Divide(a, b uint32) (uint32, error) {
	if b == 0 {
		return 0, ErrDivideByZero
	}
	if a == 0 {
		return 0, nil
	}
	inv, err := f.Inverse(b)
	if err != nil {
		return 0, err
	}
	return f.t.multiply(a, inv), nil
}

// Inverse returns the multiplicative inverse of a in GF(2^w). Zero has no
// inverse and returns ErrDivideByZero.
func (f *Field) Inverse(a uint32) (uint32, error) {
	if a == 0 {
		return 0, ErrDivideByZero
	}
	return f.t.inverse(a), nil
}
