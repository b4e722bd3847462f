package erasure

import (
	"fmt"

	"github.com/ethp2p/erasure/galois"
)

// Builder collects the parameters of an erasure code. k, m, the technique
// and the coding method must be set; w defaults to 8 and the packet size is
// only required by the bit-matrix based techniques.
type Builder struct {
	k, m       int
	kSet, mSet bool
	w          int
	packetSize int
	packetSet  bool
	tech       Technique
	techSet    bool
	method     CodingMethod
	methodSet  bool
}

// NewBuilder returns a builder with w preset to 8 and everything else unset.
func NewBuilder() *Builder {
	return &Builder{w: 8}
}

// K sets the number of data blocks.
func (b *Builder) K(k int) *Builder {
	b.k = k
	b.kSet = true
	return b
}

// M sets the number of parity blocks.
func (b *Builder) M(m int) *Builder {
	b.m = m
	b.mSet = true
	return b
}

// W sets the word size in bits. k + m must not exceed 2^w.
func (b *Builder) W(w int) *Builder {
	b.w = w
	return b
}

// PacketSize sets the packet size in bytes for the bit-matrix based
// techniques. It must be a positive multiple of the machine word size.
func (b *Builder) PacketSize(size int) *Builder {
	b.packetSize = size
	b.packetSet = true
	return b
}

// Technique selects how the generator matrix is applied.
func (b *Builder) Technique(t Technique) *Builder {
	b.tech = t
	b.techSet = true
	return b
}

// CodingMethod selects the generator matrix construction.
func (b *Builder) CodingMethod(m CodingMethod) *Builder {
	b.method = m
	b.methodSet = true
	return b
}

// Build validates the parameters, constructs the generator matrix and the
// selected technique's precomputed state, and returns the ready codec.
func (b *Builder) Build() (*ErasureCode, error) {
	if !b.kSet {
		return nil, fmt.Errorf("k is required: %w", ErrInvalidArguments)
	}
	if !b.mSet {
		return nil, fmt.Errorf("m is required: %w", ErrInvalidArguments)
	}
	if !b.techSet {
		return nil, fmt.Errorf("technique is required: %w", ErrInvalidArguments)
	}
	if !b.methodSet {
		return nil, fmt.Errorf("coding method is required: %w", ErrInvalidArguments)
	}
	if b.k <= 0 {
		return nil, fmt.Errorf("k must be greater than 0: %w", ErrInvalidArguments)
	}
	if b.m <= 0 {
		return nil, fmt.Errorf("m must be greater than 0: %w", ErrInvalidArguments)
	}
	if b.w < 1 || b.w > 32 {
		return nil, fmt.Errorf("w must be in 1..32: %w", ErrInvalidArguments)
	}
	if b.k+b.m > 1<<uint(b.w) {
		return nil, fmt.Errorf("k + m must not exceed 2^w (%d): %w", 1<<uint(b.w), ErrInvalidArguments)
	}

	f, err := galois.New(b.w)
	if err != nil {
		return nil, err
	}
	p := codeParams{k: b.k, m: b.m, w: b.w, f: f}

	var mat []uint32
	switch b.method {
	case ReedSolVand:
		mat, err = rsVandCodingMatrix(f, b.k, b.m, b.w)
	case Cauchy:
		mat, err = cauchyCodingMatrix(f, b.k, b.m, b.w)
	default:
		return nil, fmt.Errorf("coding method %s: %w", b.method, ErrNotSupported)
	}
	if err != nil {
		return nil, err
	}

	var cdr coder
	switch b.tech {
	case Matrix:
		if b.w != 8 && b.w != 16 && b.w != 32 {
			return nil, fmt.Errorf("matrix technique needs w in {8,16,32}: %w", ErrNotSupported)
		}
		cdr = &matrixCoder{codeParams: p, mat: mat, rowAllOnes: b.method == ReedSolVand}
	case BitMatrix:
		if b.method == ReedSolVand {
			return nil, fmt.Errorf("bitmatrix technique with %s: %w", b.method, ErrNotSupported)
		}
		ps, err := b.checkPacketSize()
		if err != nil {
			return nil, err
		}
		cdr = &bitMatrixCoder{codeParams: p, bmat: expandToBits(f, mat, b.k, b.m, b.w), packetSize: ps}
	case Schedule:
		if b.method == ReedSolVand {
			return nil, fmt.Errorf("schedule technique with %s: %w", b.method, ErrNotSupported)
		}
		ps, err := b.checkPacketSize()
		if err != nil {
			return nil, err
		}
		bmat := expandToBits(f, mat, b.k, b.m, b.w)
		cdr = &scheduleCoder{
			codeParams: p,
			bmat:       bmat,
			encOps:     compileSchedule(bmat, b.k, b.m, b.w),
			packetSize: ps,
		}
	case ScheduleCache:
		if b.method == ReedSolVand {
			return nil, fmt.Errorf("schedule-cache technique with %s: %w", b.method, ErrNotSupported)
		}
		if b.m != 2 {
			return nil, fmt.Errorf("schedule-cache technique needs m = 2: %w", ErrNotSupported)
		}
		ps, err := b.checkPacketSize()
		if err != nil {
			return nil, err
		}
		cdr, err = newScheduleCacheCoder(p, expandToBits(f, mat, b.k, b.m, b.w), ps)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("technique %s: %w", b.tech, ErrNotSupported)
	}

	log.Debugf("built %s/%s erasure code k=%d m=%d w=%d", b.tech, b.method, b.k, b.m, b.w)
	return &ErasureCode{codeParams: p, method: b.method, coder: cdr}, nil
}

func (b *Builder) checkPacketSize() (int, error) {
	if !b.packetSet {
		return 0, fmt.Errorf("packet size is required: %w", ErrInvalidArguments)
	}
	if b.packetSize <= 0 {
		return 0, fmt.Errorf("packet size must be greater than 0: %w", ErrInvalidArguments)
	}
	if b.packetSize%galois.Alignment != 0 {
		return 0, fmt.Errorf("packet size %d must be a multiple of the machine word size (%d): %w",
			b.packetSize, galois.Alignment, ErrInvalidArguments)
	}
	return b.packetSize, nil
}
