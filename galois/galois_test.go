package galois

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math/rand"
	"testing"
)

func TestNew(t *testing.T) {
	for w := 1; w <= 32; w++ {
		if _, err := New(w); err != nil {
			t.Errorf("New(%d): %v", w, err)
		}
	}
	for _, w := range []int{-1, 0, 33, 64} {
		if _, err := New(w); !errors.Is(err, ErrInvalidWidth) {
			t.Errorf("New(%d): expected ErrInvalidWidth, got %v", w, err)
		}
	}
}

func TestScalarArithmetic(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, w := range []int{2, 4, 8, 13, 16, 24, 32} {
		f, err := New(w)
		if err != nil {
			t.Fatal(err)
		}
		mask := uint32(uint64(1)<<w - 1)
		t.Run(fmt.Sprintf("GF(2^%d)", w), func(t *testing.T) {
			for i := 0; i < 1000; i++ {
				a := rng.Uint32() & mask
				b := rng.Uint32() & mask
				c := rng.Uint32() & mask
				if f.Multiply(a, b) != f.Multiply(b, a) {
					t.Fatalf("%d*%d is not commutative", a, b)
				}
				ab := f.Multiply(f.Multiply(a, b), c)
				ba := f.Multiply(a, f.Multiply(b, c))
				if ab != ba {
					t.Fatalf("(%d*%d)*%d != %d*(%d*%d)", a, b, c, a, b, c)
				}
				lhs := f.Multiply(a, f.Add(b, c))
				rhs := f.Add(f.Multiply(a, b), f.Multiply(a, c))
				if lhs != rhs {
					t.Fatalf("%d*(%d+%d): distributivity broken", a, b, c)
				}
				if f.Multiply(a, 1) != a {
					t.Fatalf("%d*1 != %d", a, a)
				}
				if b != 0 {
					inv, err := f.Inverse(b)
					if err != nil {
						t.Fatal(err)
					}
					if f.Multiply(b, inv) != 1 {
						t.Fatalf("%d * %d != 1", b, inv)
					}
					q, err := f.Divide(f.Multiply(a, b), b)
					if err != nil {
						t.Fatal(err)
					}
					if q != a {
						t.Fatalf("(%d*%d)/%d = %d, want %d", a, b, b, q, a)
					}
				}
			}
		})
	}
}

func TestDivideByZero(t *testing.T) {
	f, err := New(8)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Divide(7, 0); !errors.Is(err, ErrDivideByZero) {
		t.Errorf("Divide(7, 0): expected ErrDivideByZero, got %v", err)
	}
	if _, err := f.Inverse(0); !errors.Is(err, ErrDivideByZero) {
		t.Errorf("Inverse(0): expected ErrDivideByZero, got %v", err)
	}
}

func TestRegionMultiplyVectors(t *testing.T) {
	f, err := New(8)
	if err != nil {
		t.Fatal(err)
	}

	t.Run("overwrite", func(t *testing.T) {
		src := []byte{
			0xc4, 0xfa, 0x87, 0xee, 0x9a, 0x57, 0xcd, 0x56,
			0xe2, 0xc2, 0xea, 0x11, 0xcc, 0x59, 0x84, 0x26,
		}
		want := []byte{
			0x90, 0x27, 0xba, 0xfe, 0xae, 0xf3, 0x5d, 0x1d,
			0x42, 0xce, 0x61, 0xa8, 0xb3, 0x8e, 0x95, 0xd2,
		}
		orig := bytes.Clone(src)
		out := make([]byte, len(src))
		if err := f.RegionMultiply(src, 238, false, out); err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(out, want) {
			t.Errorf("got %x, want %x", out, want)
		}
		if !bytes.Equal(src, orig) {
			t.Error("source buffer was modified")
		}
	})

	t.Run("accumulate", func(t *testing.T) {
		src := []byte{
			0xe4, 0x6e, 0xc4, 0x84, 0xc8, 0xc1, 0x13, 0x04,
			0x68, 0x76, 0x01, 0x09, 0x12, 0x7d, 0x82, 0xaa,
		}
		want := []byte{
			0x3a, 0x35, 0x25, 0x1b, 0x8c, 0x92, 0xec, 0x67,
			0xef, 0x7a, 0xd0, 0x1e, 0x3c, 0xd9, 0xc1, 0x10,
		}
		// Accumulating into a zeroed buffer equals a plain product.
		out := make([]byte, len(src))
		if err := f.RegionMultiply(src, 208, true, out); err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(out, want) {
			t.Errorf("got %x, want %x", out, want)
		}
	})
}

func TestRegionXorVectors(t *testing.T) {
	f, err := New(8)
	if err != nil {
		t.Fatal(err)
	}
	a := []byte{0xc4, 0xfa, 0x87, 0xee, 0x9a, 0x57, 0xcd, 0x56}
	b := []byte{0x9a, 0x57, 0xcd, 0x56, 0xc4, 0xfa, 0x87, 0xee}
	want := []byte{0x5e, 0xad, 0x4a, 0xb8, 0x5e, 0xad, 0x4a, 0xb8}

	out := make([]byte, len(a))
	if err := f.RegionXor(a, b, out); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, want) {
		t.Errorf("RegionXor: got %x, want %x", out, want)
	}

	buf := bytes.Clone(a)
	if err := f.RegionXorAcc(buf, b); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf, want) {
		t.Errorf("RegionXorAcc: got %x, want %x", buf, want)
	}
}

func TestRegionMultiplyMatchesScalar(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for _, w := range []int{16, 32} {
		f, err := New(w)
		if err != nil {
			t.Fatal(err)
		}
		bytesPerWord := w / 8
		src := make([]byte, 32*bytesPerWord)
		rng.Read(src)
		for i := 0; i < 8; i++ {
			c := rng.Uint32() & uint32(uint64(1)<<w-1)
			dst := make([]byte, len(src))
			if err := f.RegionMultiply(src, c, false, dst); err != nil {
				t.Fatal(err)
			}
			for off := 0; off < len(src); off += bytesPerWord {
				var s, got uint32
				if w == 16 {
					s = uint32(binary.LittleEndian.Uint16(src[off:]))
					got = uint32(binary.LittleEndian.Uint16(dst[off:]))
				} else {
					s = binary.LittleEndian.Uint32(src[off:])
					got = binary.LittleEndian.Uint32(dst[off:])
				}
				if want := f.Multiply(s, c); got != want {
					t.Fatalf("w=%d word %#x * %#x = %#x, want %#x", w, s, c, got, want)
				}
			}
			// Accumulating twice must cancel back to the accumulator's
			// starting contents.
			acc := make([]byte, len(src))
			rng.Read(acc)
			orig := bytes.Clone(acc)
			if err := f.RegionMultiply(src, c, true, acc); err != nil {
				t.Fatal(err)
			}
			if err := f.RegionMultiply(src, c, true, acc); err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(acc, orig) {
				t.Fatal("double accumulate did not cancel")
			}
		}
	}
}

func TestRegionErrors(t *testing.T) {
	f, err := New(8)
	if err != nil {
		t.Fatal(err)
	}

	aligned := make([]byte, 2*Alignment)
	short := make([]byte, Alignment)
	odd := make([]byte, Alignment+1)

	if err := f.RegionXor(aligned, short, make([]byte, 2*Alignment)); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("length mismatch: expected ErrInvalidRange, got %v", err)
	}
	if err := f.RegionXor(odd, odd, bytes.Clone(odd)); !errors.Is(err, ErrNotAligned) {
		t.Errorf("odd length: expected ErrNotAligned, got %v", err)
	}
	if err := f.RegionMultiply(odd, 3, false, bytes.Clone(odd)); !errors.Is(err, ErrNotAligned) {
		t.Errorf("odd length multiply: expected ErrNotAligned, got %v", err)
	}
	if err := f.RegionXorAcc(aligned, short); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("acc length mismatch: expected ErrInvalidRange, got %v", err)
	}

	f4, err := New(4)
	if err != nil {
		t.Fatal(err)
	}
	if err := f4.RegionMultiply(aligned, 3, false, bytes.Clone(aligned)); !errors.Is(err, ErrNotSupported) {
		t.Errorf("w=4 region multiply: expected ErrNotSupported, got %v", err)
	}
}
