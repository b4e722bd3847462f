package galois

import (
	"crypto/subtle"
	"encoding/binary"
	"fmt"
)

// checkRegions validates the common region constraints: equal lengths and
// alignment to the platform word size.
func checkRegions(a, b []byte) error {
	if len(a) != len(b) {
		return fmt.Errorf("region length %d vs %d: %w", len(a), len(b), ErrInvalidRange)
	}
	if len(a)%Alignment != 0 {
		return fmt.Errorf("region length %d: %w", len(a), ErrNotAligned)
	}
	return nil
}

// RegionXor writes a XOR b into out. All three buffers must be the same
// length and aligned. out may alias a or b.
func (f *Field) RegionXor(a, b, out []byte) error {
	if err := checkRegions(a, b); err != nil {
		return err
	}
	if err := checkRegions(a, out); err != nil {
		return err
	}
	subtle.XORBytes(out, a, b)
	return nil
}

// RegionXorAcc XORs src into dst in place.
func (f *Field) RegionXorAcc(dst, src []byte) error {
	if err := checkRegions(dst, src); err != nil {
		return err
	}
	subtle.XORBytes(dst, dst, src)
	return nil
}

// RegionMultiply multiplies every w-bit word of src by the scalar c and
// writes the result to dst, XORing into dst instead when acc is set. Words
// are little-endian within the buffer. src is never modified; dst must not
// overlap src unless they are the same slice with acc unset. Only the byte
// aligned widths 8, 16 and 32 are supported.
func (f *Field) RegionMultiply(src []byte, c uint32, acc bool, dst []byte) error {
	if err := checkRegions(src, dst); err != nil {
		return err
	}
	switch f.w {
	case 8:
		f.regionMultiply8(src, byte(c), acc, dst)
	case 16:
		f.regionMultiply16(src, uint16(c), acc, dst)
	case 32:
		f.regionMultiply32(src, c, acc, dst)
	default:
		return fmt.Errorf("region multiply in GF(2^%d): %w", f.w, ErrNotSupported)
	}
	return nil
}

func (f *Field) regionMultiply8(src []byte, c byte, acc bool, dst []byte) {
	row := f.t.mul8[int(c)<<8:]
	if acc {
		for i, s := range src {
			dst[i] ^= row[s]
		}
		return
	}
	for i, s := range src {
		dst[i] = row[s]
	}
}

func (f *Field) regionMultiply16(src []byte, c uint16, acc bool, dst []byte) {
	if c == 0 {
		if !acc {
			clear(dst)
		}
		return
	}
	logC := f.t.log[c]
	for i := 0; i+2 <= len(src); i += 2 {
		s := binary.LittleEndian.Uint16(src[i:])
		var p uint16
		if s != 0 {
			p = uint16(f.t.alog[f.t.log[s]+logC])
		}
		if acc {
			p ^= binary.LittleEndian.Uint16(dst[i:])
		}
		binary.LittleEndian.PutUint16(dst[i:], p)
	}
}

func (f *Field) regionMultiply32(src []byte, c uint32, acc bool, dst []byte) {
	if c == 0 {
		if !acc {
			clear(dst)
		}
		return
	}
	// Split the 32-bit word into four bytes and precompute the product of c
	// with every byte value in every byte position, so the inner loop is four
	// table lookups per word instead of a full shift multiply.
	var tab [4][256]uint32
	for j := 0; j < 4; j++ {
		for b := 1; b < 256; b++ {
			tab[j][b] = uint32(shiftMultiply(uint64(c), uint64(b)<<(8*j), 32, f.t.poly))
		}
	}
	for i := 0; i+4 <= len(src); i += 4 {
		s := binary.LittleEndian.Uint32(src[i:])
		p := tab[0][byte(s)] ^ tab[1][byte(s>>8)] ^ tab[2][byte(s>>16)] ^ tab[3][byte(s>>24)]
		if acc {
			p ^= binary.LittleEndian.Uint32(dst[i:])
		}
		binary.LittleEndian.PutUint32(dst[i:], p)
	}
}
