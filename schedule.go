package erasure

import (
	"github.com/ethp2p/erasure/galois"
)

// schedOp is one step of a compiled XOR program: copy or XOR one packet of a
// source block into one packet of a destination block. Block ids index the
// pointer table laid out as k data blocks followed by the target blocks.
type schedOp struct {
	xor    bool
	srcID  int
	srcBit int
	dstID  int
	dstBit int
}

// compileSchedule turns a (targets*w) x (k*w) bit matrix into an XOR
// program. Each target bit-row is either computed from scratch (one copy
// plus one XOR per remaining one in its row) or derived from an already
// computed row (one copy plus one XOR per differing bit), whichever is
// cheaper. Rows are emitted cheapest first, and finishing a row may lower
// the cost of the rows still pending.
func compileSchedule(b *bitmatrix, k, targets, w int) []schedOp {
	rows := targets * w
	cols := k * w
	diff := make([]int, rows)
	from := make([]int, rows)
	done := make([]bool, rows)
	for i := 0; i < rows; i++ {
		n := 0
		for _, v := range b.row(i) {
			n += int(v)
		}
		diff[i] = n
		from[i] = -1
	}

	var ops []schedOp
	for remaining := rows; remaining > 0; remaining-- {
		r := -1
		for i := 0; i < rows; i++ {
			if !done[i] && (r == -1 || diff[i] < diff[r]) {
				r = i
			}
		}
		row := b.row(r)
		dstID, dstBit := k+r/w, r%w

		if from[r] == -1 {
			started := false
			for x := 0; x < cols; x++ {
				if row[x] != 0 {
					ops = append(ops, schedOp{xor: started, srcID: x / w, srcBit: x % w, dstID: dstID, dstBit: dstBit})
					started = true
				}
			}
		} else {
			s := from[r]
			ops = append(ops, schedOp{srcID: k + s/w, srcBit: s % w, dstID: dstID, dstBit: dstBit})
			srow := b.row(s)
			for x := 0; x < cols; x++ {
				if row[x] != srow[x] {
					ops = append(ops, schedOp{xor: true, srcID: x / w, srcBit: x % w, dstID: dstID, dstBit: dstBit})
				}
			}
		}
		done[r] = true

		for i := 0; i < rows; i++ {
			if done[i] {
				continue
			}
			d := 1
			irow := b.row(i)
			for x := 0; x < cols; x++ {
				if irow[x] != row[x] {
					d++
				}
			}
			if d < diff[i] {
				diff[i] = d
				from[i] = r
			}
		}
	}
	return ops
}

// runSchedule executes the XOR program over every super-packet of the
// blocks in ptrs.
func runSchedule(f *galois.Field, ops []schedOp, ptrs [][]byte, w, packetSize, size int) error {
	for base := 0; base < size; base += packetSize * w {
		for _, op := range ops {
			src := ptrs[op.srcID][base+op.srcBit*packetSize : base+(op.srcBit+1)*packetSize]
			dst := ptrs[op.dstID][base+op.dstBit*packetSize : base+(op.dstBit+1)*packetSize]
			if op.xor {
				if err := f.RegionXorAcc(dst, src); err != nil {
					return err
				}
			} else {
				copy(dst, src)
			}
		}
	}
	return nil
}

// decodeSlots assigns each block a slot for scheduled decoding: surviving
// data blocks keep their slot, each failed data slot is taken over by the
// lowest unused surviving parity block, and the failed blocks themselves
// occupy slots k onward, data first. rowIDs maps slot to block id and
// indToRow is its inverse.
func decodeSlots(k, m int, erased []bool) (rowIDs, indToRow []int, ddf, cdf int) {
	rowIDs = make([]int, k+m)
	indToRow = make([]int, k+m)
	j := k
	x := k
	for i := 0; i < k; i++ {
		if !erased[i] {
			rowIDs[i] = i
			indToRow[i] = i
			continue
		}
		ddf++
		for erased[x] {
			x++
		}
		rowIDs[i] = x
		indToRow[x] = i
		x++
		rowIDs[j] = i
		indToRow[i] = j
		j++
	}
	for i := k; i < k+m; i++ {
		if erased[i] {
			cdf++
			rowIDs[j] = i
			indToRow[i] = j
			j++
		}
	}
	return rowIDs, indToRow, ddf, cdf
}

// decodePtrs builds the pointer table matching decodeSlots: the first k
// slots hold survivor buffers and the remaining slots the buffers to be
// reconstructed.
func decodePtrs(k, m int, erased []bool, data, parity [][]byte) [][]byte {
	ptrs := make([][]byte, k+m)
	j := k
	x := 0
	for i := 0; i < k; i++ {
		if !erased[i] {
			ptrs[i] = data[i]
			continue
		}
		for erased[k+x] {
			x++
		}
		ptrs[i] = parity[x]
		x++
		ptrs[j] = data[i]
		j++
	}
	for i := 0; i < m; i++ {
		if erased[k+i] {
			ptrs[j] = parity[i]
			j++
		}
	}
	return ptrs
}

// decodingSchedule compiles one XOR program that reconstructs all failed
// blocks at once. The failed data rows come from inverting the bit matrix
// of the first k surviving blocks. Each failed parity row starts from its
// generator rows, with the columns of failed data blocks zeroed and the
// corresponding reconstruction rows XORed in wherever the generator had a
// one, so the program reads only surviving blocks and already reconstructed
// ones.
func decodingSchedule(b *bitmatrix, k, m, w int, erased []bool) ([]schedOp, error) {
	rowIDs, indToRow, ddf, cdf := decodeSlots(k, m, erased)
	cols := k * w
	dec := newBitmatrix((ddf+cdf)*w, cols)

	if ddf > 0 {
		sur := newBitmatrix(k*w, cols)
		for i := 0; i < k; i++ {
			if rowIDs[i] == i {
				for x := 0; x < w; x++ {
					sur.bits[(i*w+x)*cols+i*w+x] = 1
				}
			} else {
				src := b.bits[(rowIDs[i]-k)*w*cols:]
				copy(sur.bits[i*w*cols:(i+1)*w*cols], src)
			}
		}
		inv, err := sur.invert()
		if err != nil {
			return nil, err
		}
		for i := 0; i < ddf; i++ {
			failed := rowIDs[k+i]
			copy(dec.bits[i*w*cols:(i+1)*w*cols], inv.bits[failed*w*cols:(failed+1)*w*cols])
		}
	}

	for x := 0; x < cdf; x++ {
		drive := rowIDs[k+ddf+x] - k
		block := dec.bits[(ddf+x)*w*cols : (ddf+x+1)*w*cols]
		copy(block, b.bits[drive*w*cols:(drive+1)*w*cols])
		for i := 0; i < k; i++ {
			if rowIDs[i] == i {
				continue
			}
			for j := 0; j < w; j++ {
				clear(block[j*cols+i*w : j*cols+(i+1)*w])
			}
		}
		for i := 0; i < k; i++ {
			if rowIDs[i] == i {
				continue
			}
			repair := dec.bits[(indToRow[i]-k)*w*cols:]
			for j := 0; j < w; j++ {
				row := block[j*cols : (j+1)*cols]
				for y := 0; y < w; y++ {
					if b.bits[(drive*w+j)*cols+i*w+y] != 0 {
						xorRow(row, repair[y*cols:(y+1)*cols])
					}
				}
			}
		}
	}
	return compileSchedule(dec, k, ddf+cdf, w), nil
}

// scheduleCoder precompiles the encoding bit matrix into an XOR program and
// compiles a decoding program on demand for each erasure pattern.
type scheduleCoder struct {
	codeParams
	bmat       *bitmatrix
	encOps     []schedOp
	packetSize int
}

func (c *scheduleCoder) technique() Technique {
	return Schedule
}

func (c *scheduleCoder) encode(data, parity [][]byte) error {
	size := len(data[0])
	if err := checkPacketMultiple(size, c.w, c.packetSize); err != nil {
		return err
	}
	ptrs := make([][]byte, 0, c.k+c.m)
	ptrs = append(ptrs, data...)
	ptrs = append(ptrs, parity...)
	return runSchedule(c.f, c.encOps, ptrs, c.w, c.packetSize, size)
}

func (c *scheduleCoder) decode(data, parity [][]byte, erased []bool) error {
	size := len(data[0])
	if err := checkPacketMultiple(size, c.w, c.packetSize); err != nil {
		return err
	}
	ops, err := decodingSchedule(c.bmat, c.k, c.m, c.w, erased)
	if err != nil {
		return err
	}
	ptrs := decodePtrs(c.k, c.m, erased, data, parity)
	return runSchedule(c.f, ops, ptrs, c.w, c.packetSize, size)
}
