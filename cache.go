package erasure

// scheduleCacheCoder precompiles a decoding XOR program for every possible
// erasure pattern in addition to the encoding program. With m = 2 there are
// only k+m single erasures and (k+m choose 2) pairs, so the whole table is
// built up front and decoding is a table lookup plus execution.
type scheduleCacheCoder struct {
	codeParams
	encOps     []schedOp
	packetSize int

	single [][]schedOp   // single[e]: only block e erased
	pair   [][][]schedOp // pair[a][b] with a < b: blocks a and b erased
}

func newScheduleCacheCoder(p codeParams, bmat *bitmatrix, packetSize int) (*scheduleCacheCoder, error) {
	n := p.k + p.m
	c := &scheduleCacheCoder{
		codeParams: p,
		encOps:     compileSchedule(bmat, p.k, p.m, p.w),
		packetSize: packetSize,
		single:     make([][]schedOp, n),
		pair:       make([][][]schedOp, n),
	}
	erased := make([]bool, n)
	for a := 0; a < n; a++ {
		erased[a] = true
		ops, err := decodingSchedule(bmat, p.k, p.m, p.w, erased)
		if err != nil {
			return nil, err
		}
		c.single[a] = ops
		c.pair[a] = make([][]schedOp, n)
		for b := a + 1; b < n; b++ {
			erased[b] = true
			ops, err := decodingSchedule(bmat, p.k, p.m, p.w, erased)
			if err != nil {
				return nil, err
			}
			c.pair[a][b] = ops
			erased[b] = false
		}
		erased[a] = false
	}
	return c, nil
}

func (c *scheduleCacheCoder) technique() Technique {
	return ScheduleCache
}

func (c *scheduleCacheCoder) encode(data, parity [][]byte) error {
	size := len(data[0])
	if err := checkPacketMultiple(size, c.w, c.packetSize); err != nil {
		return err
	}
	ptrs := make([][]byte, 0, c.k+c.m)
	ptrs = append(ptrs, data...)
	ptrs = append(ptrs, parity...)
	return runSchedule(c.f, c.encOps, ptrs, c.w, c.packetSize, size)
}

func (c *scheduleCacheCoder) decode(data, parity [][]byte, erased []bool) error {
	size := len(data[0])
	if err := checkPacketMultiple(size, c.w, c.packetSize); err != nil {
		return err
	}
	var ids []int
	for i, e := range erased {
		if e {
			ids = append(ids, i)
		}
	}
	var ops []schedOp
	switch len(ids) {
	case 0:
		return nil
	case 1:
		ops = c.single[ids[0]]
	case 2:
		ops = c.pair[ids[0]][ids[1]]
	}
	ptrs := decodePtrs(c.k, c.m, erased, data, parity)
	return runSchedule(c.f, ops, ptrs, c.w, c.packetSize, size)
}
