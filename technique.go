package erasure

// Technique selects how the generator matrix is applied to the data.
//
// Matrix works directly in GF(2^w) and requires w to be 8, 16 or 32.
// BitMatrix expands the generator into a binary matrix so every operation
// becomes an XOR of packets, for any w up to 32. Schedule precompiles the
// bit-matrix product into an ordered XOR program, and ScheduleCache
// additionally precompiles a decoding program for every erasure pattern,
// which is only tractable for m = 2.
type Technique int

const (
	Matrix Technique = iota
	BitMatrix
	Schedule
	ScheduleCache
)

func (t Technique) String() string {
	switch t {
	case Matrix:
		return "matrix"
	case BitMatrix:
		return "bitmatrix"
	case Schedule:
		return "schedule"
	case ScheduleCache:
		return "schedule-cache"
	default:
		return "unknown"
	}
}

// CodingMethod selects the generator matrix construction.
//
// ReedSolVand builds a systematic Vandermonde-derived matrix whose first
// parity row is all ones, so single-erasure repair degenerates to XOR. It is
// restricted to the Matrix technique. Cauchy builds a Cauchy matrix with a
// weight-reduction pass and works with every technique. The remaining
// methods are recognized but not implemented.
type CodingMethod int

const (
	ReedSolVand CodingMethod = iota
	Cauchy
	Liberation
	Liber8tion
	BlaumRoth
)

func (m CodingMethod) String() string {
	switch m {
	case ReedSolVand:
		return "reed-sol-vand"
	case Cauchy:
		return "cauchy"
	case Liberation:
		return "liberation"
	case Liber8tion:
		return "liber8tion"
	case BlaumRoth:
		return "blaum-roth"
	default:
		return "unknown"
	}
}
