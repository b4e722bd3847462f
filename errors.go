package erasure

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArguments means a parameter or buffer shape does not satisfy
	// the documented requirements.
	ErrInvalidArguments = errors.New("invalid arguments")
	// ErrNotAligned means a buffer length is not a multiple of the machine
	// word size.
	ErrNotAligned = errors.New("buffer not aligned to the machine word size")
	// ErrNotSupported means the requested combination of technique, coding
	// method, word size and shape is not implemented.
	ErrNotSupported = errors.New("not supported")
	// ErrTooManyErasures means more blocks were erased than the code can
	// tolerate. Errors of this kind carry the counts; see TooManyErasuresError.
	ErrTooManyErasures = errors.New("too many erasures")
	// ErrDecodeFailed means the surviving blocks were not sufficient to
	// reconstruct the erased ones, even though the erasure count was within
	// bounds.
	ErrDecodeFailed = errors.New("decoding failed")
)

// TooManyErasuresError reports an erasure set larger than the parity count.
// It matches ErrTooManyErasures under errors.Is.
type TooManyErasuresError struct {
	Count int // distinct erased blocks requested
	Max   int // most the code can recover, i.e. m
}

func (e *TooManyErasuresError) Error() string {
	return fmt.Sprintf("%d blocks erased but only %d recoverable", e.Count, e.Max)
}

func (e *TooManyErasuresError) Unwrap() error {
	return ErrTooManyErasures
}
