package shortstring

import "fmt"

// LengthError reports that a growth operation would push a ShortString or
// ByteString beyond what its chosen header variant can represent, mirroring
// [github.com/clapdb/memory/pkg/cowstring.LengthError]'s role for the
// other string family in this module.
type LengthError struct {
	Op    string
	Size  int
	Limit int
}

func (e *LengthError) Error() string {
	return fmt.Sprintf("shortstring: %s would grow the string to %d bytes, exceeding the limit of %d", e.Op, e.Size, e.Limit)
}

// maxSize is the largest size any external header variant can record: the
// 32-bit size field of header9, the widest of the three.
const maxSize = 1<<32 - 1

func checkLength(op string, size int) {
	if size < 0 || size > maxSize {
		panic(&LengthError{Op: op, Size: size, Limit: maxSize})
	}
}
