//go:build go1.20

package xunsafe

import (
	"fmt"
	"unsafe"

	"github.com/clapdb/memory/pkg/xunsafe/layout"
)

// Addr is an untyped, arithmetic-friendly address of a T.
//
// Unlike *T, an Addr carries no write barrier and is not tracked by the
// garbage collector as a pointer; callers that need the GC to keep the
// pointee alive must do so some other way (e.g. [runtime.KeepAlive] on the original
// pointer, or by deriving the Addr from memory that is already rooted
// elsewhere, such as an arena block).
type Addr[T any] uintptr

// AddrOf returns the address of *p.
func AddrOf[T any](p *T) Addr[T] {
	return Addr[T](uintptr(unsafe.Pointer(p)))
}

// EndOf returns the address one past the last element of s.
func EndOf[T any](s []T) Addr[T] {
	return AddrOf(unsafe.SliceData(s)).Add(len(s))
}

// AssertValid converts a back to a *T.
//
// It does not check that a actually points at a live T; that is the caller's
// responsibility.
func (a Addr[T]) AssertValid() *T {
	return (*T)(unsafe.Pointer(uintptr(a)))
}

// Add returns a+n, scaled by sizeof(T).
func (a Addr[T]) Add(n int) Addr[T] {
	return a + Addr[T](n*layout.Size[T]())
}

// ByteAdd returns a+n, treating n as a raw byte offset.
func (a Addr[T]) ByteAdd(n int) Addr[T] {
	return a + Addr[T](n)
}

// Sub returns (a-b)/sizeof(T).
func (a Addr[T]) Sub(b Addr[T]) int {
	return int(a-b) / layout.Size[T]()
}

// Padding returns the number of bytes needed to round a up to align.
func (a Addr[T]) Padding(align int) int {
	return int(layout.Padding(uintptr(a), uintptr(align)))
}

// RoundUpTo rounds a up to the given alignment.
func (a Addr[T]) RoundUpTo(align int) Addr[T] {
	return Addr[T](layout.RoundUp(uintptr(a), uintptr(align)))
}

// SignBit reports whether a's most significant bit is set.
func (a Addr[T]) SignBit() bool {
	return a&signBitMask[T]() != 0
}

// SignBitMask returns all-ones if a's sign bit is set, all-zeros otherwise.
func (a Addr[T]) SignBitMask() Addr[T] {
	if a.SignBit() {
		return ^Addr[T](0)
	}
	return 0
}

// ClearSignBit returns a with its most significant bit cleared.
func (a Addr[T]) ClearSignBit() Addr[T] {
	return a &^ signBitMask[T]()
}

func signBitMask[T any]() Addr[T] {
	return Addr[T](1) << (unsafe.Sizeof(uintptr(0))*8 - 1)
}

// Format implements fmt.Formatter so that Addr prints as a hex pointer value.
func (a Addr[T]) Format(f fmt.State, verb rune) {
	switch verb {
	case 'x':
		fmt.Fprintf(f, "%x", uintptr(a))
	default:
		fmt.Fprintf(f, "0x%x", uintptr(a))
	}
}
