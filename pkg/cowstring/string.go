package cowstring

import (
	"bytes"
	"unsafe"

	"github.com/clapdb/memory/pkg/strhash"
	"github.com/clapdb/memory/pkg/zc"
)

// String is the public copy-on-write string facade: a [core] storage value
// plus the [Allocator] that backs its growth and the debug-only cross-thread
// guard, matching the original's storage/facade split.
type String struct {
	core
	a     Allocator
	guard guard
}

// New builds a String over data, choosing small/medium/large storage by
// size and routing any future growth through a.
func New(a Allocator, data string) *String {
	s := &String{a: a}
	s.core = newCore(a, []byte(data))
	return s
}

// NewBytes is New, taking a byte slice instead of a string.
func NewBytes(a Allocator, data []byte) *String {
	s := &String{a: a}
	s.core = newCore(a, data)
	return s
}

// Len returns the number of live bytes.
func (s *String) Len() int { return s.size() }

// Cap returns the usable capacity, which for a shared large string equals
// its current size (any append forces an unshare).
func (s *String) Cap() int { return s.capacity() }

// Bytes returns a read-only view of the live bytes. The returned slice
// aliases shared storage for large strings; callers that need an
// independent copy should copy it or use [String.Clone].
func (s *String) Bytes() []byte { return s.data() }

// String implements fmt.Stringer, materialising a copy of the live bytes.
func (s *String) String() string { return string(s.data()) }

// Copy makes *s an independent value holding the same contents as rhs,
// sharing rhs's buffer in O(1) when rhs is large (bumping its refcount),
// exactly mirroring arena_string_core's copy constructor.
func (s *String) Copy(rhs *String) {
	s.guard.check()
	s.reset()
	s.a = rhs.a
	s.core.copyFrom(rhs.a, &rhs.core)
}

// Clone returns a deep copy of s that never shares storage, even if s is
// currently large. This is the escape hatch for moving string ownership
// across goroutines.
func (s *String) Clone() *String {
	out := &String{a: s.a}
	out.core.cloneFrom(s.a, &s.core)
	return out
}

// Append appends data's bytes in place, growing with exponential hinting.
func (s *String) Append(data []byte) {
	s.guard.check()
	if s.overlaps(data) {
		data = bytes.Clone(data)
	}
	s.append(s.a, data)
}

// AppendString is Append for a built-in string.
func (s *String) AppendString(data string) {
	s.Append([]byte(data))
}

// PushBack appends a single byte, growing with the exponential hint.
func (s *String) PushBack(ch byte) {
	s.guard.check()
	s.pushBack(s.a, ch)
}

// PopBack removes the last byte. Panics if s is empty.
func (s *String) PopBack() {
	s.guard.check()
	n := s.size()
	if n == 0 {
		panic("cowstring: PopBack on an empty String")
	}
	s.shrink(s.a, uint64(n-1))
}

// Reserve ensures at least minCapacity bytes of room without changing size,
// per the growth policy table.
func (s *String) Reserve(minCapacity uint64) {
	s.guard.check()
	s.reserve(s.a, minCapacity)
}

// ShrinkToSize truncates s to newSize bytes, per the shrink policy. Panics if newSize exceeds the current size.
func (s *String) ShrinkToSize(newSize uint64) {
	s.guard.check()
	s.shrink(s.a, newSize)
}

// Insert inserts data's bytes at pos, shifting the tail right.
func (s *String) Insert(pos int, data []byte) {
	s.guard.check()
	n := s.size()
	if pos < 0 || pos > n {
		panic("cowstring: Insert position out of range")
	}
	if s.overlaps(data) {
		data = bytes.Clone(data)
	}
	newSize := uint64(n + len(data))
	oldBytesAfterPos := append([]byte(nil), s.data()[pos:]...)
	s.expandNoinit(s.a, newSize, true)
	buf := unsafe.Slice(s.dataPtr(), newSize)
	copy(buf[pos:], data)
	copy(buf[pos+len(data):], oldBytesAfterPos)
	s.writeTerminator()
}

// Erase removes the n bytes starting at pos.
func (s *String) Erase(pos, n int) {
	s.guard.check()
	size := s.size()
	if pos < 0 || n < 0 || pos+n > size {
		panic("cowstring: Erase range out of bounds")
	}
	tail := append([]byte(nil), s.data()[pos+n:]...)
	if s.isShared() {
		s.unshare(s.a, uint64(size))
	}
	buf := unsafe.Slice(s.dataPtr(), size)
	copy(buf[pos:], tail)
	s.shrink(s.a, uint64(size-n))
}

// Replace substitutes the range [pos, pos+n) with data's contents, growing
// or shrinking as needed.
func (s *String) Replace(pos, n int, data []byte) {
	s.guard.check()
	size := s.size()
	if pos < 0 || n < 0 || pos+n > size {
		panic("cowstring: Replace range out of bounds")
	}
	if s.overlaps(data) {
		data = bytes.Clone(data)
	}
	tail := append([]byte(nil), s.data()[pos+n:]...)
	newSize := pos + len(data) + len(tail)
	if s.isShared() {
		s.unshare(s.a, uint64(newSize))
	}
	s.expandNoinit(s.a, uint64(newSize), true)
	buf := unsafe.Slice(s.dataPtr(), newSize)
	copy(buf[pos:], data)
	copy(buf[pos+len(data):], tail)
	s.writeTerminator()
}

// Substr returns a fresh, independently-owned String holding bytes
// [pos, pos+n).
func (s *String) Substr(pos, n int) *String {
	size := s.size()
	if pos < 0 || n < 0 || pos+n > size {
		panic("cowstring: Substr range out of bounds")
	}
	return NewBytes(s.a, s.data()[pos:pos+n])
}

// View returns a zero-copy [zc.View] over bytes [pos, pos+n) of s, for
// callers that want a substring without paying for a fresh allocation and
// are willing to keep s alive for as long as the view is used. Pass the
// view back to [String.BytesAt] to recover the byte slice it addresses.
func (s *String) View(pos, n int) zc.View {
	size := s.size()
	if pos < 0 || n < 0 || pos+n > size {
		panic("cowstring: View range out of bounds")
	}
	return zc.Raw(pos, n)
}

// BytesAt resolves a [zc.View] previously taken from s (via [String.View])
// back into the byte slice it addresses.
func (s *String) BytesAt(v zc.View) []byte {
	return v.Bytes(s.dataPtr())
}

// Compare does a three-way lexicographic byte comparison against rhs.
func (s *String) Compare(rhs *String) int {
	return bytes.Compare(s.data(), rhs.data())
}

// Equal reports whether s and rhs hold identical byte contents.
func (s *String) Equal(rhs *String) bool {
	return bytes.Equal(s.data(), rhs.data())
}

// StartsWith reports whether s begins with prefix.
func (s *String) StartsWith(prefix []byte) bool {
	return bytes.HasPrefix(s.data(), prefix)
}

// EndsWith reports whether s ends with suffix.
func (s *String) EndsWith(suffix []byte) bool {
	return bytes.HasSuffix(s.data(), suffix)
}

// Contains reports whether s contains sub anywhere.
func (s *String) Contains(sub []byte) bool {
	return bytes.Contains(s.data(), sub)
}

// Find returns the index of the first occurrence of sub at or after from,
// or -1 if not found.
func (s *String) Find(sub []byte, from int) int {
	if from < 0 || from > s.size() {
		return -1
	}
	i := bytes.Index(s.data()[from:], sub)
	if i < 0 {
		return -1
	}
	return from + i
}

// RFind returns the index of the last occurrence of sub at or before from,
// or -1 if not found.
func (s *String) RFind(sub []byte, from int) int {
	data := s.data()
	upto := from + len(sub)
	if upto > len(data) {
		upto = len(data)
	}
	if upto < 0 {
		return -1
	}
	i := bytes.LastIndex(data[:upto], sub)
	return i
}

// FindFirstOf returns the index of the first byte in s (at or after from)
// that also appears in chars, or -1.
func (s *String) FindFirstOf(chars []byte, from int) int {
	data := s.data()
	for i := from; i < len(data); i++ {
		if bytes.IndexByte(chars, data[i]) >= 0 {
			return i
		}
	}
	return -1
}

// FindLastOf returns the index of the last byte in s that also appears in
// chars, or -1.
func (s *String) FindLastOf(chars []byte) int {
	data := s.data()
	for i := len(data) - 1; i >= 0; i-- {
		if bytes.IndexByte(chars, data[i]) >= 0 {
			return i
		}
	}
	return -1
}

// FindFirstNotOf returns the index of the first byte in s (at or after
// from) that does not appear in chars, or -1.
func (s *String) FindFirstNotOf(chars []byte, from int) int {
	data := s.data()
	for i := from; i < len(data); i++ {
		if bytes.IndexByte(chars, data[i]) < 0 {
			return i
		}
	}
	return -1
}

// FindLastNotOf returns the index of the last byte in s that does not
// appear in chars, or -1.
func (s *String) FindLastNotOf(chars []byte) int {
	data := s.data()
	for i := len(data) - 1; i >= 0; i-- {
		if bytes.IndexByte(chars, data[i]) < 0 {
			return i
		}
	}
	return -1
}

// Hash returns a content hash consistent with [pkg/shortstring]'s, via
// strhash, so that equal contents in either storage family hash equally.
func (s *String) Hash() uint64 {
	return strhash.Bytes(s.data())
}

// overlaps reports whether data aliases s's own storage, which Append,
// Insert and Replace must detect and snapshot before mutating in place
// (aliased inputs).
func (s *String) overlaps(data []byte) bool {
	if len(data) == 0 || s.size() == 0 {
		return false
	}
	own := s.data()
	lo := uintptr(unsafe.Pointer(&own[0]))
	hi := lo + uintptr(len(own))
	p := uintptr(unsafe.Pointer(&data[0]))
	return p >= lo && p < hi
}
