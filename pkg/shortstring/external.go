package shortstring

import (
	"encoding/binary"
	"unsafe"

	"github.com/clapdb/memory/internal/debug"
)

// rungs is the capacity ladder external buffers are quantised to by
// default, so that repeated growth from similar starting sizes tends to
// reuse the same few allocation sizes instead of every length getting its
// own allocator call. The byte-string variant shares this ladder but drops
// the +1 NUL terminator at every rung.
var rungs = [...]int{6, 15, 23, 31, 55, 111, 183, 287, 439, 663, 999, 1503, 2259, 3391}

// rungIndexFor returns the index of the smallest rung able to hold at
// least minCapacity characters, extrapolating past the table by 1.5x steps
// when minCapacity exceeds every listed rung.
func rungIndexFor(minCapacity int) int {
	for i, r := range rungs {
		if r >= minCapacity {
			return i
		}
	}
	i := len(rungs)
	for rungCapacity(i) < minCapacity {
		i++
	}
	return i
}

// rungCapacity returns the character capacity of rung i, extrapolating
// geometrically (1.5x per step) once i runs past the literal table.
func rungCapacity(i int) int {
	if i < len(rungs) {
		return rungs[i]
	}
	c := rungs[len(rungs)-1]
	for j := len(rungs); j <= i; j++ {
		c = c + c/2 + 1
	}
	return c
}

// header5 is the delta-5-external buffer header: a 40-bit record with a
// 16-bit capacity and a 24-bit size, stored in the first 5 bytes of the
// external buffer ahead of the character payload. It is used when a
// caller reserves an exact capacity that should not round up to a ladder
// rung, and that capacity fits in 16 bits.
const header5Size = 5

func writeHeader5(buf []byte, capacity, size int) {
	binary.LittleEndian.PutUint16(buf[0:2], uint16(capacity))
	var sz [4]byte
	binary.LittleEndian.PutUint32(sz[:], uint32(size))
	copy(buf[2:5], sz[:3])
}

func readHeader5(buf []byte) (capacity, size int) {
	capacity = int(binary.LittleEndian.Uint16(buf[0:2]))
	var sz [4]byte
	copy(sz[:3], buf[2:5])
	size = int(binary.LittleEndian.Uint32(sz[:]))
	return
}

// header9 is the delta-9-external buffer header: a 72-bit record with a
// 40-bit capacity and a 32-bit size, used for an exact reserved capacity
// once it outgrows what header5's 16-bit capacity field can address.
const header9Size = 9

func writeHeader9(buf []byte, capacity, size int) {
	var cap40 [8]byte
	binary.LittleEndian.PutUint64(cap40[:], uint64(capacity))
	copy(buf[0:5], cap40[:5])
	binary.LittleEndian.PutUint32(buf[5:9], uint32(size))
}

func readHeader9(buf []byte) (capacity, size int) {
	var cap40 [8]byte
	copy(cap40[:5], buf[0:5])
	capacity = int(binary.LittleEndian.Uint64(cap40[:]))
	size = int(binary.LittleEndian.Uint32(buf[5:9]))
	return
}

// headerLadder is the ladder-external buffer header: a one-byte rung
// selector plus a 24-bit size. It is the default external representation
// new and growing strings use, since a rung index is cheaper to store
// than a raw capacity and the rounding it implies is exactly the
// amortised-growth trade the ladder exists for.
const headerLadderSize = 4

func writeHeaderLadder(buf []byte, rung, size int) {
	buf[0] = byte(rung)
	var sz [4]byte
	binary.LittleEndian.PutUint32(sz[:], uint32(size))
	copy(buf[1:4], sz[:3])
}

func readHeaderLadder(buf []byte) (rung, size int) {
	rung = int(buf[0])
	var sz [4]byte
	copy(sz[:3], buf[1:4])
	size = int(binary.LittleEndian.Uint32(sz[:]))
	return
}

const maxDelta5Capacity = 1<<16 - 1

func pointerOf(word uintptr) *byte {
	return (*byte)(unsafe.Pointer(word &^ uintptr(tagMask)))
}

func sliceFor(p *byte, n int) []byte {
	return unsafe.Slice(p, n)
}

// externalPayloadSlice returns a view of totalSize bytes of character
// payload starting just past an external buffer's headerSize-byte header.
func externalPayloadSlice(p *byte, headerSize, totalSize int) []byte {
	payload := unsafe.Add(unsafe.Pointer(p), headerSize)
	return unsafe.Slice((*byte)(payload), totalSize)
}

func headerSizeFor(t tag) int {
	switch t {
	case tagDelta5:
		return header5Size
	case tagDelta9:
		return header9Size
	case tagLadder:
		return headerLadderSize
	default:
		debug.Assert(false, "shortstring: headerSizeFor(internal)")
		return 0
	}
}

func externalSize(word uintptr) int {
	t := tag(word) & tagMask
	p := pointerOf(word)
	switch t {
	case tagDelta5:
		_, size := readHeader5(unsafe.Slice(p, header5Size))
		return size
	case tagDelta9:
		_, size := readHeader9(unsafe.Slice(p, header9Size))
		return size
	case tagLadder:
		_, size := readHeaderLadder(unsafe.Slice(p, headerLadderSize))
		return size
	default:
		debug.Assert(false, "shortstring: externalSize on an internal word")
		return 0
	}
}

func externalCapacity(word uintptr) int {
	t := tag(word) & tagMask
	p := pointerOf(word)
	switch t {
	case tagDelta5:
		capacity, _ := readHeader5(unsafe.Slice(p, header5Size))
		return capacity
	case tagDelta9:
		capacity, _ := readHeader9(unsafe.Slice(p, header9Size))
		return capacity
	case tagLadder:
		rung, _ := readHeaderLadder(unsafe.Slice(p, headerLadderSize))
		return rungCapacity(rung)
	default:
		debug.Assert(false, "shortstring: externalCapacity on an internal word")
		return 0
	}
}

func externalBytes(word uintptr) []byte {
	t := tag(word) & tagMask
	p := pointerOf(word)
	n := externalSize(word)
	if n == 0 {
		return nil
	}
	payload := unsafe.Add(unsafe.Pointer(p), headerSizeFor(t))
	return unsafe.Slice((*byte)(payload), n)
}

// allocateExternal allocates a fresh buffer for the given tag/header/size
// combination, writes the header, copies data in, and returns the tagged
// word addressing it. terminated reserves one extra byte past size for a
// NUL the String variant maintains.
func allocateExternal(a Allocator, t tag, headerSize, capacity int, data []byte, terminated bool) uintptr {
	n := len(data)
	bufBytes := headerSize + capacity
	if terminated {
		bufBytes++
	}
	p := a.Alloc(uint64(bufBytes))
	buf := unsafe.Slice((*byte)(p), bufBytes)

	switch t {
	case tagDelta5:
		writeHeader5(buf, capacity, n)
	case tagDelta9:
		writeHeader9(buf, capacity, n)
	case tagLadder:
		writeHeaderLadder(buf, rungIndexFor(capacity), n)
	}
	copy(buf[headerSize:], data)
	if terminated {
		buf[headerSize+n] = 0
	}

	debug.Assert(uintptr(p)&uintptr(tagMask) == 0, "shortstring: allocator returned a misaligned pointer")
	return uintptr(p) | uintptr(t)
}

// maxLadderSize is the largest size the ladder header's 24-bit size field
// can record.
const maxLadderSize = 1<<24 - 1

// newExternal builds the default (ladder-quantised) external
// representation for data. Data longer than maxLadderSize gets an exact
// delta9 representation instead, whose 32-bit size field can record it.
func newExternal(a Allocator, data []byte, terminated bool) uintptr {
	if len(data) > maxLadderSize {
		return newExternalExact(a, data, len(data), terminated)
	}
	rung := rungIndexFor(len(data))
	capacity := rungCapacity(rung)
	return allocateExternal(a, tagLadder, headerLadderSize, capacity, data, terminated)
}

// newExternalExact builds a delta5/delta9 external representation whose
// capacity is exactly minCapacity, bypassing rung quantisation — used by
// Reserve when the caller asked for a precise capacity.
func newExternalExact(a Allocator, data []byte, minCapacity int, terminated bool) uintptr {
	if minCapacity <= maxDelta5Capacity {
		return allocateExternal(a, tagDelta5, header5Size, minCapacity, data, terminated)
	}
	return allocateExternal(a, tagDelta9, header9Size, minCapacity, data, terminated)
}
