package shortstring

// Reserve grows s in place so that at least minCapacity characters fit
// without another reallocation. Unlike ordinary growth (which quantises to
// the rung ladder, see [newExternal]), Reserve allocates the exact
// capacity requested via the delta5/delta9 header — a caller calling
// Reserve already knows the size it is building toward and would rather
// not pay for rung rounding. The old buffer (if any) is abandoned for its
// allocator to reclaim on its own terms, exactly as
// [github.com/clapdb/memory/pkg/cowstring]'s storage abandons buffers it
// cannot individually free.
func (s *ShortString) Reserve(a Allocator, minCapacity int) {
	*s = ShortString(reserve(a, uintptr(*s), minCapacity, true))
}

// Reserve is [ShortString.Reserve] for the no-terminator variant.
func (s *ByteString) Reserve(a Allocator, minCapacity int) {
	*s = ByteString(reserve(a, uintptr(*s), minCapacity, false))
}

func currentSize(word uintptr) int {
	if tag(word)&tagMask == tagInternal {
		return internalSize(word)
	}
	return externalSize(word)
}

func reserve(a Allocator, word uintptr, minCapacity int, terminated bool) uintptr {
	checkLength("Reserve", minCapacity)
	reserveBudget := terminatedReserve
	if !terminated {
		reserveBudget = 0
	}

	t := tag(word) & tagMask
	if t == tagInternal {
		if minCapacity <= internalCapacity(reserveBudget) {
			return word
		}
		size := internalSize(word)
		var data []byte
		if size > 0 {
			b := internalBytesOfWord(word)
			data = append([]byte(nil), b...)
		}
		return newExternalExact(a, data, minCapacity, terminated)
	}

	if minCapacity <= externalCapacity(word) {
		return word
	}
	data := externalBytes(word)
	return newExternalExact(a, data, minCapacity, terminated)
}

// internalBytesOfWord is [internalBytes] taking the word by value, used by
// reserve where there is no addressable ShortString/ByteString to point at.
func internalBytesOfWord(word uintptr) []byte {
	w := word
	return internalBytes(&w)
}

// Append appends data's bytes in place, moving to a larger ladder-rung
// external buffer as needed.
func (s *ShortString) Append(a Allocator, data []byte) {
	*s = ShortString(appendBytes(a, uintptr(*s), data, true))
}

// Append is [ShortString.Append] for the no-terminator variant.
func (s *ByteString) Append(a Allocator, data []byte) {
	*s = ByteString(appendBytes(a, uintptr(*s), data, false))
}

func appendBytes(a Allocator, word uintptr, data []byte, terminated bool) uintptr {
	if len(data) == 0 {
		return word
	}
	checkLength("Append", currentSize(word)+len(data))

	reserveBudget := terminatedReserve
	if !terminated {
		reserveBudget = 0
	}

	t := tag(word) & tagMask
	if t == tagInternal {
		size := internalSize(word)
		newSize := size + len(data)
		if newSize <= internalCapacity(reserveBudget) {
			buf := internalBytesOfWordFull(word)
			copy(buf[size:newSize], data)
			return newInternalWord(buf[:newSize])
		}
		combined := make([]byte, 0, newSize)
		combined = append(combined, internalBytesOfWord(word)...)
		combined = append(combined, data...)
		return newExternal(a, combined, terminated)
	}

	size := externalSize(word)
	newSize := size + len(data)
	if newSize <= externalCapacity(word) {
		p := pointerOf(word)
		headerSize := headerSizeFor(t)
		switch t {
		case tagDelta5:
			writeHeader5(sliceFor(p, header5Size), externalCapacity(word), newSize)
		case tagDelta9:
			writeHeader9(sliceFor(p, header9Size), externalCapacity(word), newSize)
		case tagLadder:
			rung, _ := readHeaderLadder(sliceFor(p, headerLadderSize))
			writeHeaderLadder(sliceFor(p, headerLadderSize), rung, newSize)
		}
		payloadCap := externalCapacity(word)
		if terminated {
			payloadCap++
		}
		payload := externalPayloadSlice(p, headerSize, payloadCap)
		copy(payload[size:newSize], data)
		if terminated {
			payload[newSize] = 0
		}
		return word
	}

	combined := make([]byte, 0, newSize)
	combined = append(combined, externalBytes(word)...)
	combined = append(combined, data...)
	return newExternal(a, combined, terminated)
}

// internalBytesOfWordFull returns all internalPayloadBytes bytes of word's
// inline storage (not just the live prefix), so callers can write new
// characters past the old size without a fresh allocation.
func internalBytesOfWordFull(word uintptr) [internalPayloadBytes]byte {
	var out [internalPayloadBytes]byte
	w := word
	b := rawWordBytes(&w)
	copy(out[:], b[1:])
	return out
}
