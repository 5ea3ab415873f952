package shortstring

import "github.com/clapdb/memory/pkg/xunsafe"

// terminatedReserve is the number of payload bytes [ShortString] gives up
// to guarantee a NUL always sits just past its live bytes, matching
// [github.com/clapdb/memory/pkg/cowstring]'s small-string terminator
// contract. [ByteString] passes 0 and reclaims that byte as payload.
const terminatedReserve = 1

// internalPayloadBytes is how many of the word's 8 bytes hold characters:
// byte 0 is reserved for the tag (low 2 bits) and the size (remaining 6
// bits), leaving the other 7 bytes (bytes 1..7) for payload.
const internalPayloadBytes = 7

// internalCapacity is how many characters fit inline once reserve bytes
// (0 or [terminatedReserve]) are set aside.
func internalCapacity(reserve int) int {
	return internalPayloadBytes - reserve
}

// internalSize decodes the size nibble from byte 0 of word.
func internalSize(word uintptr) int {
	return int(word>>2) & 0x3F
}

// internalBytes returns a view of the characters stored inline in *word,
// sized to the live length. The slice aliases the word itself.
func internalBytes[W ~uintptr](word *W) []byte {
	n := internalSize(uintptr(*word))
	if n == 0 {
		return nil
	}
	b := xunsafe.Cast[[8]byte](word)
	return b[1 : 1+n]
}

// newInternalWord packs data into a fresh internal-tagged word. data must
// fit within internalCapacity(reserve) for the caller's reserve.
func newInternalWord(data []byte) uintptr {
	var buf [8]byte
	buf[0] = byte(tagInternal) | byte(len(data))<<2
	copy(buf[1:], data)
	return *xunsafe.Cast[uintptr](&buf)
}

func newInternal(data []byte) ShortString {
	return ShortString(newInternalWord(data))
}

// rawWordBytes exposes word's 8 raw bytes, including the tag/size byte at
// index 0, for callers that need to read or patch payload bytes directly
// (append growth within the same rung, for instance).
func rawWordBytes[W ~uintptr](word *W) *[8]byte {
	return xunsafe.Cast[[8]byte](word)
}
