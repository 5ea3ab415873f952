// Package strhash provides the seeded hash function shared by the
// cowstring and shortstring families, so that equal byte contents hash
// equally regardless of which storage class they happen to occupy.
package strhash

import "github.com/cespare/xxhash/v2"

// charSize is sizeof(char) for the byte-oriented string families this
// package serves; it is the seed multiplier called for in the hash scheme
// these strings share with their original C++ counterpart.
const charSize = 1

// String hashes s the same way [Bytes] would hash its contents, so that a
// cowstring/shortstring and a built-in string with identical contents always
// hash equally.
func String(s string) uint64 {
	return hash(s, len(s))
}

// Bytes hashes b, seeded with len(b)*sizeof(char) exactly as the original
// arena string implementation seeds its hasher with the string's byte size
// before folding in its contents.
func Bytes(b []byte) uint64 {
	return hash(string(b), len(b))
}

func hash(s string, size int) uint64 {
	d := xxhash.NewWithSeed(uint64(size * charSize))
	_, _ = d.WriteString(s)
	return d.Sum64()
}
