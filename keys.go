package shardfuse

import "github.com/zeebo/xxh3"

// The engine assumes keys are uniformly distributed 64-bit values: the top
// bits route to shards, so skew there concentrates load on few shards and
// erodes the false-positive guarantees. Application keys that are not
// already uniform hashes should be run through KeyOf / KeyOfString first.

// KeyOf derives the engine key for arbitrary application bytes.
func KeyOf(data []byte) uint64 {
	return xxh3.Hash(data)
}

// KeyOfString derives the engine key for a string without copying it.
func KeyOfString(s string) uint64 {
	return xxh3.HashString(s)
}
