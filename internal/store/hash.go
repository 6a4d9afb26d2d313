// Package store implements the sharded, open-addressed key-value table:
// hashing, quadratic probing, the entry pool, prime-number resize schedule,
// and per-value compression. Each Shard is owned by exactly one goroutine
// (the reactor's dispatch loop for that shard) and performs no internal
// locking of its own — see the package-level concurrency note on Shard.
//
// © 2025 cachecore authors. MIT License.
package store

// hashSeed and hashMul are fixed so that the same key always routes to the
// same shard across process restarts; they are not meant to resist
// adversarial input, only to mix bytes well enough for uniform bucket
// distribution.
const (
	hashSeed = uint64(525201411107845655)
	hashMul  = uint64(0x5bd1e9955bd1e995)
)

// Hash computes the 64-bit routing/probing hash for key. It walks key byte
// by byte, which keeps the function allocation-free and safe to call on a
// sub-slice view without copying.
func Hash(key []byte) uint64 {
	h := hashSeed
	for _, b := range key {
		h ^= uint64(b)
		h *= hashMul
		h ^= h >> 47
	}
	return h
}
