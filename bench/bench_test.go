// Package bench holds micro-benchmarks for the shard store, in the style of
// Voskan-arena-cache/bench/bench_test.go: a dedicated package, a fixed
// pseudo-random dataset, b.ReportAllocs(), and a custom reported metric.
//
// © 2025 cachecore authors. MIT License.
package bench

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/lattice-kv/cachecore/internal/store"
)

const datasetSize = 50000

var dataset = buildDataset()

type kv struct {
	key, value []byte
}

func buildDataset() []kv {
	rng := rand.New(rand.NewSource(42))
	out := make([]kv, datasetSize)
	for i := range out {
		out[i] = kv{
			key:   []byte(fmt.Sprintf("bench-key-%d-%d", i, rng.Intn(1<<20))),
			value: []byte(fmt.Sprintf("value-%d", rng.Intn(1<<20))),
		}
	}
	return out
}

func BenchmarkSet(b *testing.B) {
	b.ReportAllocs()
	s := store.NewShard(false, nil)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e := dataset[i%len(dataset)]
		_ = s.Set(e.key, e.value, store.Hash(e.key))
	}
}

func BenchmarkGet(b *testing.B) {
	s := store.NewShard(false, nil)
	for _, e := range dataset {
		_ = s.Set(e.key, e.value, store.Hash(e.key))
	}

	b.ReportAllocs()
	b.ResetTimer()
	var misses int
	for i := 0; i < b.N; i++ {
		e := dataset[i%len(dataset)]
		if _, ok := s.Get(e.key, store.Hash(e.key)); !ok {
			misses++
		}
	}
	b.ReportMetric(float64(misses)/float64(b.N)*100, "miss-%")
}

func BenchmarkGetParallel(b *testing.B) {
	s := store.NewShard(false, nil)
	for _, e := range dataset {
		_ = s.Set(e.key, e.value, store.Hash(e.key))
	}

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			e := dataset[i%len(dataset)]
			s.Get(e.key, store.Hash(e.key))
			i++
		}
	})
}

func BenchmarkSetCompressed(b *testing.B) {
	b.ReportAllocs()
	s := store.NewShard(true, nil)
	bigValue := make([]byte, 4096)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e := dataset[i%len(dataset)]
		_ = s.Set(e.key, bigValue, store.Hash(e.key))
	}
}
