package store

import (
	"bytes"
	"fmt"
	"testing"
)

func TestShardSetGetDel(t *testing.T) {
	s := NewShard(true, nil)

	key := []byte("hello")
	val := []byte("world")
	h := Hash(key)

	if _, ok := s.Get(key, h); ok {
		t.Fatalf("expected miss before Set")
	}

	if err := s.Set(key, val, h); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, ok := s.Get(key, h)
	if !ok {
		t.Fatalf("expected hit after Set")
	}
	if !bytes.Equal(got, val) {
		t.Fatalf("Get returned %q, want %q", got, val)
	}

	if err := s.Del(key, h); err != nil {
		t.Fatalf("Del: %v", err)
	}
	if _, ok := s.Get(key, h); ok {
		t.Fatalf("expected miss after Del")
	}
	if err := s.Del(key, h); err != ErrNotFound {
		t.Fatalf("Del on absent key: got %v, want ErrNotFound", err)
	}
}

func TestShardOverwrite(t *testing.T) {
	s := NewShard(false, nil)
	key := []byte("k")
	h := Hash(key)

	if err := s.Set(key, []byte("v1"), h); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(key, []byte("v2"), h); err != nil {
		t.Fatal(err)
	}
	got, ok := s.Get(key, h)
	if !ok || string(got) != "v2" {
		t.Fatalf("got %q, ok=%v, want v2", got, ok)
	}
	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1 (overwrite must not grow entry count)", s.Len())
	}
}

func TestShardCompressionRoundTrip(t *testing.T) {
	s := NewShard(true, nil)
	key := []byte("big")
	val := bytes.Repeat([]byte("abcdefgh"), 100) // well above minSizeToCompress
	h := Hash(key)

	if err := s.Set(key, val, h); err != nil {
		t.Fatal(err)
	}
	got, ok := s.Get(key, h)
	if !ok {
		t.Fatal("expected hit")
	}
	if !bytes.Equal(got, val) {
		t.Fatalf("round trip mismatch: got %d bytes, want %d", len(got), len(val))
	}
}

func TestShardManyKeysTriggersResize(t *testing.T) {
	s := NewShard(false, nil)
	const n = 20000
	for i := 0; i < n; i++ {
		key := []byte(fmt.Sprintf("key-%d", i))
		if err := s.Set(key, []byte("v"), Hash(key)); err != nil {
			t.Fatalf("Set(%d): %v", i, err)
		}
	}
	if s.StatsSnapshot().Resizes == 0 {
		t.Fatalf("expected at least one resize after inserting %d keys", n)
	}
	for i := 0; i < n; i++ {
		key := []byte(fmt.Sprintf("key-%d", i))
		if _, ok := s.Get(key, Hash(key)); !ok {
			t.Fatalf("missing key %d after resize", i)
		}
	}
}

func TestShardDeleteHalfThenLookup(t *testing.T) {
	s := NewShard(false, nil)
	const n = 5000
	for i := 0; i < n; i++ {
		key := []byte(fmt.Sprintf("k%d", i))
		if err := s.Set(key, []byte("v"), Hash(key)); err != nil {
			t.Fatalf("Set(%d): %v", i, err)
		}
	}
	for i := 0; i < n; i += 2 {
		key := []byte(fmt.Sprintf("k%d", i))
		if err := s.Del(key, Hash(key)); err != nil {
			t.Fatalf("Del(%d): %v", i, err)
		}
	}
	for i := 0; i < n; i++ {
		key := []byte(fmt.Sprintf("k%d", i))
		_, ok := s.Get(key, Hash(key))
		wantOK := i%2 != 0
		if ok != wantOK {
			t.Fatalf("key %d: got ok=%v, want %v", i, ok, wantOK)
		}
	}
}

func TestPrimeScheduleMonotonic(t *testing.T) {
	ps := newPrimeSchedule()
	last := ps.Current()
	for i := 0; i < 20; i++ {
		next := ps.Next()
		if next <= last {
			t.Fatalf("schedule not monotonic: %d <= %d", next, last)
		}
		if !isPrimeTrial(next) {
			t.Fatalf("%d is not prime", next)
		}
		last = next
	}
}

func TestHashDeterministic(t *testing.T) {
	a := Hash([]byte("the-same-key"))
	b := Hash([]byte("the-same-key"))
	if a != b {
		t.Fatalf("Hash is not deterministic: %d != %d", a, b)
	}
	if Hash([]byte("x")) == Hash([]byte("y")) {
		t.Fatalf("trivial collision on distinct single-byte keys (can happen, but not for these two)")
	}
}

func TestTableRouting(t *testing.T) {
	tbl := NewTable(8, false, nil)
	if tbl.NumShards() != 8 {
		t.Fatalf("NumShards = %d, want 8", tbl.NumShards())
	}
	key := []byte("route-me")
	h := Hash(key)
	shard := tbl.ShardFor(h)
	if err := shard.Set(key, []byte("v"), h); err != nil {
		t.Fatal(err)
	}
	if tbl.Len() != 1 {
		t.Fatalf("Table.Len() = %d, want 1", tbl.Len())
	}
}
