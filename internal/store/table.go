package store

import "go.uber.org/zap"

// Table owns the full set of shards that make up the cache's key space.
type Table struct {
	shards []*Shard
}

// NewTable builds a Table with numShards independently-resizable shards.
func NewTable(numShards int, compression bool, logger *zap.Logger) *Table {
	if numShards < 1 {
		numShards = 1
	}
	t := &Table{shards: make([]*Shard, numShards)}
	for i := range t.shards {
		t.shards[i] = NewShard(compression, logger)
	}
	return t
}

// NumShards reports the shard count.
func (t *Table) NumShards() int { return len(t.shards) }

// ShardFor routes a precomputed hash to its owning shard.
func (t *Table) ShardFor(hash uint64) *Shard {
	return t.shards[hash%uint64(len(t.shards))]
}

// ShardAt returns the shard at index i, used by the metrics exporter to walk
// every shard's Stats in a fixed, stable order.
func (t *Table) ShardAt(i int) *Shard { return t.shards[i] }

// Len sums live entries across every shard.
func (t *Table) Len() int {
	total := 0
	for _, s := range t.shards {
		total += s.Len()
	}
	return total
}
