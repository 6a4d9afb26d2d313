package dispatch

// ShardSnapshot mirrors store.Stats for one shard, plus its index, so
// consumers (the inspector CLI reading /debug/cache/snapshot as JSON, the
// Prometheus sink behind /metrics) don't need to know shard count ahead of
// time.
type ShardSnapshot struct {
	Index     int    `json:"index"`
	Entries   uint64 `json:"entries"`
	TableSize uint64 `json:"table_size"`
	Resizes   uint64 `json:"resizes"`
	Sets      uint64 `json:"sets"`
	Gets      uint64 `json:"gets"`
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Deletes   uint64 `json:"deletes"`
}

// Snapshot is the full point-in-time metrics payload served at
// /debug/cache/snapshot and consumed by cmd/cache-inspect.
type Snapshot struct {
	NumRequests        uint64          `json:"num_requests"`
	NumErrors          uint64          `json:"num_errors"`
	NumActiveConns     uint64          `json:"num_active_connections"`
	Shards             []ShardSnapshot `json:"shards"`
}

// BuildSnapshot walks every shard in order and assembles a Snapshot.
// activeConns is supplied by the reactor, which is the only component that
// knows the live connection count.
func (d *Dispatcher) BuildSnapshot(activeConns uint64) Snapshot {
	n := d.table.NumShards()
	shards := make([]ShardSnapshot, n)
	for i := 0; i < n; i++ {
		st := d.table.ShardAt(i).StatsSnapshot()
		shards[i] = ShardSnapshot{
			Index:     i,
			Entries:   st.Entries,
			TableSize: st.TableSize,
			Resizes:   st.Resizes,
			Sets:      st.Sets,
			Gets:      st.Gets,
			Hits:      st.Hits,
			Misses:    st.Misses,
			Deletes:   st.Deletes,
		}
	}
	return Snapshot{
		NumRequests:    d.NumRequests(),
		NumErrors:      d.NumErrors(),
		NumActiveConns: activeConns,
		Shards:         shards,
	}
}
