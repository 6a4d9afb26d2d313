package store

// entry is a single stored key/value pair. value holds the raw bytes when
// compressed is false, or a gzip-compressed stream when true.
type entry struct {
	key        []byte
	value      []byte
	compressed bool
}

func (e *entry) clear() {
	e.key = nil
	e.value = nil
	e.compressed = false
}

// entryPool is an append-only vector of entries addressed by index. Index 0
// is a reserved sentinel meaning "empty slot" and is never allocated.
// Deallocate clears the entry in place but does not add its index to a free
// list — original_source's MemoryPool does the same and relies on an
// optional, disabled-by-default compaction pass to reclaim dead slots.
//
// Not safe for concurrent use; callers (Shard) serialize access.
type entryPool struct {
	entries       []entry
	freeIdx       uint32 // index of the next never-yet-used slot
	deallocations uint64

	// compactThreshold, when non-zero, triggers compact() once
	// deallocations crosses it. Zero (the default) disables compaction,
	// matching original_source's defragment() being compiled out.
	compactThreshold uint64
}

func newEntryPool(initialCap uint64) *entryPool {
	if initialCap < 2 {
		initialCap = 2
	}
	return &entryPool{
		entries: make([]entry, initialCap),
		freeIdx: 1,
	}
}

// allocate reserves the next free slot, grows the pool by 1.5x when it runs
// out of room, and returns the slot's index along with a pointer to it.
func (p *entryPool) allocate() (uint32, *entry) {
	if int(p.freeIdx) >= len(p.entries) {
		p.expand()
	}
	idx := p.freeIdx
	p.freeIdx++
	return idx, &p.entries[idx]
}

func (p *entryPool) expand() {
	newCap := uint64(float64(len(p.entries)) * 1.5)
	if newCap <= uint64(len(p.entries)) {
		newCap = uint64(len(p.entries)) + 1
	}
	grown := make([]entry, newCap)
	copy(grown, p.entries)
	p.entries = grown
}

// get returns a pointer to the entry at idx. idx == 0 must never be passed;
// callers treat 0 as "no entry" at the bucket-slot layer.
func (p *entryPool) get(idx uint32) *entry {
	return &p.entries[idx]
}

// deallocate clears the entry in place. The slot's index is never handed out
// again; compact does not reclaim it.
func (p *entryPool) deallocate(idx uint32) {
	p.entries[idx].clear()
	p.deallocations++
	if p.compactThreshold > 0 && p.deallocations >= p.compactThreshold {
		p.compact()
	}
}

// compact is a no-op placeholder: original_source's defragment() pass is
// disabled by default and this port keeps that default. A future caller
// that sets compactThreshold > 0 would need a real implementation here;
// none does today.
func (p *entryPool) compact() {
	p.deallocations = 0
}

func (p *entryPool) len() int { return len(p.entries) }
