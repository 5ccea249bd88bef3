package aggregate

import (
	"sort"
)

// Key identifies one summary edge.
type Key struct {
	Source int64
	Type   string
	Target int64
}

// Less orders keys by source, type, then target.
func (k Key) Less(o Key) bool {
	if k.Source != o.Source {
		return k.Source < o.Source
	}
	if k.Type != o.Type {
		return k.Type < o.Type
	}
	return k.Target < o.Target
}

// Buffer accumulates counts per key and replays them in key order.
type Buffer interface {
	Increment(k Key, delta int64) error
	// Each visits keys in ascending order.
	Each(fn func(k Key, count int64) error) error
	Len() int
	Close() error
}

// MemoryBuffer keeps counts on the heap. Suitable for small graphs.
type MemoryBuffer struct {
	counts map[Key]int64
}

func NewMemoryBuffer() *MemoryBuffer {
	return &MemoryBuffer{counts: map[Key]int64{}}
}

func (b *MemoryBuffer) Increment(k Key, delta int64) error {
	b.counts[k] += delta
	return nil
}

func (b *MemoryBuffer) Each(fn func(Key, int64) error) error {
	keys := make([]Key, 0, len(b.counts))
	for k := range b.counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	for _, k := range keys {
		if err := fn(k, b.counts[k]); err != nil {
			return err
		}
	}
	return nil
}

func (b *MemoryBuffer) Len() int {
	return len(b.counts)
}

func (b *MemoryBuffer) Close() error {
	b.counts = nil
	return nil
}

var _ Buffer = (*MemoryBuffer)(nil)
