package ingest

import "time"

// Item is one discovered video file waiting to be batched. Items are unique
// by path while pending.
type Item struct {
	Path         string
	DiscoveredAt time.Time
}

// Batch is an ordered snapshot of items taken atomically from the pending
// queue. It is never mutated after creation.
type Batch struct {
	ID    string
	Items []Item
}

// Paths returns the file paths in batch order.
func (b Batch) Paths() []string {
	paths := make([]string, len(b.Items))
	for i, item := range b.Items {
		paths[i] = item.Path
	}
	return paths
}
