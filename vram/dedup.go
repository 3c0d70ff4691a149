package vram

import "hash"

// Deduplicator remembers the fingerprint of every tile it has been given and
// reports whether a tile is new. Two tiles with the same fingerprint are
// considered the same tile.
type Deduplicator struct {
	h    hash.Hash
	seen map[string]int
}

// NewDeduplicator returns an empty Deduplicator using h for fingerprints
func NewDeduplicator(h hash.Hash) *Deduplicator {
	return &Deduplicator{
		h:    h,
		seen: make(map[string]int),
	}
}

// Consider returns the index of the tile in discovery order and whether
// this is the first time it has been seen.
func (d *Deduplicator) Consider(t Tile) (int, bool) {
	d.h.Reset()
	d.h.Write(t[:])
	key := string(d.h.Sum(nil))

	if i, ok := d.seen[key]; ok {
		return i, false
	}
	i := len(d.seen)
	d.seen[key] = i
	return i, true
}

// Len returns the number of unique tiles seen
func (d *Deduplicator) Len() int {
	return len(d.seen)
}
