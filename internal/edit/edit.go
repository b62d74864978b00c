// Package edit implements a queue of byte-range edits applied to a source
// text in one pass. Offsets always refer to the original text, so callers
// can record edits while walking a tree built from that text without
// tracking how earlier edits shift later positions.
package edit

import (
	"errors"
	"fmt"
	"sort"
)

// ErrOverlap is returned by Bytes when two recorded edits touch the same
// original bytes.
var ErrOverlap = errors.New("overlapping edits")

// A Buffer is a queue of edits to apply to a given text.
type Buffer struct {
	old []byte
	q   edits
}

type edit struct {
	start int
	end   int
	new   string
}

type edits []edit

func (x edits) Len() int      { return len(x) }
func (x edits) Swap(i, j int) { x[i], x[j] = x[j], x[i] }
func (x edits) Less(i, j int) bool {
	if x[i].start != x[j].start {
		return x[i].start < x[j].start
	}
	return x[i].end < x[j].end
}

// NewBuffer returns a new buffer to accumulate changes to an initial data slice.
// The returned buffer maintains a reference to the data, so the caller must ensure
// the data is not modified until after the Buffer is done being used.
func NewBuffer(data []byte) *Buffer {
	return &Buffer{old: data}
}

// Insert queues new to be inserted at pos. Insertions at the same position
// keep their queue order.
func (b *Buffer) Insert(pos int, new string) {
	b.Replace(pos, pos, new)
}

// Delete queues removal of old[start:end].
func (b *Buffer) Delete(start, end int) {
	b.Replace(start, end, "")
}

// Replace queues replacement of old[start:end] with new.
func (b *Buffer) Replace(start, end int, new string) {
	b.q = append(b.q, edit{start, end, new})
}

// Len reports the number of queued edits.
func (b *Buffer) Len() int {
	return len(b.q)
}

// Bytes returns a new byte slice containing the original data
// with the queued edits applied. With no edits queued it returns the
// original slice unchanged.
func (b *Buffer) Bytes() ([]byte, error) {
	if len(b.q) == 0 {
		return b.old, nil
	}

	// Sort edits by starting position and then by ending position.
	// Breaking ties by ending position allows insertions at point x
	// to be applied before a replacement of the text at [x, y).
	sort.Stable(b.q)

	var out []byte
	offset := 0
	for i, e := range b.q {
		if e.start < 0 || e.end < e.start || e.end > len(b.old) {
			return nil, fmt.Errorf("edit %d [%d,%d) out of range for %d bytes", i, e.start, e.end, len(b.old))
		}
		if e.start < offset {
			prev := b.q[i-1]
			return nil, fmt.Errorf("%w: [%d,%d) and [%d,%d)", ErrOverlap, prev.start, prev.end, e.start, e.end)
		}
		out = append(out, b.old[offset:e.start]...)
		offset = e.end
		out = append(out, e.new...)
	}
	out = append(out, b.old[offset:]...)
	return out, nil
}

// String returns a string containing the original data with the queued
// edits applied, or the error text if the edits cannot be applied.
func (b *Buffer) String() string {
	out, err := b.Bytes()
	if err != nil {
		return err.Error()
	}
	return string(out)
}
