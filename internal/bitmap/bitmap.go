// Package bitmap is a bitset of small non-negative integer IDs, used for
// fast membership checks such as "is this namespace selected?".
package bitmap

import (
	"fmt"
	"math/bits"
	"strconv"
	"strings"
)

// MaxParsedID bounds the IDs Parse accepts, so a stray large number cannot
// make the set allocate gigabytes.
const MaxParsedID = 1<<20 - 1

// Bitmap is a set of uint64 IDs backed by 64-bit words. The zero value and
// a nil *Bitmap are empty sets.
type Bitmap struct {
	data []uint64
}

// New returns an empty bitmap with room for IDs in [0, maxID] before it has
// to grow.
func New(maxID uint64) *Bitmap {
	return &Bitmap{data: make([]uint64, maxID/64+1)}
}

// Of returns a bitmap holding ids.
func Of(ids ...uint64) *Bitmap {
	b := &Bitmap{}
	for _, id := range ids {
		b.Add(id)
	}
	return b
}

// Parse reads a comma separated list of IDs such as "0,6,14". Blank items
// are ignored; an empty list gives an empty set.
func Parse(list string) (*Bitmap, error) {
	b := &Bitmap{}
	for _, item := range strings.Split(list, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		id, err := strconv.ParseUint(item, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bitmap: bad id %q", item)
		}
		if id > MaxParsedID {
			return nil, fmt.Errorf("bitmap: id %d out of range (max %d)", id, MaxParsedID)
		}
		b.Add(id)
	}
	return b, nil
}

// Add puts id in the set, growing the backing words as needed.
func (b *Bitmap) Add(id uint64) {
	word := id / 64
	if word >= uint64(len(b.data)) {
		grown := make([]uint64, word+1)
		copy(grown, b.data)
		b.data = grown
	}
	b.data[word] |= 1 << (id % 64)
}

// Has reports whether id is in the set.
func (b *Bitmap) Has(id uint64) bool {
	if b == nil {
		return false
	}
	word := id / 64
	if word >= uint64(len(b.data)) {
		return false
	}
	return b.data[word]&(1<<(id%64)) != 0
}

// Len is the number of IDs in the set.
func (b *Bitmap) Len() int {
	if b == nil {
		return 0
	}
	n := 0
	for _, w := range b.data {
		n += bits.OnesCount64(w)
	}
	return n
}

// IDs returns the members in ascending order.
func (b *Bitmap) IDs() []uint64 {
	if b == nil {
		return nil
	}
	var out []uint64
	for i, w := range b.data {
		for w != 0 {
			tz := bits.TrailingZeros64(w)
			out = append(out, uint64(i)*64+uint64(tz))
			w &= w - 1
		}
	}
	return out
}

func (b *Bitmap) String() string {
	ids := b.IDs()
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatUint(id, 10)
	}
	return strings.Join(parts, ",")
}
