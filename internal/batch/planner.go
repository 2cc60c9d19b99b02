// Package batch groups normalized identifiers into bounded submission
// batches while tracking the originating row of every identifier.
package batch

import (
	"github.com/h3abionet/agvd-cli/internal/variant"
)

// Item pairs a normalized identifier with the table row it came from.
type Item struct {
	Row int
	ID  variant.Identifier
}

// Batch is a bounded group of same-kind identifiers submitted as one
// remote query. IDs and Rows are parallel slices: Rows[i] is the table
// row that produced IDs[i].
type Batch struct {
	Kind variant.Kind
	IDs  []string
	Rows []int
}

// Len returns the number of identifiers in the batch.
func (b Batch) Len() int { return len(b.IDs) }

// Plan groups items by identifier kind, preserving first-seen order
// within each kind, and slices each group into consecutive batches of
// at most size elements. size must be positive; callers validate it
// before planning.
func Plan(items []Item, size int) map[variant.Kind][]Batch {
	grouped := make(map[variant.Kind][]Item)
	for _, it := range items {
		grouped[it.ID.Kind] = append(grouped[it.ID.Kind], it)
	}

	plan := make(map[variant.Kind][]Batch, len(grouped))
	for kind, group := range grouped {
		for start := 0; start < len(group); start += size {
			end := min(start+size, len(group))
			b := Batch{
				Kind: kind,
				IDs:  make([]string, 0, end-start),
				Rows: make([]int, 0, end-start),
			}
			for _, it := range group[start:end] {
				b.IDs = append(b.IDs, it.ID.Value)
				b.Rows = append(b.Rows, it.Row)
			}
			plan[kind] = append(plan[kind], b)
		}
	}

	return plan
}
