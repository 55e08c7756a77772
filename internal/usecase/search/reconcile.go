package search

import "github.com/kailas-cloud/mapsearch/internal/domain/search/result"

// Reconcile projects records onto the rank order of set. Ids without a record
// are dropped and reported; records the index did not rank are ignored.
// Relative order of the surviving ids is exactly their index order.
func Reconcile[T any](set result.Set, records []T, id func(T) int64) (out []T, dropped int) {
	// slot[i] is the index in records of the record ranked i, -1 when missing.
	slot := make([]int, set.Len())
	for i := range slot {
		slot[i] = -1
	}
	for i := range records {
		if pos, ok := set.PositionOf(id(records[i])); ok && slot[pos] < 0 {
			slot[pos] = i
		}
	}

	out = make([]T, 0, len(slot))
	for _, ri := range slot {
		if ri < 0 {
			dropped++
			continue
		}
		out = append(out, records[ri])
	}
	return out, dropped
}
