// Package result holds the ordered id list returned by the index.
package result

// Set is the ranked id list of one index query. The index is the ranking
// authority, so the order of ids is the order records are returned in.
type Set struct {
	ids      []int64
	position map[int64]int
	total    int
}

// New creates a result set from ids in rank order. Repeated ids keep their
// first position. total is the number of matching documents reported by the
// index, which may exceed len(ids).
func New(ids []int64, total int) Set {
	s := Set{
		ids:      make([]int64, 0, len(ids)),
		position: make(map[int64]int, len(ids)),
		total:    total,
	}
	for _, id := range ids {
		if _, dup := s.position[id]; dup {
			continue
		}
		s.position[id] = len(s.ids)
		s.ids = append(s.ids, id)
	}
	return s
}

// IDs returns a copy of the ids in rank order.
func (s Set) IDs() []int64 {
	out := make([]int64, len(s.ids))
	copy(out, s.ids)
	return out
}

// PositionOf returns the zero-based rank of id.
func (s Set) PositionOf(id int64) (int, bool) {
	p, ok := s.position[id]
	return p, ok
}

// Len returns the number of distinct ids.
func (s Set) Len() int { return len(s.ids) }

// Total returns the number of matches reported by the index.
func (s Set) Total() int { return s.total }

// IsEmpty reports whether the index returned no ids.
func (s Set) IsEmpty() bool { return len(s.ids) == 0 }
