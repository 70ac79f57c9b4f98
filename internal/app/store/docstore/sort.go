package docstore

import (
	"sort"
	"time"
)

// SortDocuments orders docs by opts.OrderBy (ascending unless Desc), then by
// id ascending. A missing field compares as the smallest value.
func SortDocuments(docs []Document, opts ListOptions) {
	sort.SliceStable(docs, func(i, j int) bool {
		if opts.OrderBy != "" {
			c := compareValues(docs[i].Data[opts.OrderBy], docs[j].Data[opts.OrderBy])
			if opts.Desc {
				c = -c
			}
			if c != 0 {
				return c < 0
			}
		}
		return docs[i].ID() < docs[j].ID()
	})
}

func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	switch av := a.(type) {
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Compare(bv)
		}
	case string:
		if bv, ok := b.(string); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		}
	case int:
		if bv, ok := b.(int); ok {
			return av - bv
		}
	case int64:
		if bv, ok := b.(int64); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		}
	}
	return 0
}
