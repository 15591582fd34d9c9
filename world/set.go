package world

import (
	"slices"

	"github.com/samber/lo"
)

// Set ID集合
type Set map[int32]struct{}

func NewSet(ids ...int32) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s Set) Add(ids ...int32) {
	for _, id := range ids {
		s[id] = struct{}{}
	}
}

func (s Set) Has(id int32) bool {
	_, ok := s[id]
	return ok
}

func (s Set) Union(o Set) Set {
	for id := range o {
		s[id] = struct{}{}
	}
	return s
}

func (s Set) Clone() Set {
	c := make(Set, len(s))
	return c.Union(s)
}

// Sorted 升序，遍历顺序需要确定时使用
func (s Set) Sorted() []int32 {
	ids := lo.Keys(s)
	slices.Sort(ids)
	return ids
}
