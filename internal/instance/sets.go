package instance

import (
	"fmt"
	"iter"
	"maps"
	"slices"

	"github.com/bits-and-blooms/bitset"

	"github.com/mwien/CIfly/internal/ruletable"
)

// Sets holds one bit vector per set declared in the rule table. Declared
// sets missing from the input are empty.
type Sets struct {
	bits []*bitset.BitSet
}

// NewSets builds the membership vectors of sets, a map from set name to
// vertex ids.
func NewSets(sets map[string][]int, rt *ruletable.Ruletable) (*Sets, error) {
	s := &Sets{bits: make([]*bitset.BitSet, rt.NumSets())}
	for i := range s.bits {
		s.bits[i] = bitset.New(0)
	}
	for _, name := range slices.Sorted(maps.Keys(sets)) {
		id, ok := rt.SetID(name)
		if !ok {
			return nil, &Error{Kind: "set", Name: name, Err: ErrUnknownSet}
		}
		elems := sets[name]
		size := 0
		for _, x := range elems {
			if x < 0 {
				return nil, &Error{Kind: "set", Name: name, Err: fmt.Errorf("%w: %d", ErrNegativeVertex, x)}
			}
			size = max(size, x+1)
		}
		b := bitset.New(uint(size))
		for _, x := range elems {
			if b.Test(uint(x)) {
				return nil, &Error{Kind: "set", Name: name, Err: fmt.Errorf("%w: %d", ErrDuplicateElement, x)}
			}
			b.Set(uint(x))
		}
		s.bits[id] = b
	}
	return s, nil
}

// Contains implements expression.Membership.
func (s *Sets) Contains(set, vertex int) bool {
	return vertex >= 0 && s.bits[set].Test(uint(vertex))
}

// Members yields the elements of set in ascending order.
func (s *Sets) Members(set int) iter.Seq[int] {
	b := s.bits[set]
	return func(yield func(int) bool) {
		for i, ok := b.NextSet(0); ok; i, ok = b.NextSet(i + 1) {
			if !yield(int(i)) {
				return
			}
		}
	}
}

// Size is the number of elements of set.
func (s *Sets) Size(set int) int { return int(s.bits[set].Count()) }

// MaxSize is one more than the largest element of any set.
func (s *Sets) MaxSize() int {
	m := 0
	for _, b := range s.bits {
		m = max(m, int(b.Len()))
	}
	return m
}
