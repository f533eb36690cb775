// (c) Copyright gosec's authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package state

import "github.com/taintcheck/ffianalyzer/lattice"

// BlockState is a partial map from Allocation to MemoryState. A Name not
// appearing in any Allocation is implicitly Untainted.
//
// Invariants, maintained by every exported mutator:
//
//	(I1) the Allocations present are pairwise disjoint;
//	(I2) no Allocation maps to Untainted (such entries are deleted);
//	(I3) prefix closure holds for every textual Name in every Allocation.
type BlockState struct {
	states map[*Allocation]lattice.MemoryState
	index  map[Name]*Allocation
}

// NewBlockState returns the bottom element: every Name is Untainted.
func NewBlockState() *BlockState {
	return &BlockState{
		states: make(map[*Allocation]lattice.MemoryState),
		index:  make(map[Name]*Allocation),
	}
}

func (b *BlockState) removeClass(alloc *Allocation) {
	delete(b.states, alloc)
	for _, n := range alloc.Names() {
		delete(b.index, n)
	}
}

func (b *BlockState) installClass(alloc *Allocation, s lattice.MemoryState) {
	for _, n := range alloc.Names() {
		b.index[n] = alloc
	}
	b.states[alloc] = s
}

// GetAllocation returns the class containing name, or nil if name is
// untracked (implicitly Untainted).
func (b *BlockState) GetAllocation(name Name) *Allocation {
	return b.index[name]
}

// GetMemoryState returns the state of name's class, or Untainted if name is
// untracked.
func (b *BlockState) GetMemoryState(name Name) lattice.MemoryState {
	if alloc, ok := b.index[name]; ok {
		return b.states[alloc]
	}
	return lattice.Untainted
}

// IsTainted reports whether GetMemoryState(name) >= Tainted.
func (b *BlockState) IsTainted(name Name) bool {
	return lattice.LessEqual(lattice.Tainted, b.GetMemoryState(name))
}

// SetTainted installs state for name's class, creating the class if needed.
// If state is Untainted, name's whole class is deleted from the map (per
// invariant I2 — an Untainted-valued entry is never recorded). Otherwise the
// class is extended with every dot-prefix of name (when name is textual)
// before the new state is installed; this expansion happens even when
// updating an already-tracked name.
func (b *BlockState) SetTainted(name Name, s lattice.MemoryState) {
	alloc, tracked := b.index[name]
	if s == lattice.Untainted {
		if tracked {
			b.removeClass(alloc)
		}
		return
	}
	if !tracked {
		alloc = NewAllocation(name)
	} else {
		alloc.Insert(name)
	}
	b.installClass(alloc, s)
}

// PropagateTaint implements the aliasing transfer: if from is Untainted, to
// is removed from its current class (it is no longer known to alias
// anything tainted); otherwise from's and to's classes are merged and the
// merged class is installed at from's state.
func (b *BlockState) PropagateTaint(from, to Name) {
	fromState := b.GetMemoryState(from)
	if fromState == lattice.Untainted {
		if toAlloc, ok := b.index[to]; ok {
			toAlloc.Remove(to)
			delete(b.index, to)
			if toAlloc.Len() == 0 {
				delete(b.states, toAlloc)
			}
		}
		return
	}

	fromAlloc, ok := b.index[from]
	if !ok {
		// fromState != Untainted implies from must be tracked.
		fromAlloc = NewAllocation(from)
	}

	if toAlloc, ok := b.index[to]; ok {
		if toAlloc != fromAlloc {
			members := toAlloc.Names()
			fromAlloc.MergeFrom(toAlloc)
			delete(b.states, toAlloc)
			for _, n := range members {
				b.index[n] = fromAlloc
			}
		}
	} else {
		fromAlloc.Insert(to)
		b.index[to] = fromAlloc
	}
	b.installClass(fromAlloc, fromState)
}

// Union computes the least upper bound of b and other. Name equivalence is
// resolved with a disjoint-set union-find over every Name appearing in
// either operand's classes, so classes that only become connected through a
// Name shared between an allocation on each side are merged transitively
// (e.g. {x,z} from b and {z,w} from other join into one {x,z,w} class).
func (b *BlockState) Union(other *BlockState) *BlockState {
	parent := make(map[Name]Name)
	var find func(Name) Name
	find = func(n Name) Name {
		p, ok := parent[n]
		if !ok {
			parent[n] = n
			return n
		}
		if p == n {
			return n
		}
		root := find(p)
		parent[n] = root
		return root
	}
	union := func(x, y Name) {
		rx, ry := find(x), find(y)
		if rx != ry {
			parent[rx] = ry
		}
	}
	registerClass := func(alloc *Allocation) {
		names := alloc.Names()
		for _, n := range names {
			find(n)
		}
		for i := 1; i < len(names); i++ {
			union(names[0], names[i])
		}
	}
	for alloc := range b.states {
		registerClass(alloc)
	}
	for alloc := range other.states {
		registerClass(alloc)
	}

	groups := make(map[Name][]Name)
	for n := range parent {
		r := find(n)
		groups[r] = append(groups[r], n)
	}

	result := NewBlockState()
	for _, names := range groups {
		s := lattice.Untainted
		var newAlloc *Allocation
		for _, n := range names {
			if newAlloc == nil {
				newAlloc = NewAllocation(n)
			} else {
				newAlloc.Insert(n)
			}
			if alloc, ok := b.index[n]; ok {
				s = lattice.Union(s, b.states[alloc])
			}
			if alloc, ok := other.index[n]; ok {
				s = lattice.Union(s, other.states[alloc])
			}
		}
		result.installClass(newAlloc, s)
	}
	return result
}

// LessEqual reports whether b <= other: every Name tracked by b is also
// tracked by other (or Untainted by default), at a state no higher than in
// other.
func (b *BlockState) LessEqual(other *BlockState) bool {
	for alloc, s := range b.states {
		for _, n := range alloc.Names() {
			if !lattice.LessEqual(s, other.GetMemoryState(n)) {
				return false
			}
		}
	}
	return true
}

// Equal reports whether b and other track exactly the same Name->state
// mapping.
func (b *BlockState) Equal(other *BlockState) bool {
	return b.LessEqual(other) && other.LessEqual(b)
}

// Clone returns a deep copy; mutating the clone never affects b.
func (b *BlockState) Clone() *BlockState {
	result := NewBlockState()
	cloneOf := make(map[*Allocation]*Allocation, len(b.states))
	for alloc, s := range b.states {
		c := alloc.Clone()
		cloneOf[alloc] = c
		result.states[c] = s
	}
	for n, alloc := range b.index {
		result.index[n] = cloneOf[alloc]
	}
	return result
}

// Allocations returns every tracked class paired with its state, in no
// particular order. Intended for diagnostics and tests.
func (b *BlockState) Allocations() map[*Allocation]lattice.MemoryState {
	return b.states
}
