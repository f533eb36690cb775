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

import "sort"

// Allocation is a non-empty set of Names known to alias the same underlying
// buffer. Inserting any textual Name implicitly inserts all of its
// dot-prefixes too, so taint on an aggregate also taints every field
// reachable by a later dotted-suffix reference.
type Allocation struct {
	members map[Name]struct{}
}

// NewAllocation builds a singleton allocation class containing var and all
// of its dot-prefixes.
func NewAllocation(var_ Name) *Allocation {
	a := &Allocation{members: make(map[Name]struct{})}
	a.Insert(var_)
	return a
}

// Insert adds var and all of its dot-prefixes to the class.
func (a *Allocation) Insert(var_ Name) {
	for _, prefix := range var_.Prefixes() {
		a.members[prefix] = struct{}{}
	}
}

// Contains reports whether var is a member of this class.
func (a *Allocation) Contains(var_ Name) bool {
	_, ok := a.members[var_]
	return ok
}

// Remove deletes var (and only var, not its prefixes or suffixes) from the
// class.
func (a *Allocation) Remove(var_ Name) {
	delete(a.members, var_)
}

// Len reports the number of names in the class.
func (a *Allocation) Len() int { return len(a.members) }

// Names returns the class's members in a stable, sorted order.
func (a *Allocation) Names() []Name {
	names := make([]Name, 0, len(a.members))
	for n := range a.members {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return names[i].String() < names[j].String() })
	return names
}

// Clone returns a deep copy of the class.
func (a *Allocation) Clone() *Allocation {
	members := make(map[Name]struct{}, len(a.members))
	for n := range a.members {
		members[n] = struct{}{}
	}
	return &Allocation{members: members}
}

// MergeFrom adds every member of other into a.
func (a *Allocation) MergeFrom(other *Allocation) {
	for n := range other.members {
		a.members[n] = struct{}{}
	}
}

func (a *Allocation) String() string {
	s := "{"
	for i, n := range a.Names() {
		if i > 0 {
			s += ", "
		}
		s += n.String()
	}
	return s + "}"
}
