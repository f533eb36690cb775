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

// Package lattice defines the five-valued memory-state lattice that the
// rest of the analyzer builds on: Untainted < Tainted < {Borrowed,
// Forgotten} < Unknown, with Borrowed and Forgotten incomparable.
package lattice

import "fmt"

// MemoryState is one point in the five-valued lattice.
//
//	            Unknown
//	           /       \
//	      Borrowed   Forgotten
//	           \       /
//	            Tainted
//	              |
//	           Untainted
type MemoryState int

const (
	Untainted MemoryState = iota
	Tainted
	Borrowed
	Forgotten
	Unknown
)

func (m MemoryState) String() string {
	switch m {
	case Untainted:
		return "Untainted"
	case Tainted:
		return "Tainted"
	case Borrowed:
		return "Borrowed"
	case Forgotten:
		return "Forgotten"
	case Unknown:
		return "Unknown"
	default:
		return fmt.Sprintf("MemoryState(%d)", int(m))
	}
}

// Order is the result of comparing two MemoryStates.
type Order int

const (
	Less Order = iota
	Equal
	Greater
	Incomparable
)

// Compare implements the partial order: only Borrowed and Forgotten are
// incomparable with each other; everything else is totally ordered along
// the diagram above.
func Compare(a, b MemoryState) Order {
	if a == b {
		return Equal
	}
	if a == Untainted || b == Unknown {
		return Less
	}
	if b == Untainted || a == Unknown {
		return Greater
	}
	// Neither a nor b is Untainted or Unknown, and a != b, so {a, b} is
	// either {Tainted, Borrowed}, {Tainted, Forgotten}, or
	// {Borrowed, Forgotten}.
	if a == Tainted {
		return Less
	}
	if b == Tainted {
		return Greater
	}
	// a, b in {Borrowed, Forgotten}, a != b.
	return Incomparable
}

// LessEqual reports whether a <= b in the lattice.
func LessEqual(a, b MemoryState) bool {
	ord := Compare(a, b)
	return ord == Less || ord == Equal
}

// Union computes the least upper bound of a and b.
func Union(a, b MemoryState) MemoryState {
	switch Compare(a, b) {
	case Equal:
		return a
	case Less:
		return b
	case Greater:
		return a
	default:
		// Only Borrowed and Forgotten are incomparable, and their LUB is
		// Unknown by construction of the lattice.
		return Unknown
	}
}
