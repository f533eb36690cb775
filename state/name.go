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

// Package state implements the per-block and per-function memory-state map
// lattices: Allocation equivalence classes, BlockState, and AbstractDomain.
package state

import (
	"fmt"
	"strconv"
	"strings"
)

// Name is an opaque SSA-value identifier: either a non-negative integer or
// a dotted textual name such as "a.really.long.identifier". Textual names
// carry a prefix convention where every dot-delimited prefix denotes a
// sub-field of the same aggregate.
type Name struct {
	id       int64
	symbol   string
	symbolic bool
}

// IntName builds a Name from a non-negative integer SSA slot.
func IntName(id int64) Name {
	return Name{id: id}
}

// SymbolName builds a Name from a dotted textual identifier.
func SymbolName(symbol string) Name {
	return Name{symbol: symbol, symbolic: true}
}

// IsSymbolic reports whether n is a textual (dot-path) name as opposed to a
// bare numeric SSA slot. Numeric names are always leaves: prefix expansion
// never applies to them (spec open question (c)).
func (n Name) IsSymbolic() bool { return n.symbolic }

func (n Name) String() string {
	if n.symbolic {
		return n.symbol
	}
	return strconv.FormatInt(n.id, 10)
}

// Prefixes returns n itself along with every dot-delimited prefix of n, in
// order from shortest to longest, e.g. Prefixes("a.b.c") = [a, a.b, a.b.c].
// Non-symbolic names have no prefixes other than themselves.
func (n Name) Prefixes() []Name {
	if !n.symbolic {
		return []Name{n}
	}
	parts := strings.Split(n.symbol, ".")
	prefixes := make([]Name, 0, len(parts))
	var b strings.Builder
	for i, part := range parts {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(part)
		prefixes = append(prefixes, SymbolName(b.String()))
	}
	return prefixes
}

// GoString supports readable test failure output and %#v formatting.
func (n Name) GoString() string {
	return fmt.Sprintf("Name(%s)", n.String())
}
