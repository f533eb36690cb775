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

// Package summary memoizes the per-function result of the interprocedural
// analysis: given a function symbol and the taint state of each argument
// at a call site, a Summary records the state after the call and the
// taint of the return value, so a function called many times with the
// same argument states is only analyzed once.
package summary

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/taintcheck/ffianalyzer/lattice"
	"github.com/taintcheck/ffianalyzer/state"
)

// ArgState is the state of one caller-side argument at a call site, or nil
// if the argument wasn't a traceable local (a constant, for instance) and
// therefore contributes no information to the callee's initial state.
type ArgState = *lattice.MemoryState

// Key identifies a memoized Summary: a function symbol plus the state
// vector of its arguments. The vector is folded into a fixed-size digest
// with blake2b so Key is comparable and usable as a map key regardless of
// how many arguments the call site has.
type Key struct {
	symbol string
	digest [32]byte
}

// NewKey builds a Key for symbol called with the given per-argument
// states.
func NewKey(symbol string, args []ArgState) Key {
	h, _ := blake2b.New256(nil)
	var buf [9]byte
	for _, a := range args {
		if a == nil {
			buf[0] = 0
			binary.LittleEndian.PutUint64(buf[1:], 0)
		} else {
			buf[0] = 1
			binary.LittleEndian.PutUint64(buf[1:], uint64(*a))
		}
		h.Write(buf[:])
	}
	var digest [32]byte
	copy(digest[:], h.Sum(nil))
	return Key{symbol: symbol, digest: digest}
}

func (k Key) String() string {
	return fmt.Sprintf("%s#%x", k.symbol, k.digest[:8])
}

// Summary is the memoized effect of calling a function: the BlockState
// holding every parameter's state after the call returns, and the taint of
// the return value.
type Summary struct {
	AfterCall *state.BlockState
	RetState  lattice.MemoryState
}

// Cache stores computed Summaries, keyed by Key.
type Cache struct {
	entries map[Key]Summary
}

// NewCache returns an empty Cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[Key]Summary)}
}

// Get returns the cached Summary for key, if present.
func (c *Cache) Get(key Key) (Summary, bool) {
	s, ok := c.entries[key]
	return s, ok
}

// Insert records s as the Summary for key, overwriting any prior entry.
func (c *Cache) Insert(key Key, s Summary) {
	c.entries[key] = s
}
