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

package ir

import (
	"sort"
	"sync"

	"github.com/taintcheck/ffianalyzer/state"
)

// CFGCache stores the predecessor/successor maps derived from a Function's
// blocks, computed once on first lookup and reused for every later lookup
// on the same cache. Each FuncAnalysis builds its own CFGCache, so the maps
// are not shared between analyses of the same function.
type CFGCache struct {
	fn *Function

	once  sync.Once
	succs map[state.BlockID][]state.BlockID
	preds map[state.BlockID][]state.BlockID
	order []state.BlockID
}

// NewCFGCache builds a cache object for a function's control-flow graph.
func NewCFGCache(fn *Function) *CFGCache {
	return &CFGCache{fn: fn}
}

func (c *CFGCache) build() {
	c.succs = make(map[state.BlockID][]state.BlockID)
	c.preds = make(map[state.BlockID][]state.BlockID)
	if c.fn == nil {
		return
	}
	for _, b := range c.fn.Blocks {
		c.order = append(c.order, b.ID)
		if b.Term == nil {
			continue
		}
		for _, s := range b.Term.Successors() {
			c.succs[b.ID] = append(c.succs[b.ID], s)
			c.preds[s] = append(c.preds[s], b.ID)
		}
	}
}

// Successors returns id's successor blocks, in terminator order.
func (c *CFGCache) Successors(id state.BlockID) []state.BlockID {
	if c == nil {
		return nil
	}
	c.once.Do(c.build)
	return c.succs[id]
}

// Predecessors returns id's predecessor blocks, in no particular order.
func (c *CFGCache) Predecessors(id state.BlockID) []state.BlockID {
	if c == nil {
		return nil
	}
	c.once.Do(c.build)
	return c.preds[id]
}

// ReversePostorder returns the function's blocks ordered so that every
// block appears after at least one predecessor has already appeared
// (loop headers are the exception). FuncAnalysis does not call it: its
// worklist starts in the function's block order.
func (c *CFGCache) ReversePostorder() []state.BlockID {
	if c == nil {
		return nil
	}
	c.once.Do(c.build)

	visited := make(map[state.BlockID]bool, len(c.order))
	var post []state.BlockID
	var visit func(state.BlockID)
	visit = func(id state.BlockID) {
		if visited[id] {
			return
		}
		visited[id] = true
		succs := append([]state.BlockID(nil), c.succs[id]...)
		sort.Slice(succs, func(i, j int) bool { return succs[i] < succs[j] })
		for _, s := range succs {
			visit(s)
		}
		post = append(post, id)
	}
	if len(c.order) > 0 {
		visit(c.order[0])
	}
	for _, id := range c.order {
		visit(id)
	}

	rpo := make([]state.BlockID, len(post))
	for i, id := range post {
		rpo[len(post)-1-i] = id
	}
	return rpo
}
