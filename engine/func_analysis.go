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

package engine

import (
	"github.com/taintcheck/ffianalyzer/ir"
	"github.com/taintcheck/ffianalyzer/lattice"
	"github.com/taintcheck/ffianalyzer/state"
)

// FuncAnalysis runs the worklist fixpoint over a single function's basic
// blocks. It may recursively spawn another FuncAnalysis to compute a
// callee's Summary, bounded by depth.
type FuncAnalysis struct {
	Context   *Context
	Function  *ir.Function
	InitState *state.BlockState
	Domain    *state.AbstractDomain
	RetState  lattice.MemoryState
	Depth     int

	cfg *ir.CFGCache
}

// NewFuncAnalysis starts an analysis of symbol with the bottom initial
// state, at call-stack depth 1 — used for top-level entry points.
func NewFuncAnalysis(ctx *Context, symbol string) (*FuncAnalysis, bool) {
	fn, ok := ctx.Function(symbol)
	if !ok {
		return nil, false
	}
	return &FuncAnalysis{
		Context:   ctx,
		Function:  fn,
		InitState: state.NewBlockState(),
		Domain:    state.NewAbstractDomain(),
		RetState:  lattice.Untainted,
		Depth:     1,
		cfg:       ir.NewCFGCache(fn),
	}, true
}

// NewFuncAnalysisWithInit starts an analysis of symbol seeded with init as
// the entry block's precondition, for interprocedural summary computation.
// Returns false if depth has reached the configured MaxDepth or symbol is
// unknown.
func NewFuncAnalysisWithInit(ctx *Context, symbol string, init *state.BlockState, depth int) (*FuncAnalysis, bool) {
	if depth >= ctx.MaxDepth() {
		return nil, false
	}
	fn, ok := ctx.Function(symbol)
	if !ok {
		return nil, false
	}
	return &FuncAnalysis{
		Context:   ctx,
		Function:  fn,
		InitState: init,
		Domain:    state.NewAbstractDomain(),
		RetState:  lattice.Untainted,
		Depth:     depth,
		cfg:       ir.NewCFGCache(fn),
	}, true
}

// IterateToFixpoint runs the worklist loop until every reachable block's
// postcondition stops growing, or the configured MaxIteration is reached.
// This is the chaotic-iteration algorithm of spec §4.5 verbatim: a block's
// stored postcondition is only overwritten (and its successors requeued)
// when the freshly computed postcondition is not already <= what's
// stored, which is what guarantees termination within the lattice's
// finite per-name height.
func (fa *FuncAnalysis) IterateToFixpoint() {
	if len(fa.Function.Blocks) == 0 {
		return
	}
	entry := fa.Function.Blocks[0].ID
	worklist := make([]state.BlockID, 0, len(fa.Function.Blocks))
	for _, bb := range fa.Function.Blocks {
		worklist = append(worklist, bb.ID)
	}

	iteration := 0
	for len(worklist) > 0 && iteration < fa.Context.MaxIteration() {
		id := worklist[0]
		worklist = worklist[1:]
		iteration++

		bb := fa.Function.Block(id)
		if bb == nil {
			continue
		}

		post := fa.analyzeBasicBlock(bb, entry)
		old, hadOld := fa.Domain.Get(id)
		if hadOld && post.LessEqual(old) {
			continue
		}
		fa.Domain.Insert(id, post)
		worklist = append(worklist, fa.cfg.Successors(id)...)
	}
}

// analyzeBasicBlock computes bb's precondition (the initial state for the
// function's entry block, or the join of every predecessor's recorded
// postcondition otherwise) and runs the BlockVisitor over it.
func (fa *FuncAnalysis) analyzeBasicBlock(bb *ir.BasicBlock, entry state.BlockID) *state.BlockState {
	var pre *state.BlockState
	if bb.ID == entry {
		pre = fa.InitState
	} else {
		pre = fa.stateFromPredecessors(bb.ID)
	}
	return newBlockVisitor(fa, pre, bb).analyze()
}

func (fa *FuncAnalysis) stateFromPredecessors(id state.BlockID) *state.BlockState {
	result := state.NewBlockState()
	for _, pred := range fa.cfg.Predecessors(id) {
		if predState, ok := fa.Domain.Get(pred); ok {
			result = result.Union(predState)
		}
	}
	return result
}

// StateAfterCall returns the union of every block state recorded at a
// block whose terminator is Ret — the state visible to the caller once
// this function returns, regardless of which return path was taken.
func (fa *FuncAnalysis) StateAfterCall() *state.BlockState {
	result := state.NewBlockState()
	for _, bb := range fa.Function.Blocks {
		if _, isRet := bb.Term.(ir.Ret); !isRet {
			continue
		}
		if s, ok := fa.Domain.Get(bb.ID); ok {
			result = result.Union(s)
		}
	}
	return result
}
