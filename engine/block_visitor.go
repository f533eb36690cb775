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
	"strings"

	"github.com/taintcheck/ffianalyzer/diagnosis"
	"github.com/taintcheck/ffianalyzer/ir"
	"github.com/taintcheck/ffianalyzer/knownnames"
	"github.com/taintcheck/ffianalyzer/lattice"
	"github.com/taintcheck/ffianalyzer/state"
	"github.com/taintcheck/ffianalyzer/summary"
)

// heapOwningTypePrefixes seeds the alloca heuristic (spec §4.4): an alloca
// of one of these container types is assumed to own a heap allocation from
// the moment it is constructed, before any explicit allocator call is seen.
var heapOwningTypePrefixes = []string{
	"alloc::vec::Vec",
	"alloc::string::String",
	"std::ffi::c_str::CString",
	"Vec<",
	"String",
	"CString",
}

func isHeapOwningType(t ir.Type) bool {
	named, ok := t.(ir.NamedStructType)
	if !ok {
		return false
	}
	for _, prefix := range heapOwningTypePrefixes {
		if strings.HasPrefix(named.Name, prefix) {
			return true
		}
	}
	return false
}

// blockVisitor walks a single basic block's instructions and terminator in
// order, mutating a cloned BlockState into the block's postcondition.
type blockVisitor struct {
	fa      *FuncAnalysis
	current *state.BlockState
	bb      *ir.BasicBlock
}

func newBlockVisitor(fa *FuncAnalysis, pre *state.BlockState, bb *ir.BasicBlock) *blockVisitor {
	return &blockVisitor{fa: fa, current: pre.Clone(), bb: bb}
}

// analyze runs every instruction then the terminator, returning the
// resulting BlockState.
func (v *blockVisitor) analyze() *state.BlockState {
	for _, inst := range v.bb.Instructions {
		v.visitInstruction(inst)
	}
	v.visitTerminator(v.bb.Term)
	return v.current
}

// operandState reads an operand's current taint: a local's class state, or
// Untainted for any constant (spec's data model has no notion of a tainted
// compile-time constant).
func (v *blockVisitor) operandState(op ir.Operand) lattice.MemoryState {
	if op.IsLocal {
		return v.current.GetMemoryState(op.Local)
	}
	return lattice.Untainted
}

func (v *blockVisitor) escalate(name state.Name, atLeast lattice.MemoryState) {
	cur := v.current.GetMemoryState(name)
	if lattice.Compare(cur, atLeast) == lattice.Less {
		v.current.SetTainted(name, atLeast)
	}
}

func (v *blockVisitor) visitInstruction(inst ir.Instruction) {
	switch t := inst.(type) {
	case ir.Alloca:
		if isHeapOwningType(t.AllocatedType) {
			v.current.SetTainted(t.Dest, lattice.Tainted)
		}
	case ir.Load:
		v.simplePropagate(t.Address, t.Dest)
	case ir.Store:
		if t.Address.IsLocal {
			v.simplePropagate(t.Value, t.Address.Local)
		}
	case ir.BitCast:
		v.simplePropagate(t.Source, t.Dest)
	case ir.PtrToInt:
		v.simplePropagate(t.Source, t.Dest)
	case ir.IntToPtr:
		v.simplePropagate(t.Source, t.Dest)
	case ir.AddrSpaceCast:
		v.simplePropagate(t.Source, t.Dest)
	case ir.Trunc:
		v.simplePropagate(t.Source, t.Dest)
	case ir.ZExt:
		v.simplePropagate(t.Source, t.Dest)
	case ir.SExt:
		v.simplePropagate(t.Source, t.Dest)
	case ir.GetElementPtr:
		v.simplePropagate(t.Base, t.Dest)
	case ir.ExtractValue:
		v.simplePropagate(t.Aggregate, t.Dest)
	case ir.ExtractElement:
		v.simplePropagate(t.Vector, t.Dest)
	case ir.InsertValue:
		v.current.SetTainted(t.Dest, v.operandState(t.Element))
	case ir.InsertElement:
		v.current.SetTainted(t.Dest, v.operandState(t.Element))
	case ir.ShuffleVector:
		v.current.SetTainted(t.Dest, lattice.Union(v.operandState(t.Lhs), v.operandState(t.Rhs)))
	case ir.Phi:
		v.visitPhi(t)
	case ir.Arithmetic:
		// Deliberately a no-op: spec §4.4 and Open Question (a) — taint
		// flowing through integer arithmetic has an overwhelming
		// false-positive cost for this analysis.
	case ir.Call:
		v.visitCall(t)
	case ir.Other:
		// fence, freeze, landingpad, ...: no taint effect.
	}
}

// simplePropagate is propagate_taint(op, dest) for an operand that may be
// a constant, matching the "simply propagate the operand's state to the
// destination" instruction group of spec §4.4.
func (v *blockVisitor) simplePropagate(op ir.Operand, dest state.Name) {
	if op.IsLocal {
		v.current.PropagateTaint(op.Local, dest)
		return
	}
	v.current.SetTainted(dest, lattice.Untainted)
}

// visitPhi takes the state of the first tainted incoming operand in
// order, or Untainted if none are tainted.
func (v *blockVisitor) visitPhi(p ir.Phi) {
	for _, in := range p.IncomingVals {
		if v.operandState(in) != lattice.Untainted {
			v.simplePropagate(in, p.Dest)
			return
		}
	}
	v.current.SetTainted(p.Dest, lattice.Untainted)
}

func (v *blockVisitor) visitTerminator(term ir.Terminator) {
	switch t := term.(type) {
	case ir.Ret:
		if t.Value != nil {
			v.fa.RetState = lattice.Union(v.fa.RetState, v.operandState(*t.Value))
		}
	case ir.Invoke:
		v.visitCall(t.AsCall())
	default:
		// Br, CondBr, Switch, IndirectBr, Unreachable carry no taint effect.
	}
}

// visitCall is the shared dispatch for both Call instructions and Invoke
// terminators (spec §4.4: "Calls and invokes share the same logic").
func (v *blockVisitor) visitCall(call ir.Call) {
	if call.IsIndirect() {
		v.visitIndirectCall(call)
		return
	}

	callee, calleeKnown := v.fa.Context.Function(call.Direct)
	demangled := call.Direct
	if calleeKnown {
		demangled = callee.Demangled
	}

	switch cls := v.fa.Context.Classify(demangled); cls.Kind {
	case knownnames.AllocSource:
		if call.Dest != nil {
			v.current.SetTainted(*call.Dest, lattice.Tainted)
		}
	case knownnames.FreeSink:
		v.visitFreeSink(call)
	case knownnames.Ignore:
		// no effect
	case knownnames.Intrinsic:
		v.applyIntrinsic(cls.Effect, call)
	case knownnames.FFISink:
		v.visitFFISink(call, demangled, callee, calleeKnown)
	default: // knownnames.Normal
		v.visitNormalCall(call, demangled, callee, calleeKnown)
	}
}

// visitIndirectCall treats a function-pointer call conservatively: any
// SSA-valued argument carrying taint produces a per-argument diagnosis
// keyed off its own state (SPEC_FULL.md's refinement of spec §4.4's single
// sentence into the original implementation's exact per-state table).
func (v *blockVisitor) visitIndirectCall(call ir.Call) {
	for _, arg := range call.Args {
		if !arg.IsLocal {
			continue
		}
		bugs, severity, ok := indirectBugFor(v.current.GetMemoryState(arg.Local))
		if !ok {
			continue
		}
		v.fa.Context.AddDiagnosis(diagnosis.New(false, bugs, "", severity, v.fa.Function.Demangled))
	}
}

func indirectBugFor(s lattice.MemoryState) ([]diagnosis.BugKind, diagnosis.Severity, bool) {
	switch s {
	case lattice.Tainted:
		return []diagnosis.BugKind{diagnosis.UseAfterFree}, diagnosis.Low, true
	case lattice.Borrowed:
		return []diagnosis.BugKind{diagnosis.UseAfterFree}, diagnosis.Low, true
	case lattice.Forgotten:
		return []diagnosis.BugKind{diagnosis.MemoryLeakage}, diagnosis.Medium, true
	case lattice.Unknown:
		return []diagnosis.BugKind{diagnosis.UseAfterFree, diagnosis.MemoryLeakage}, diagnosis.Medium, true
	default:
		return nil, 0, false
	}
}

// visitFreeSink emits a single combined High diagnosis as soon as any
// argument is found tainted, short-circuiting the search; the block state
// is otherwise left unmodified (spec §4.4 — the call is terminal for this
// path's purposes).
func (v *blockVisitor) visitFreeSink(call ir.Call) {
	for _, arg := range call.Args {
		if arg.IsLocal && v.current.IsTainted(arg.Local) {
			v.fa.Context.AddDiagnosis(diagnosis.New(
				true,
				[]diagnosis.BugKind{diagnosis.UseAfterFree, diagnosis.DoubleFree},
				"taint source meets taint sink",
				diagnosis.High,
				v.fa.Function.Demangled,
			))
			return
		}
	}
}

// visitFFISink handles a call declared as crossing the FFI boundary. When
// the callee's bitcode is available it is analyzed like a Normal call and
// then, per argument left Unknown or Forgotten, a Medium MemoryLeakage
// diagnosis is raised (one per argument, not combined — SPEC_FULL.md's
// recovered refinement of block_visitor.rs's FFISink arm). When the
// bitcode is absent, diagnoses are issued from each argument's pre-call
// state per the §4.4 table.
func (v *blockVisitor) visitFFISink(call ir.Call, demangled string, callee *ir.Function, calleeKnown bool) {
	if calleeKnown && callee != nil && len(callee.Blocks) > 0 {
		v.visitNormalCall(call, demangled, callee, calleeKnown)
		for _, arg := range call.Args {
			if !arg.IsLocal {
				continue
			}
			switch v.current.GetMemoryState(arg.Local) {
			case lattice.Unknown, lattice.Forgotten:
				v.fa.Context.AddDiagnosis(diagnosis.New(true, []diagnosis.BugKind{diagnosis.MemoryLeakage}, "", diagnosis.Medium, v.fa.Function.Demangled))
			}
		}
		return
	}

	for _, arg := range call.Args {
		if !arg.IsLocal {
			continue
		}
		switch v.current.GetMemoryState(arg.Local) {
		case lattice.Tainted:
			v.fa.Context.AddDiagnosis(diagnosis.New(false, []diagnosis.BugKind{diagnosis.MemoryLeakage}, "", diagnosis.Low, v.fa.Function.Demangled))
		case lattice.Borrowed:
			v.fa.Context.AddDiagnosis(diagnosis.New(false, []diagnosis.BugKind{diagnosis.UseAfterFree}, "", diagnosis.Low, v.fa.Function.Demangled))
		case lattice.Forgotten:
			v.fa.Context.AddDiagnosis(diagnosis.New(false, []diagnosis.BugKind{diagnosis.MemoryLeakage}, "", diagnosis.Medium, v.fa.Function.Demangled))
		case lattice.Unknown:
			v.fa.Context.AddDiagnosis(diagnosis.New(false, []diagnosis.BugKind{diagnosis.UseAfterFree, diagnosis.MemoryLeakage}, "", diagnosis.Medium, v.fa.Function.Demangled))
		}
	}
}

// visitNormalCall implements the memoized interprocedural call handling of
// spec §4.4: build the argument-state vector, consult the SummaryCache,
// compute (and cache) a nested fixpoint on a miss, then apply the summary
// to the destination and every SSA-valued argument.
func (v *blockVisitor) visitNormalCall(call ir.Call, demangled string, callee *ir.Function, calleeKnown bool) {
	if !calleeKnown || callee == nil || len(callee.Blocks) == 0 {
		// No bitcode to analyze interprocedurally; stop refining rather
		// than assert (spec §4.5 graceful degradation).
		return
	}

	argStates := make([]summary.ArgState, len(call.Args))
	for i, arg := range call.Args {
		if !arg.IsLocal {
			continue
		}
		s := v.current.GetMemoryState(arg.Local)
		argStates[i] = &s
	}
	key := summary.NewKey(demangled, argStates)

	result, hit := v.fa.Context.GetSummary(key)
	if !hit {
		init := state.NewBlockState()
		for i, argSt := range argStates {
			if argSt == nil || i >= len(callee.Params) {
				continue
			}
			init.SetTainted(callee.Params[i].Name, *argSt)
		}
		nested, ok := NewFuncAnalysisWithInit(v.fa.Context, call.Direct, init, v.fa.Depth+1)
		if !ok {
			// Depth cap reached: stop refining, sound over-approximation.
			return
		}
		nested.IterateToFixpoint()
		result = summary.Summary{AfterCall: nested.StateAfterCall(), RetState: nested.RetState}
		v.fa.Context.InsertSummary(key, result)
	}

	if call.Dest != nil {
		v.current.SetTainted(*call.Dest, result.RetState)
	}
	for i, arg := range call.Args {
		if !arg.IsLocal || i >= len(callee.Params) {
			continue
		}
		v.current.SetTainted(arg.Local, result.AfterCall.GetMemoryState(callee.Params[i].Name))
	}
}

// applyIntrinsic dispatches the fixed effect table of spec §4.3. Argument
// access is bounds-checked throughout: Unwrap and Forget are observed in
// practice to sometimes appear with fewer operands than expected (Open
// Question (b)), and the handler tolerates this by skipping the escalation
// rather than panicking.
func (v *blockVisitor) applyIntrinsic(effect knownnames.Effect, call ir.Call) {
	arg := func(i int) (ir.Operand, bool) {
		if i >= 0 && i < len(call.Args) {
			return call.Args[i], true
		}
		return ir.Operand{}, false
	}

	switch effect {
	case knownnames.Memcpy, knownnames.IntoVec, knownnames.VecPush:
		// propagate state of arg1 to arg0
		a1, ok1 := arg(1)
		a0, ok0 := arg(0)
		if ok1 && ok0 && a0.IsLocal {
			v.simplePropagate(a1, a0.Local)
		}

	case knownnames.Deref, knownnames.RcNew, knownnames.Unwrap:
		// propagate state of arg0 to result, if a result and arg0 exist
		if call.Dest == nil {
			return
		}
		if a0, ok := arg(0); ok {
			v.simplePropagate(a0, *call.Dest)
		}

	case knownnames.CStringIntoRaw, knownnames.BoxIntoRaw:
		// escalate arg0 to at least Forgotten; propagate to result
		a0, ok := arg(0)
		if !ok || !a0.IsLocal {
			return
		}
		v.escalate(a0.Local, lattice.Forgotten)
		if call.Dest != nil {
			v.current.PropagateTaint(a0.Local, *call.Dest)
		}

	case knownnames.CStringAsCStr, knownnames.VecAsPtr:
		// escalate arg0 to at least Borrowed; propagate to result
		a0, ok := arg(0)
		if !ok || !a0.IsLocal {
			return
		}
		v.escalate(a0.Local, lattice.Borrowed)
		if call.Dest != nil {
			v.current.PropagateTaint(a0.Local, *call.Dest)
		}

	case knownnames.Forget:
		// escalate arg0 to at least Forgotten; propagate to result if any
		a0, ok := arg(0)
		if !ok || !a0.IsLocal {
			return
		}
		v.escalate(a0.Local, lattice.Forgotten)
		if call.Dest != nil {
			v.current.PropagateTaint(a0.Local, *call.Dest)
		}

	case knownnames.VecIntoRawParts:
		// escalate arg1 to at least Forgotten (no result)
		a1, ok := arg(1)
		if ok && a1.IsLocal {
			v.escalate(a1.Local, lattice.Forgotten)
		}

	case knownnames.VecFromRawParts:
		// if arg0 is Forgotten, reset to Tainted; propagate to result if any
		a0, ok := arg(0)
		if !ok || !a0.IsLocal {
			return
		}
		if v.current.GetMemoryState(a0.Local) == lattice.Forgotten {
			v.current.SetTainted(a0.Local, lattice.Tainted)
		}
		if call.Dest != nil {
			v.current.PropagateTaint(a0.Local, *call.Dest)
		}
	}
}
