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

import "github.com/taintcheck/ffianalyzer/state"

// Instruction is any non-terminating instruction in a basic block. Concrete
// types below cover every instruction the transfer functions (spec §4.4)
// give distinct treatment to; everything else parses into Other.
type Instruction interface{ isInstruction() }

// Alloca is a stack allocation. AllocatedType is inspected against the
// heap-owning-container heuristic to decide whether the result starts life
// Tainted.
type Alloca struct {
	Dest          state.Name
	AllocatedType Type
}

func (Alloca) isInstruction() {}

// Load reads through a pointer operand into Dest — taint flows from the
// pointee class to Dest.
type Load struct {
	Dest    state.Name
	Address Operand
}

func (Load) isInstruction() {}

// Store writes Value through a pointer operand — taint flows from Value
// into the pointee's class.
type Store struct {
	Address Operand
	Value   Operand
}

func (Store) isInstruction() {}

// BitCast, PtrToInt, IntToPtr, AddrSpaceCast, Trunc, ZExt, SExt are the
// pure-aliasing conversions: Dest's class merges with Source's.
type BitCast struct {
	Dest   state.Name
	Source Operand
}

func (BitCast) isInstruction() {}

type PtrToInt struct {
	Dest   state.Name
	Source Operand
}

func (PtrToInt) isInstruction() {}

type IntToPtr struct {
	Dest   state.Name
	Source Operand
}

func (IntToPtr) isInstruction() {}

type AddrSpaceCast struct {
	Dest   state.Name
	Source Operand
}

func (AddrSpaceCast) isInstruction() {}

type Trunc struct {
	Dest   state.Name
	Source Operand
}

func (Trunc) isInstruction() {}

type ZExt struct {
	Dest   state.Name
	Source Operand
}

func (ZExt) isInstruction() {}

type SExt struct {
	Dest   state.Name
	Source Operand
}

func (SExt) isInstruction() {}

// GetElementPtr computes a derived pointer — its Dest aliases Base (and by
// extension whatever Base aliases), regardless of the index list.
type GetElementPtr struct {
	Dest    state.Name
	Base    Operand
	Indices []Operand
}

func (GetElementPtr) isInstruction() {}

// ExtractValue/InsertValue move taint between an aggregate and one of its
// elements; ExtractElement/InsertElement do the same for vectors;
// ShuffleVector's Dest takes the LUB of both vector operands' states
// without joining their alias classes.
type ExtractValue struct {
	Dest      state.Name
	Aggregate Operand
	Indices   []uint32
}

func (ExtractValue) isInstruction() {}

type InsertValue struct {
	Dest      state.Name
	Aggregate Operand
	Element   Operand
	Indices   []uint32
}

func (InsertValue) isInstruction() {}

type ExtractElement struct {
	Dest   state.Name
	Vector Operand
	Index  Operand
}

func (ExtractElement) isInstruction() {}

type InsertElement struct {
	Dest    state.Name
	Vector  Operand
	Element Operand
	Index   Operand
}

func (InsertElement) isInstruction() {}

type ShuffleVector struct {
	Dest state.Name
	Lhs  Operand
	Rhs  Operand
}

func (ShuffleVector) isInstruction() {}

// Phi takes the state of the first tainted incoming operand, in order, or
// Untainted if none is tainted — the worklist solver relies on revisiting
// it until its block's precondition stabilizes.
type Phi struct {
	Dest         state.Name
	IncomingVals []Operand
	IncomingBlks []state.BlockID
}

func (Phi) isInstruction() {}

// Arithmetic covers every binary/unary arithmetic or bitwise opcode
// (add, sub, mul, and, or, xor, ...); none of them affect memory-safety
// taint, so the engine only needs to know a destination was defined.
type Arithmetic struct {
	Dest  state.Name
	Op    string
	Lhs   Operand
	Rhs   Operand
}

func (Arithmetic) isInstruction() {}

// Call is a non-terminating function call (an Invoke is the terminator
// form of the same shape). Exactly one of Direct/Indirect is set.
type Call struct {
	Dest     *state.Name
	Direct   string
	Indirect *Operand
	Args     []Operand
}

func (Call) isInstruction() {}

// IsIndirect reports whether the callee is resolved through a function
// pointer rather than a known symbol.
func (c Call) IsIndirect() bool { return c.Direct == "" }

// Other is any instruction the engine treats uniformly as a no-op for
// taint purposes (e.g. fence, freeze, landingpad).
type Other struct{}

func (Other) isInstruction() {}
