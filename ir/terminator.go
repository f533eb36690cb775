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

// Terminator ends a basic block and names its successors.
type Terminator interface {
	isTerminator()
	Successors() []state.BlockID
}

// Ret exits the function, optionally returning Value. Successors is empty.
type Ret struct {
	Value *Operand
}

func (Ret) isTerminator()                 {}
func (Ret) Successors() []state.BlockID   { return nil }

// Br is an unconditional branch.
type Br struct {
	Target state.BlockID
}

func (Br) isTerminator() {}
func (b Br) Successors() []state.BlockID { return []state.BlockID{b.Target} }

// CondBr is a two-way conditional branch.
type CondBr struct {
	Condition Operand
	TrueDest  state.BlockID
	FalseDest state.BlockID
}

func (CondBr) isTerminator() {}
func (c CondBr) Successors() []state.BlockID {
	return []state.BlockID{c.TrueDest, c.FalseDest}
}

// Switch is a multi-way branch over an integer operand.
type Switch struct {
	Condition Operand
	Default   state.BlockID
	Cases     []state.BlockID
}

func (Switch) isTerminator() {}
func (s Switch) Successors() []state.BlockID {
	return append([]state.BlockID{s.Default}, s.Cases...)
}

// IndirectBr jumps to one of a fixed list of blockaddress targets.
type IndirectBr struct {
	Address Operand
	Targets []state.BlockID
}

func (IndirectBr) isTerminator() {}
func (i IndirectBr) Successors() []state.BlockID { return i.Targets }

// Unreachable marks dead code; it has no successors.
type Unreachable struct{}

func (Unreachable) isTerminator()               {}
func (Unreachable) Successors() []state.BlockID { return nil }

// Invoke is the terminator form of a call: it behaves like Call but
// additionally branches to Normal on return or Unwind on an exception.
type Invoke struct {
	Dest     *state.Name
	Direct   string
	Indirect *Operand
	Args     []Operand
	Normal   state.BlockID
	Unwind   state.BlockID
}

func (Invoke) isTerminator() {}
func (i Invoke) Successors() []state.BlockID {
	return []state.BlockID{i.Normal, i.Unwind}
}

// IsIndirect reports whether the callee is resolved through a function
// pointer rather than a known symbol.
func (i Invoke) IsIndirect() bool { return i.Direct == "" }

// AsCall adapts Invoke to the same shape as Call, for callers that want to
// treat the two uniformly.
func (i Invoke) AsCall() Call {
	return Call{Dest: i.Dest, Direct: i.Direct, Indirect: i.Indirect, Args: i.Args}
}
