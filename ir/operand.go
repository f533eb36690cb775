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

// Operand is either a reference to a local SSA value or a constant.
type Operand struct {
	Local    state.Name
	IsLocal  bool
	Constant Constant
	Type     Type
}

// LocalOperand builds an Operand referring to an SSA-local value.
func LocalOperand(n state.Name, t Type) Operand {
	return Operand{Local: n, IsLocal: true, Type: t}
}

// ConstOperand builds an Operand holding a compile-time constant.
func ConstOperand(c Constant, t Type) Operand {
	return Operand{Constant: c, Type: t}
}

// Constant is a compile-time value: a reference to a global (function or
// data symbol) or anything else the engine does not need to distinguish.
type Constant interface{ isConstant() }

// GlobalRef names a global symbol — how a function-pointer or other
// global constant is represented. A direct call's callee is carried as
// the Call.Direct symbol string, not as a GlobalRef.
type GlobalRef struct {
	Symbol string
}

func (GlobalRef) isConstant() {}

// NullPointer is the null/zero pointer constant.
type NullPointer struct{}

func (NullPointer) isConstant() {}

// OtherConstant is every constant the engine has no special handling for
// (integers, floats, aggregates, ...).
type OtherConstant struct{}

func (OtherConstant) isConstant() {}
