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

// Package ir is the shape of the external bitcode-parsing collaborator
// (spec §6, out of scope for this analyzer): a Module exposing Functions,
// each with named BasicBlocks holding an instruction list and a terminator,
// with Operand/Constant/Type variants matching what a real LLVM bitcode
// reader (e.g. the llvm-ir crate this program was ported from) produces.
// Nothing in this package parses bitcode; it is the in-memory contract the
// rest of the analyzer is built against.
package ir

// Type is the minimal type-system surface of the IR. The engine inspects
// only whether an alloca's static type names a heap-owning container;
// IsFuncPointer reports whether an operand's type is a function pointer,
// but the engine recognizes indirect calls by an empty Call.Direct.
type Type interface{ isType() }

// PointerType is `T*` for some pointee Type.
type PointerType struct {
	Pointee Type
}

func (PointerType) isType() {}

// FuncType marks a pointee as a function signature; IsFuncPointer
// recognizes PointerType{FuncType{}} as a function-pointer type.
type FuncType struct{}

func (FuncType) isType() {}

// NamedStructType is a struct type referenced by name, e.g. "Vec<u8>",
// "String", "CString" — the alloca heuristic (spec §4.4) matches against
// these names.
type NamedStructType struct {
	Name string
}

func (NamedStructType) isType() {}

// OpaqueType stands in for every other LLVM type (integers, arrays,
// vectors, ...); the engine never needs to inspect it, it only needs
// PointerType/FuncType/NamedStructType to be distinguishable from it.
type OpaqueType struct{}

func (OpaqueType) isType() {}

// IsFuncPointer reports whether t is a pointer to a function type — the
// shape of an indirect-call callee operand.
func IsFuncPointer(t Type) bool {
	ptr, ok := t.(PointerType)
	if !ok {
		return false
	}
	_, ok = ptr.Pointee.(FuncType)
	return ok
}
