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

// Param is a formal parameter of a Function.
type Param struct {
	Name state.Name
	Type Type
}

// BasicBlock is a straight-line sequence of Instructions ending in exactly
// one Terminator.
type BasicBlock struct {
	ID           state.BlockID
	Instructions []Instruction
	Term         Terminator
}

// Function is one bitcode-level function definition. Symbol is the raw
// linkage name as it appears in the module; Demangled is produced by the
// out-of-scope name-demangling step (spec §6) and is what diagnoses and
// the known-names catalogue match against.
type Function struct {
	Symbol     string
	Demangled  string
	Params     []Param
	Blocks     []*BasicBlock
	IsExternal bool
}

// Block returns the block with the given id, or nil.
func (f *Function) Block(id state.BlockID) *BasicBlock {
	for _, b := range f.Blocks {
		if b.ID == id {
			return b
		}
	}
	return nil
}

// EntryBlock returns the function's first block, or nil for an external
// declaration with no body.
func (f *Function) EntryBlock() *BasicBlock {
	if len(f.Blocks) == 0 {
		return nil
	}
	return f.Blocks[0]
}

// Module is one parsed bitcode file: a flat list of function definitions
// and declarations.
type Module struct {
	Name      string
	Functions []*Function
}

// FunctionBySymbol looks up a function by its raw linkage name.
func (m *Module) FunctionBySymbol(symbol string) *Function {
	for _, f := range m.Functions {
		if f.Symbol == symbol {
			return f
		}
	}
	return nil
}
