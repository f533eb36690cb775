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

// Package driver_test is a Ginkgo/Gomega BDD suite exercising the six
// end-to-end scenarios of spec §8 through the full Driver, not just
// FuncAnalysis — covering entry-point dispatch and the crate-prefix
// allowlist of §4.6 output filtering on top of the engine's dataflow
// already unit-tested package-internally in engine/end_to_end_test.go.
package driver_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/taintcheck/ffianalyzer/config"
	"github.com/taintcheck/ffianalyzer/diagnosis"
	"github.com/taintcheck/ffianalyzer/driver"
	"github.com/taintcheck/ffianalyzer/ir"
	"github.com/taintcheck/ffianalyzer/knownnames"
	"github.com/taintcheck/ffianalyzer/state"
)

func localOp(name string) ir.Operand {
	return ir.LocalOperand(state.SymbolName(name), ir.OpaqueType{})
}

func namePtr(name string) *state.Name {
	n := state.SymbolName(name)
	return &n
}

func singleBlockFunc(symbol string, instrs []ir.Instruction) *ir.Function {
	return &ir.Function{
		Symbol:    symbol,
		Demangled: symbol,
		Blocks: []*ir.BasicBlock{
			{ID: "bb0", Instructions: instrs, Term: ir.Ret{}},
		},
	}
}

func runEntry(fn *ir.Function, ffiFunctions map[string]struct{}) []diagnosis.Diagnosis {
	opts := config.AnalysisOption{
		CrateNames:         []string{"my_crate"},
		EntryPoints:        []string{"f"},
		PrecisionThreshold: diagnosis.Low,
	}
	d := driver.New(map[string]*ir.Function{fn.Symbol: fn}, knownnames.Default(), ffiFunctions, opts)
	return d.Run()
}

var _ = Describe("Driver end-to-end scenarios (spec §8)", func() {
	It("scenario 1: Box::into_raw escaping straight into a foreign free is High UseAfterFree+DoubleFree", func() {
		fn := singleBlockFunc("my_crate::f", []ir.Instruction{
			ir.Alloca{Dest: state.SymbolName("b"), AllocatedType: ir.NamedStructType{Name: "String"}},
			ir.Call{Dest: namePtr("p"), Direct: "alloc::boxed::Box<T,A>::into_raw", Args: []ir.Operand{localOp("b")}},
			ir.Call{Dest: nil, Direct: "free", Args: []ir.Operand{localOp("p")}},
		})

		diags := runEntry(fn, nil)
		Expect(diags).To(HaveLen(1))
		Expect(diags[0].Severity).To(Equal(diagnosis.High))
		Expect(diags[0].Bugs).To(ContainElements(diagnosis.UseAfterFree, diagnosis.DoubleFree))
		Expect(diags[0].FunctionName).To(Equal("my_crate::f"))
	})

	It("scenario 2: Box::into_raw passed to an unknown foreign callee is Medium MemoryLeakage", func() {
		fn := singleBlockFunc("my_crate::f", []ir.Instruction{
			ir.Alloca{Dest: state.SymbolName("b"), AllocatedType: ir.NamedStructType{Name: "String"}},
			ir.Call{Dest: namePtr("p"), Direct: "alloc::boxed::Box<T,A>::into_raw", Args: []ir.Operand{localOp("b")}},
			ir.Call{Dest: nil, Direct: "c_func", Args: []ir.Operand{localOp("p")}},
		})

		diags := runEntry(fn, map[string]struct{}{"c_func": {}})
		Expect(diags).To(HaveLen(1))
		Expect(diags[0].Severity).To(Equal(diagnosis.Medium))
		Expect(diags[0].Bugs).To(ContainElement(diagnosis.MemoryLeakage))
		Expect(diags[0].FFIKnown).To(BeFalse())
	})

	It("scenario 3: a Vec::as_mut_ptr borrow passed to an unknown foreign callee is Low UseAfterFree", func() {
		fn := singleBlockFunc("my_crate::f", []ir.Instruction{
			ir.Alloca{Dest: state.SymbolName("v"), AllocatedType: ir.NamedStructType{Name: "Vec<u8>"}},
			ir.Call{Dest: namePtr("p"), Direct: "alloc::vec::Vec<T,A>::as_mut_ptr", Args: []ir.Operand{localOp("v")}},
			ir.Call{Dest: nil, Direct: "c_func", Args: []ir.Operand{localOp("p")}},
		})

		diags := runEntry(fn, map[string]struct{}{"c_func": {}})
		Expect(diags).To(HaveLen(1))
		Expect(diags[0].Severity).To(Equal(diagnosis.Low))
		Expect(diags[0].Bugs).To(ContainElement(diagnosis.UseAfterFree))
	})

	It("scenario 4: forget then as_ptr still carries Forgotten into a foreign call, Medium MemoryLeakage", func() {
		fn := singleBlockFunc("my_crate::f", []ir.Instruction{
			ir.Alloca{Dest: state.SymbolName("v"), AllocatedType: ir.NamedStructType{Name: "Vec<u8>"}},
			ir.Call{Dest: nil, Direct: "core::mem::forget", Args: []ir.Operand{localOp("v")}},
			ir.Call{Dest: namePtr("q"), Direct: "alloc::vec::Vec<T,A>::as_ptr", Args: []ir.Operand{localOp("v")}},
			ir.Call{Dest: nil, Direct: "c_func", Args: []ir.Operand{localOp("q")}},
		})

		diags := runEntry(fn, map[string]struct{}{"c_func": {}})
		Expect(diags).To(HaveLen(1))
		Expect(diags[0].Severity).To(Equal(diagnosis.Medium))
		Expect(diags[0].Bugs).To(ContainElement(diagnosis.MemoryLeakage))
	})

	It("scenario 5: round-tripping through Vec::from_raw_parts resets Forgotten to Tainted, still a High free-sink hit", func() {
		fn := singleBlockFunc("my_crate::f", []ir.Instruction{
			ir.Alloca{Dest: state.SymbolName("b"), AllocatedType: ir.NamedStructType{Name: "String"}},
			ir.Call{Dest: namePtr("p"), Direct: "alloc::boxed::Box<T,A>::into_raw", Args: []ir.Operand{localOp("b")}},
			ir.Call{Dest: namePtr("v"), Direct: "alloc::vec::Vec<T,A>::from_raw_parts", Args: []ir.Operand{localOp("p"), localOp("len"), localOp("cap")}},
			ir.Call{Dest: nil, Direct: "free", Args: []ir.Operand{localOp("v")}},
		})

		diags := runEntry(fn, nil)
		Expect(diags).To(HaveLen(1))
		Expect(diags[0].Severity).To(Equal(diagnosis.High))
		Expect(diags[0].Bugs).To(ContainElements(diagnosis.UseAfterFree, diagnosis.DoubleFree))
	})

	It("scenario 6: an indirect call with a tainted argument is attributed a Low UseAfterFree at the caller", func() {
		fnPtr := localOp("fp")
		fn := singleBlockFunc("my_crate::f", []ir.Instruction{
			ir.Alloca{Dest: state.SymbolName("b"), AllocatedType: ir.NamedStructType{Name: "String"}},
			ir.Call{Indirect: &fnPtr, Args: []ir.Operand{localOp("b")}},
		})

		diags := runEntry(fn, nil)
		Expect(diags).To(HaveLen(1))
		Expect(diags[0].Severity).To(Equal(diagnosis.Low))
		Expect(diags[0].Bugs).To(ContainElement(diagnosis.UseAfterFree))
		Expect(diags[0].FunctionName).To(Equal("my_crate::f"))
	})

	It("applies the crate prefix allowlist of §4.6 output filtering", func() {
		fn := singleBlockFunc("other_crate::g", []ir.Instruction{
			ir.Alloca{Dest: state.SymbolName("b"), AllocatedType: ir.NamedStructType{Name: "String"}},
			ir.Call{Dest: namePtr("p"), Direct: "alloc::boxed::Box<T,A>::into_raw", Args: []ir.Operand{localOp("b")}},
			ir.Call{Dest: nil, Direct: "c_func", Args: []ir.Operand{localOp("p")}},
		})
		opts := config.AnalysisOption{
			CrateNames:         []string{"my_crate"},
			EntryPoints:        []string{"g"},
			PrecisionThreshold: diagnosis.Low,
		}
		d := driver.New(map[string]*ir.Function{fn.Symbol: fn}, knownnames.Default(), map[string]struct{}{"c_func": {}}, opts)
		diags := d.Run()
		Expect(diags).To(BeEmpty(), "other_crate::g does not match the configured crate prefix allowlist")
	})
})
