package engine

import (
	"testing"

	"github.com/taintcheck/ffianalyzer/diagnosis"
	"github.com/taintcheck/ffianalyzer/ir"
	"github.com/taintcheck/ffianalyzer/knownnames"
	"github.com/taintcheck/ffianalyzer/lattice"
	"github.com/taintcheck/ffianalyzer/state"
)

func namePtr(s string) *state.Name {
	n := state.SymbolName(s)
	return &n
}

func localOp(s string) ir.Operand {
	return ir.LocalOperand(state.SymbolName(s), ir.OpaqueType{})
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

func runScenario(t *testing.T, fn *ir.Function, ffiFunctions map[string]struct{}) []diagnosis.Diagnosis {
	t.Helper()
	ctx := NewContext(map[string]*ir.Function{fn.Symbol: fn}, knownnames.Default(), ffiFunctions)
	fa, ok := NewFuncAnalysis(ctx, fn.Symbol)
	if !ok {
		t.Fatalf("NewFuncAnalysis: symbol %s not found", fn.Symbol)
	}
	fa.IterateToFixpoint()
	return ctx.Diagnoses()
}

// Scenario 1 (spec §8): Box::into_raw escapes straight into a foreign free.
func TestScenarioBoxIntoRawThenFreeIsHighSeverity(t *testing.T) {
	t.Parallel()
	fn := singleBlockFunc("scenario1", []ir.Instruction{
		ir.Alloca{Dest: state.SymbolName("b"), AllocatedType: ir.NamedStructType{Name: "String"}},
		ir.Call{Dest: namePtr("p"), Direct: "alloc::boxed::Box<T,A>::into_raw", Args: []ir.Operand{localOp("b")}},
		ir.Call{Dest: nil, Direct: "free", Args: []ir.Operand{localOp("p")}},
	})

	diags := runScenario(t, fn, nil)
	if len(diags) != 1 {
		t.Fatalf("expected exactly 1 diagnosis, got %d: %+v", len(diags), diags)
	}
	d := diags[0]
	if d.Severity != diagnosis.High {
		t.Fatalf("expected High severity, got %v", d.Severity)
	}
	if !containsBug(d.Bugs, diagnosis.UseAfterFree) || !containsBug(d.Bugs, diagnosis.DoubleFree) {
		t.Fatalf("expected UseAfterFree+DoubleFree, got %v", d.Bugs)
	}
}

// Scenario 2: Box::into_raw passed to an unknown foreign callee leaks.
func TestScenarioBoxIntoRawThenUnknownForeignCallLeaks(t *testing.T) {
	t.Parallel()
	fn := singleBlockFunc("scenario2", []ir.Instruction{
		ir.Alloca{Dest: state.SymbolName("b"), AllocatedType: ir.NamedStructType{Name: "String"}},
		ir.Call{Dest: namePtr("p"), Direct: "alloc::boxed::Box<T,A>::into_raw", Args: []ir.Operand{localOp("b")}},
		ir.Call{Dest: nil, Direct: "c_func", Args: []ir.Operand{localOp("p")}},
	})

	diags := runScenario(t, fn, map[string]struct{}{"c_func": {}})
	if len(diags) != 1 {
		t.Fatalf("expected exactly 1 diagnosis, got %d: %+v", len(diags), diags)
	}
	d := diags[0]
	if d.Severity != diagnosis.Medium {
		t.Fatalf("expected Medium severity, got %v", d.Severity)
	}
	if !containsBug(d.Bugs, diagnosis.MemoryLeakage) {
		t.Fatalf("expected MemoryLeakage, got %v", d.Bugs)
	}
	if d.FFIKnown {
		t.Fatalf("expected FFIKnown=false (bitcode absent)")
	}
}

// Scenario 3: a Vec::as_mut_ptr borrow passed to an unknown foreign callee.
func TestScenarioBorrowedPointerToUnknownForeignCallIsLow(t *testing.T) {
	t.Parallel()
	fn := singleBlockFunc("scenario3", []ir.Instruction{
		ir.Alloca{Dest: state.SymbolName("v"), AllocatedType: ir.NamedStructType{Name: "Vec<u8>"}},
		ir.Call{Dest: namePtr("p"), Direct: "alloc::vec::Vec<T,A>::as_mut_ptr", Args: []ir.Operand{localOp("v")}},
		ir.Call{Dest: nil, Direct: "c_func", Args: []ir.Operand{localOp("p")}},
	})

	diags := runScenario(t, fn, map[string]struct{}{"c_func": {}})
	if len(diags) != 1 {
		t.Fatalf("expected exactly 1 diagnosis, got %d: %+v", len(diags), diags)
	}
	d := diags[0]
	if d.Severity != diagnosis.Low {
		t.Fatalf("expected Low severity, got %v", d.Severity)
	}
	if !containsBug(d.Bugs, diagnosis.UseAfterFree) {
		t.Fatalf("expected UseAfterFree, got %v", d.Bugs)
	}
}

// Scenario 4: forget then as_ptr — escalation to Borrowed does not
// override Forgotten (the two are incomparable), and the eventual foreign call
// still reports a leak, not a use-after-free.
func TestScenarioForgetThenDerefStaysForgotten(t *testing.T) {
	t.Parallel()
	fn := singleBlockFunc("scenario4", []ir.Instruction{
		ir.Alloca{Dest: state.SymbolName("v"), AllocatedType: ir.NamedStructType{Name: "Vec<u8>"}},
		ir.Call{Dest: nil, Direct: "core::mem::forget", Args: []ir.Operand{localOp("v")}},
		ir.Call{Dest: namePtr("q"), Direct: "alloc::vec::Vec<T,A>::as_ptr", Args: []ir.Operand{localOp("v")}},
		ir.Call{Dest: nil, Direct: "c_func", Args: []ir.Operand{localOp("q")}},
	})

	diags := runScenario(t, fn, map[string]struct{}{"c_func": {}})
	if len(diags) != 1 {
		t.Fatalf("expected exactly 1 diagnosis, got %d: %+v", len(diags), diags)
	}
	d := diags[0]
	if d.Severity != diagnosis.Medium {
		t.Fatalf("expected Medium severity, got %v", d.Severity)
	}
	if !containsBug(d.Bugs, diagnosis.MemoryLeakage) {
		t.Fatalf("expected MemoryLeakage (Forgotten, not Borrowed), got %v", d.Bugs)
	}
}

// Scenario 5: round-trip through from_raw_parts resets Forgotten to
// Tainted rather than leaving the reconstructed Vec Forgotten.
func TestScenarioFromRawPartsResetsToTainted(t *testing.T) {
	t.Parallel()
	fn := singleBlockFunc("scenario5", []ir.Instruction{
		ir.Alloca{Dest: state.SymbolName("b"), AllocatedType: ir.NamedStructType{Name: "String"}},
		ir.Call{Dest: namePtr("p"), Direct: "alloc::boxed::Box<T,A>::into_raw", Args: []ir.Operand{localOp("b")}},
		ir.Call{Dest: namePtr("v"), Direct: "alloc::vec::Vec<T,A>::from_raw_parts", Args: []ir.Operand{localOp("p"), localOp("len"), localOp("cap")}},
	})

	ctx := NewContext(map[string]*ir.Function{fn.Symbol: fn}, knownnames.Default(), nil)
	fa, ok := NewFuncAnalysis(ctx, fn.Symbol)
	if !ok {
		t.Fatalf("NewFuncAnalysis failed")
	}
	fa.IterateToFixpoint()

	vState := fa.Domain.GetOrBottom("bb0").GetMemoryState(state.SymbolName("v"))
	if vState != lattice.Tainted {
		t.Fatalf("expected v to be reset to Tainted, got %v", vState)
	}
	if len(ctx.Diagnoses()) != 0 {
		t.Fatalf("expected no diagnoses for this snippet alone, got %+v", ctx.Diagnoses())
	}
}

// Scenario 6: an indirect call through a function pointer with a tainted
// argument reports a Low UseAfterFree attributed to the caller.
func TestScenarioIndirectCallWithTaintedArgument(t *testing.T) {
	t.Parallel()
	fnPtr := localOp("fptr")
	fn := singleBlockFunc("scenario6", []ir.Instruction{
		ir.Alloca{Dest: state.SymbolName("v"), AllocatedType: ir.NamedStructType{Name: "Vec<u8>"}},
		ir.Call{Dest: nil, Indirect: &fnPtr, Args: []ir.Operand{localOp("v")}},
	})

	diags := runScenario(t, fn, nil)
	if len(diags) != 1 {
		t.Fatalf("expected exactly 1 diagnosis, got %d: %+v", len(diags), diags)
	}
	d := diags[0]
	if d.Severity != diagnosis.Low {
		t.Fatalf("expected Low severity, got %v", d.Severity)
	}
	if !containsBug(d.Bugs, diagnosis.UseAfterFree) {
		t.Fatalf("expected UseAfterFree, got %v", d.Bugs)
	}
	if d.FunctionName != "scenario6" {
		t.Fatalf("expected diagnosis attributed to caller, got %q", d.FunctionName)
	}
}

func containsBug(bugs []diagnosis.BugKind, want diagnosis.BugKind) bool {
	for _, b := range bugs {
		if b == want {
			return true
		}
	}
	return false
}
