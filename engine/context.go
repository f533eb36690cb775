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

// Package engine is the interprocedural taint-propagation solver: per-
// instruction transfer functions (BlockVisitor), a worklist fixpoint
// solver over a function's control-flow graph (FuncAnalysis), and the
// memoized recursive descent into callees that makes the whole thing
// interprocedural.
package engine

import (
	"sync"

	"github.com/taintcheck/ffianalyzer/diagnosis"
	"github.com/taintcheck/ffianalyzer/ir"
	"github.com/taintcheck/ffianalyzer/knownnames"
	"github.com/taintcheck/ffianalyzer/summary"
)

// MaxDepth bounds interprocedural recursion: a callee summary is only
// computed if the current call-stack depth is below this limit, matching
// the reference checker's own bound against runaway recursive or mutually
// recursive Rust code.
const MaxDepth = 20

// MaxIteration bounds the worklist loop for a single function, matching
// the reference checker's guard against pathological CFGs that would
// otherwise never settle within a reasonable time budget.
const MaxIteration = 200

// Context is the state shared across every function analyzed in a single
// run: the parsed module's functions by symbol, the name catalogue, the
// set of functions known to cross the FFI boundary, the summary cache, and
// the accumulated diagnoses. A Context is shared by every FuncAnalysis,
// including those spawned recursively for interprocedural summaries. The
// diagnosis list is guarded by a mutex; the summary cache is not locked.
type Context struct {
	functions    map[string]*ir.Function
	catalogue    *knownnames.Catalogue
	ffiFunctions map[string]struct{}
	summaryCache *summary.Cache
	maxIteration int
	maxDepth     int

	mu        sync.Mutex
	diagnoses []diagnosis.Diagnosis
}

// NewContext builds a Context with the default MaxIteration/MaxDepth
// caps. ffiFunctions holds the demangled names of functions known (from
// the host language's own FFI declarations) to cross into foreign code;
// functions holds every function symbol found in the loaded bitcode
// modules.
func NewContext(functions map[string]*ir.Function, catalogue *knownnames.Catalogue, ffiFunctions map[string]struct{}) *Context {
	return NewContextWithLimits(functions, catalogue, ffiFunctions, MaxIteration, MaxDepth)
}

// NewContextWithLimits builds a Context whose worklist and recursion caps
// are overridden, e.g. from a project's YAML configuration (spec §9 notes
// these as knobs "experience on real code will decide"). A non-positive
// value falls back to the package default.
func NewContextWithLimits(functions map[string]*ir.Function, catalogue *knownnames.Catalogue, ffiFunctions map[string]struct{}, maxIteration, maxDepth int) *Context {
	if maxIteration <= 0 {
		maxIteration = MaxIteration
	}
	if maxDepth <= 0 {
		maxDepth = MaxDepth
	}
	return &Context{
		functions:    functions,
		catalogue:    catalogue,
		ffiFunctions: ffiFunctions,
		summaryCache: summary.NewCache(),
		maxIteration: maxIteration,
		maxDepth:     maxDepth,
	}
}

// MaxIteration returns the worklist iteration cap configured for this run.
func (c *Context) MaxIteration() int { return c.maxIteration }

// MaxDepth returns the interprocedural recursion depth cap configured for
// this run.
func (c *Context) MaxDepth() int { return c.maxDepth }

// Function looks up a function definition by its raw linkage symbol.
func (c *Context) Function(symbol string) (*ir.Function, bool) {
	f, ok := c.functions[symbol]
	return f, ok
}

// Functions returns every function indexed for this run, keyed by raw
// linkage symbol. Used by the driver to match entry points against
// demangled names.
func (c *Context) Functions() map[string]*ir.Function {
	return c.functions
}

// IsFFI reports whether demangledName is a declared FFI boundary function.
func (c *Context) IsFFI(demangledName string) bool {
	_, ok := c.ffiFunctions[demangledName]
	return ok
}

// Classify resolves the dispatch kind for a called function, checking the
// FFI set before falling back to the name catalogue — a function declared
// as FFI always dispatches as FFISink even if its name also happens to
// match a catalogue entry.
func (c *Context) Classify(demangledName string) knownnames.Classification {
	if c.IsFFI(demangledName) {
		return knownnames.Classification{Kind: knownnames.FFISink}
	}
	return c.catalogue.Classify(demangledName)
}

// GetSummary returns the cached interprocedural summary for key, if any.
func (c *Context) GetSummary(key summary.Key) (summary.Summary, bool) {
	return c.summaryCache.Get(key)
}

// InsertSummary records s as the summary for key. A summary, once cached,
// is never invalidated for the remainder of the run (spec §5).
func (c *Context) InsertSummary(key summary.Key, s summary.Summary) {
	c.summaryCache.Insert(key, s)
}

// AddDiagnosis records a finding.
func (c *Context) AddDiagnosis(d diagnosis.Diagnosis) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.diagnoses = append(c.diagnoses, d)
}

// Diagnoses returns every diagnosis recorded so far.
func (c *Context) Diagnoses() []diagnosis.Diagnosis {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]diagnosis.Diagnosis(nil), c.diagnoses...)
}
