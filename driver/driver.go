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

// Package driver is the StaticAnalysis entry point: it dispatches one
// FuncAnalysis per configured entry point, then consolidates and filters
// the accumulated diagnoses (spec §4.6).
package driver

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/taintcheck/ffianalyzer/config"
	"github.com/taintcheck/ffianalyzer/diagnosis"
	"github.com/taintcheck/ffianalyzer/engine"
	"github.com/taintcheck/ffianalyzer/ir"
	"github.com/taintcheck/ffianalyzer/knownnames"
)

// Driver runs a single whole-program analysis over a fixed set of loaded
// functions, for a fixed set of configured entry points, and consolidates
// the resulting diagnoses. RunID correlates every log line and diagnosis
// produced by one invocation of Run across a CI pipeline's logs.
type Driver struct {
	ctx    *engine.Context
	opts   config.AnalysisOption
	RunID  uuid.UUID
	logger *slog.Logger
}

// New builds a Driver over the given function index, name catalogue, and
// declared FFI functions, configured by opts.
func New(functions map[string]*ir.Function, catalogue *knownnames.Catalogue, ffiFunctions map[string]struct{}, opts config.AnalysisOption) *Driver {
	runID := uuid.New()
	return &Driver{
		ctx:    engine.NewContextWithLimits(functions, catalogue, ffiFunctions, opts.MaxIteration, opts.MaxDepth),
		opts:   opts,
		RunID:  runID,
		logger: slog.With("run_id", runID.String()),
	}
}

// Run analyzes every configured entry point and returns the filtered,
// consolidated diagnoses (spec §4.6). Entry points whose demangled symbol
// cannot be found among the loaded functions are logged and skipped, per
// spec §7's "Unresolved entry points are logged and skipped."
func (d *Driver) Run() []diagnosis.Diagnosis {
	for _, entry := range d.opts.EntryPoints {
		found := false
		for symbol, fn := range d.ctx.Functions() {
			if !strings.HasSuffix(fn.Demangled, entry) {
				continue
			}
			found = true
			d.logger.Info("analyzing entry point", "entry", entry, "symbol", symbol)
			fa, ok := engine.NewFuncAnalysis(d.ctx, symbol)
			if !ok {
				continue
			}
			fa.IterateToFixpoint()
		}
		if !found {
			d.logger.Warn("LLVM bitcode for entry point not found", "entry", entry)
		}
	}
	return d.filterDiagnoses(d.ctx.Diagnoses())
}

// filterDiagnoses implements the output filtering of spec §4.6: drop
// diagnoses below the precision threshold, keep only those attributed to
// a function in one of the configured crates (or with no namespace
// separator at all, to include foreign-symbol wrappers), then retain only
// the most severe diagnosis per function.
func (d *Driver) filterDiagnoses(all []diagnosis.Diagnosis) []diagnosis.Diagnosis {
	mostSevere := make(map[string]diagnosis.Diagnosis)
	for _, diag := range all {
		if diag.Severity < d.opts.PrecisionThreshold {
			continue
		}
		if !d.belongsToAnalyzedCrate(diag.FunctionName) {
			continue
		}
		if existing, ok := mostSevere[diag.FunctionName]; !ok || existing.Severity <= diag.Severity {
			mostSevere[diag.FunctionName] = diag
		}
	}

	result := make([]diagnosis.Diagnosis, 0, len(mostSevere))
	for _, diag := range mostSevere {
		result = append(result, diag)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].FunctionName < result[j].FunctionName })
	return result
}

func (d *Driver) belongsToAnalyzedCrate(functionName string) bool {
	if !strings.Contains(functionName, "::") {
		return true
	}
	for _, name := range d.opts.CrateNames {
		if strings.HasPrefix(functionName, name) {
			return true
		}
	}
	return false
}
