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

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gookit/color"
	"github.com/google/uuid"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/taintcheck/ffianalyzer/config"
	"github.com/taintcheck/ffianalyzer/diagnosis"
	"github.com/taintcheck/ffianalyzer/driver"
	"github.com/taintcheck/ffianalyzer/explain"
	"github.com/taintcheck/ffianalyzer/ir"
	"github.com/taintcheck/ffianalyzer/knownnames"
	"github.com/taintcheck/ffianalyzer/store"
)

// stringList is a repeatable flag.Value, used for --entry and --bitcode
// (spec §6: "Flags are positional name/value pairs", each recognized flag
// appends to its list).
type stringList []string

func (l *stringList) String() string { return fmt.Sprint([]string(*l)) }
func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

// moduleLoader parses a single bitcode file into the in-memory ir.Module
// shape (config.ModuleLoader). Bitcode parsing is explicitly out of scope
// for this analyzer (spec §1) — it is an external collaborator's job —
// so the production default simply reports that plainly rather than
// pretending to do it. Tests substitute a synthetic loader.
var moduleLoader config.ModuleLoader = func(path string) (*ir.Module, error) {
	return nil, fmt.Errorf("no LLVM bitcode parser wired for %q: parsing bitcode is an external collaborator of this analyzer (spec §1), not implemented here", path)
}

func run(args []string, stdout, stderr io.Writer) int {
	logger := slog.New(slog.NewTextHandler(stderr, nil))

	fs := flag.NewFlagSet("ffianalyzer", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		workdir         string
		entries         stringList
		bitcodePaths    stringList
		precisionFilter string
		knownNamesPath  string
		projectPath     string
		useColor        bool
		storeDSN        string
		explainBackend  string
	)
	fs.StringVar(&workdir, "workdir", "", "directory containing entry_points/ and bitcode_paths (spec §6)")
	fs.Var(&entries, "entry", "append a symbol to the entry-point list")
	fs.Var(&bitcodePaths, "bitcode", "append a path to the bitcode-file list")
	fs.StringVar(&precisionFilter, "precision_filter", "low", "minimum severity to report: low|mid|high")
	fs.StringVar(&knownNamesPath, "known-names", "", "optional JSON known-names override file")
	fs.StringVar(&projectPath, "project-config", "", "optional YAML project options file")
	fs.BoolVar(&useColor, "color", true, "colorize diagnosis lines by severity")
	fs.StringVar(&storeDSN, "store-dsn", "", "optional Postgres DSN to persist this run's diagnoses")
	fs.StringVar(&explainBackend, "explain", "", "optional LLM backend to generate diagnosis explanations: anthropic|openai|gemini")

	if err := fs.Parse(args); err != nil {
		return exitConfigError
	}

	if workdir == "" {
		fmt.Fprintln(stderr, "ffianalyzer: --workdir is required")
		return exitConfigError
	}

	entryPoints, err := config.LoadEntryPoints(filepath.Join(workdir, "entry_points"))
	if err != nil {
		fmt.Fprintf(stderr, "ffianalyzer: %v\n", err)
		return exitConfigError
	}
	bitcodeFromFile, err := config.LoadBitcodePaths(filepath.Join(workdir, "bitcode_paths"))
	if err != nil {
		fmt.Fprintf(stderr, "ffianalyzer: %v\n", err)
		return exitConfigError
	}

	precision, err := config.ParsePrecisionFilter(precisionFilter)
	if err != nil {
		fmt.Fprintf(stderr, "ffianalyzer: %v\n", err)
		return exitConfigError
	}

	catalogue := knownnames.Default()
	if knownNamesPath != "" {
		catalogue, err = config.LoadKnownNamesOverride(knownNamesPath)
		if err != nil {
			fmt.Fprintf(stderr, "ffianalyzer: %v\n", err)
			return exitConfigError
		}
	}

	projectOpts, err := config.LoadProjectOptions(projectPath)
	if err != nil {
		fmt.Fprintf(stderr, "ffianalyzer: %v\n", err)
		return exitConfigError
	}

	opts := config.AnalysisOption{
		CrateNames:         entryPoints.CrateNames,
		EntryPoints:        append(append([]string{}, entryPoints.Entries...), entries...),
		FFIFunctions:       entryPoints.FFIFunctions,
		BitcodeFilePaths:   append(append([]string{}, bitcodeFromFile...), bitcodePaths...),
		PrecisionThreshold: precision,
		MaxIteration:       projectOpts.ResolvedMaxIteration(),
		MaxDepth:           projectOpts.ResolvedMaxDepth(),
		Catalogue:          catalogue,
	}
	if projectOpts.PrecisionFilter != "" {
		if p, err := config.ParsePrecisionFilter(projectOpts.PrecisionFilter); err == nil {
			opts.PrecisionThreshold = p
		}
	}
	if len(projectOpts.CratePrefixes) > 0 {
		opts.CrateNames = projectOpts.CratePrefixes
	}

	ctx := context.Background()
	functions, err := config.LoadBitcodeModules(ctx, opts.BitcodeFilePaths, moduleLoader)
	if err != nil {
		fmt.Fprintf(stderr, "ffianalyzer: %v\n", err)
		return exitConfigError
	}

	ffiFunctions := make(map[string]struct{}, len(opts.FFIFunctions))
	for _, name := range opts.FFIFunctions {
		ffiFunctions[name] = struct{}{}
	}

	d := driver.New(functions, catalogue, ffiFunctions, opts)
	diagnoses := d.Run()

	explainer := buildExplainer(explainBackend, logger)
	if explainer != nil {
		diagnoses = explain.ExplainAll(ctx, explainer, diagnoses)
	}

	if storeDSN != "" {
		if err := persist(ctx, storeDSN, d.RunID, diagnoses); err != nil {
			logger.Warn("failed to persist diagnoses", "error", err)
		}
	}

	printDiagnoses(stdout, diagnoses, useColor)
	return exitSuccess
}

func buildExplainer(backend string, logger *slog.Logger) explain.Explainer {
	switch backend {
	case "":
		return nil
	case "anthropic":
		key := os.Getenv("ANTHROPIC_API_KEY")
		if key == "" {
			logger.Warn("--explain=anthropic set but ANTHROPIC_API_KEY is empty; skipping explanations")
			return nil
		}
		return explain.NewAnthropicExplainer(key, "")
	case "openai":
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			logger.Warn("--explain=openai set but OPENAI_API_KEY is empty; skipping explanations")
			return nil
		}
		return explain.NewOpenAIExplainer(key, "")
	case "gemini":
		key := os.Getenv("GEMINI_API_KEY")
		if key == "" {
			logger.Warn("--explain=gemini set but GEMINI_API_KEY is empty; skipping explanations")
			return nil
		}
		g, err := explain.NewGeminiExplainer(context.Background(), key, "")
		if err != nil {
			logger.Warn("failed to build gemini explainer", "error", err)
			return nil
		}
		return g
	default:
		logger.Warn("unrecognized --explain backend, skipping explanations", "backend", backend)
		return nil
	}
}

func persist(ctx context.Context, dsn string, runID uuid.UUID, diagnoses []diagnosis.Diagnosis) error {
	s, err := store.Open(dsn)
	if err != nil {
		return err
	}
	defer s.Close()
	return s.SaveRun(ctx, runID, diagnoses)
}

// printDiagnoses writes one line per diagnosis to stdout (spec §6),
// colored by severity when useColor is set, followed by a locale-aware
// summary count.
func printDiagnoses(stdout io.Writer, diagnoses []diagnosis.Diagnosis, useColor bool) {
	for _, d := range diagnoses {
		line := d.String()
		if useColor {
			switch d.Severity {
			case diagnosis.High:
				line = color.Red.Sprint(line)
			case diagnosis.Medium:
				line = color.Yellow.Sprint(line)
			default:
				line = color.Cyan.Sprint(line)
			}
		}
		fmt.Fprintln(stdout, line)
	}

	p := message.NewPrinter(language.English)
	p.Fprintf(stdout, "%d diagnoses found\n", len(diagnoses))
}
