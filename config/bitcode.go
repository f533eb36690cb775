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

package config

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/taintcheck/ffianalyzer/ir"
)

// LoadBitcodePaths reads one path per line from the bitcode_paths file
// (spec §6); blank lines are skipped.
func LoadBitcodePaths(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bitcode_paths %q: %w", path, err)
	}
	defer f.Close()

	var paths []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			paths = append(paths, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan bitcode_paths %q: %w", path, err)
	}
	return paths, nil
}

// ModuleLoader parses a single LLVM bitcode file into the in-memory ir.Module
// shape. Bitcode parsing itself is out of scope (spec §1); this is the seam
// a real loader plugs into.
type ModuleLoader func(path string) (*ir.Module, error)

// LoadBitcodeModules parses every path with load concurrently, bounded by
// GOMAXPROCS, and indexes the resulting functions by symbol. Parsing is
// embarrassingly parallel I/O+CPU work that completes entirely before any
// analysis begins, so it does not threaten the single-threaded invariant
// the rest of the package relies on (spec §5).
func LoadBitcodeModules(ctx context.Context, paths []string, load ModuleLoader) (map[string]*ir.Function, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	var mu sync.Mutex
	functions := make(map[string]*ir.Function)

	for _, path := range paths {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			mod, err := load(path)
			if err != nil {
				return fmt.Errorf("load bitcode %q: %w", path, err)
			}
			mu.Lock()
			defer mu.Unlock()
			for _, fn := range mod.Functions {
				functions[fn.Symbol] = fn
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	slog.Info("loaded bitcode modules", "files", len(paths), "functions", len(functions))
	return functions, nil
}
