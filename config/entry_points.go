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
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// EntryPoints is the parsed content of an entry_points/ directory: the
// crate names found as its immediate subdirectories, and every Entry/FFI
// symbol declared in the files beneath them.
type EntryPoints struct {
	CrateNames   []string
	Entries      []string
	FFIFunctions []string
}

// LoadEntryPoints walks dir exactly as original_source/option.rs's
// AnalysisOption::default does: a depth-1 walk collects crate names (the
// directory's immediate subdirectories), and a full walk collects every
// "Entry: <symbol>" / "FFI: <symbol>" line from every file beneath dir.
func LoadEntryPoints(dir string) (EntryPoints, error) {
	var result EntryPoints

	entries, err := os.ReadDir(dir)
	if err != nil {
		return result, fmt.Errorf("read entry_points directory %q: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			result.CrateNames = append(result.CrateNames, e.Name())
		}
	}
	sort.Strings(result.CrateNames)

	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		return scanEntryFile(path, &result)
	})
	if err != nil {
		return result, fmt.Errorf("walk entry_points directory %q: %w", dir, err)
	}

	slog.Info("loaded entry points",
		"crates", result.CrateNames,
		"entries", len(result.Entries),
		"ffi_functions", len(result.FFIFunctions))
	return result, nil
}

func scanEntryFile(path string, result *EntryPoints) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open entry file %q: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "Entry: "):
			result.Entries = append(result.Entries, strings.TrimPrefix(line, "Entry: "))
		case strings.HasPrefix(line, "FFI: "):
			result.FFIFunctions = append(result.FFIFunctions, strings.TrimPrefix(line, "FFI: "))
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan entry file %q: %w", path, err)
	}
	return nil
}
