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

// Package config loads the analyzer's on-disk inputs: the mandatory
// entry_points/ directory and bitcode_paths file (spec §6), plus the
// supplemental, optional YAML project file and JSON known-names override
// recovered from original_source/option.rs and extended for this port.
package config

import (
	"fmt"

	"github.com/taintcheck/ffianalyzer/diagnosis"
	"github.com/taintcheck/ffianalyzer/knownnames"
)

// AnalysisOption is the fully resolved set of inputs a single run is
// configured with, mirroring original_source/option.rs's AnalysisOption.
type AnalysisOption struct {
	CrateNames         []string
	EntryPoints        []string
	FFIFunctions       []string
	BitcodeFilePaths   []string
	PrecisionThreshold diagnosis.Severity
	MaxIteration       int
	MaxDepth           int
	Catalogue          *knownnames.Catalogue
}

// ParsePrecisionFilter maps the CLI/YAML spelling ("low"/"mid"/"high") to a
// Severity threshold. The empty string means Low; anything unrecognized
// returns Low together with an error.
func ParsePrecisionFilter(s string) (diagnosis.Severity, error) {
	switch s {
	case "", "low":
		return diagnosis.Low, nil
	case "mid":
		return diagnosis.Medium, nil
	case "high":
		return diagnosis.High, nil
	default:
		return diagnosis.Low, fmt.Errorf("unrecognized precision filter %q", s)
	}
}
