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
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/taintcheck/ffianalyzer/engine"
)

// ProjectOptions is the supplemental, optional YAML project file
// (recovered/extended from original_source/option.rs's AnalysisOption):
// analysis-wide overrides a project can commit alongside its source rather
// than pass as repeated CLI flags.
type ProjectOptions struct {
	PrecisionFilter string   `yaml:"precision_filter"`
	CratePrefixes   []string `yaml:"crate_prefixes"`
	MaxIteration    *int     `yaml:"max_iteration"`
	MaxDepth        *int     `yaml:"max_depth"`
}

// LoadProjectOptions parses a YAML project options file. A missing file is
// not an error — it simply means the project doesn't override any default
// (unlike the mandatory entry_points/bitcode_paths inputs, spec §7).
func LoadProjectOptions(path string) (*ProjectOptions, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &ProjectOptions{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read project options %q: %w", path, err)
	}

	var opts ProjectOptions
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return nil, fmt.Errorf("parse project options %q: %w", path, err)
	}
	return &opts, nil
}

// ResolvedMaxIteration returns the configured override, or engine.MaxIteration
// if unset.
func (p *ProjectOptions) ResolvedMaxIteration() int {
	if p != nil && p.MaxIteration != nil {
		return *p.MaxIteration
	}
	return engine.MaxIteration
}

// ResolvedMaxDepth returns the configured override, or engine.MaxDepth if
// unset.
func (p *ProjectOptions) ResolvedMaxDepth() int {
	if p != nil && p.MaxDepth != nil {
		return *p.MaxDepth
	}
	return engine.MaxDepth
}
