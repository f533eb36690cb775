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
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/taintcheck/ffianalyzer/knownnames"
)

// knownNamesSchema is the JSON Schema an optional override file must
// validate against before it is allowed to mutate knownnames.Default():
// three string arrays, each optional.
const knownNamesSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"properties": {
		"alloc_sources":    {"type": "array", "items": {"type": "string"}},
		"free_sinks":       {"type": "array", "items": {"type": "string"}},
		"ignore_substrings":{"type": "array", "items": {"type": "string"}}
	},
	"additionalProperties": false
}`

type knownNamesOverride struct {
	AllocSources     []string `json:"alloc_sources"`
	FreeSinks        []string `json:"free_sinks"`
	IgnoreSubstrings []string `json:"ignore_substrings"`
}

// LoadKnownNamesOverride reads and validates an optional JSON override file,
// then layers it on top of knownnames.Default() (never replacing the
// defaults, only extending them, per spec §4.3). A missing file yields the
// unmodified default catalogue.
func LoadKnownNamesOverride(path string) (*knownnames.Catalogue, error) {
	catalogue := knownnames.Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return catalogue, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read known-names override %q: %w", path, err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("known_names_override.schema.json", strings.NewReader(knownNamesSchema)); err != nil {
		return nil, fmt.Errorf("compile known-names override schema: %w", err)
	}
	schema, err := compiler.Compile("known_names_override.schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile known-names override schema: %w", err)
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse known-names override %q: %w", path, err)
	}
	if err := schema.Validate(raw); err != nil {
		return nil, fmt.Errorf("known-names override %q failed schema validation: %w", path, err)
	}

	var override knownNamesOverride
	if err := json.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("decode known-names override %q: %w", path, err)
	}
	for _, name := range override.AllocSources {
		catalogue.AddAllocSource(name)
	}
	for _, name := range override.FreeSinks {
		catalogue.AddFreeSink(name)
	}
	for _, substr := range override.IgnoreSubstrings {
		catalogue.AddIgnoreSubstring(substr)
	}
	return catalogue, nil
}
