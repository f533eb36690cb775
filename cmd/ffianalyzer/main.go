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

// Command ffianalyzer is the CLI surface described in spec §6: it loads
// the mandatory entry_points/ directory and bitcode_paths file from
// --workdir, layers any --entry/--bitcode flags on top, runs the
// interprocedural analysis, and prints the consolidated diagnoses.
package main

import (
	"os"
)

const (
	exitSuccess     = 0
	exitConfigError = 1
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
