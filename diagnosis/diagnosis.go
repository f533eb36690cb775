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

// Package diagnosis defines the bug report the engine emits when a taint
// transfer function observes a suspicious memory state at a free sink, an
// FFI boundary, or an indirect call.
package diagnosis

import (
	"fmt"
	"strings"
)

// BugKind names one of the three memory-safety bug classes this analyzer
// looks for. A single Diagnosis can report more than one, e.g. a free sink
// receiving a Tainted argument is simultaneously a potential use-after-free
// and double-free.
type BugKind int

const (
	UseAfterFree BugKind = iota
	DoubleFree
	MemoryLeakage
)

func (k BugKind) String() string {
	switch k {
	case UseAfterFree:
		return "Use After Free"
	case DoubleFree:
		return "Double Free"
	case MemoryLeakage:
		return "Memory Leakage"
	default:
		return "Unknown"
	}
}

// Severity ranks how confident the analyzer is that a Diagnosis reflects a
// real bug. Ordered low to high so Severity values compare with <.
type Severity int

const (
	Low Severity = iota
	Medium
	High
)

func (s Severity) String() string {
	switch s {
	case Low:
		return "Low"
	case Medium:
		return "Medium"
	case High:
		return "High"
	default:
		return "Unknown"
	}
}

// Diagnosis is one reported finding, scoped to the function it was found
// in. FFIKnown records whether the call site that triggered this finding
// crossed into a foreign function whose LLVM IR is present in the module
// (true) or was only declared, with no body to analyze further (false) —
// the latter is a weaker signal since the analyzer could not verify what
// the foreign side actually does with the argument.
type Diagnosis struct {
	Severity     Severity
	Bugs         []BugKind
	Message      string
	FFIKnown     bool
	FunctionName string
}

// New builds a Diagnosis. message may be empty.
func New(ffiKnown bool, bugs []BugKind, message string, severity Severity, functionName string) Diagnosis {
	return Diagnosis{
		Severity:     severity,
		Bugs:         bugs,
		Message:      message,
		FFIKnown:     ffiKnown,
		FunctionName: functionName,
	}
}

func (d Diagnosis) String() string {
	var b strings.Builder
	if d.FFIKnown {
		b.WriteString("LLVM IR of C code is known. Possible bugs: ")
	} else {
		b.WriteString("LLVM IR of C code is unknown. Possible bugs: ")
	}
	for _, bug := range d.Bugs {
		b.WriteString(bug.String())
		b.WriteString(", ")
	}
	if d.Message != "" {
		b.WriteString(d.Message)
	}
	return fmt.Sprintf("Bug info: %s, seriousness: %s, function: %s", b.String(), d.Severity, d.FunctionName)
}
