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

// Package explain optionally enriches a diagnosis.Diagnosis with a
// free-form natural-language explanation (the Message field allowed by
// spec §7), generated by an LLM backend. This is never on the critical
// dataflow path: the engine produces correct, fully-formed diagnoses
// without it, and a Driver run that has no backend configured simply
// skips this step entirely.
package explain

import (
	"context"
	"fmt"

	"github.com/taintcheck/ffianalyzer/diagnosis"
)

// Explainer turns a Diagnosis into a short free-form explanation string
// suitable for diagnosis.Diagnosis.Message. Implementations must not
// mutate d; callers attach the returned string themselves.
type Explainer interface {
	Explain(ctx context.Context, d diagnosis.Diagnosis) (string, error)
}

// prompt renders the fixed prompt template shared by every backend: the
// diagnosis's own String() already carries every field a reader needs, so
// the backends are only asked to turn that into a sentence or two of
// plain-language context, not to re-derive the finding.
func prompt(d diagnosis.Diagnosis) string {
	return fmt.Sprintf(
		"You are annotating a static analysis report for a memory-safety "+
			"bug detector that watches the boundary between managed host "+
			"code and foreign C code. In one or two sentences, explain the "+
			"likely cause and risk of this finding for a developer who will "+
			"read it in a terminal:\n\n%s",
		d.String(),
	)
}

// ExplainAll enriches every diagnosis in ds with e, in place, by
// overwriting Message when it is empty. A failure explaining one
// diagnosis is discarded without being reported, leaves that Message
// empty, and does not affect the others; ds is returned unchanged aside
// from populated Message fields.
func ExplainAll(ctx context.Context, e Explainer, ds []diagnosis.Diagnosis) []diagnosis.Diagnosis {
	if e == nil {
		return ds
	}
	for i := range ds {
		if ds[i].Message != "" {
			continue
		}
		msg, err := e.Explain(ctx, ds[i])
		if err != nil {
			continue
		}
		ds[i].Message = msg
	}
	return ds
}
