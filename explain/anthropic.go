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

package explain

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/taintcheck/ffianalyzer/diagnosis"
)

// AnthropicExplainer generates explanations with the Claude Messages API.
type AnthropicExplainer struct {
	client anthropic.Client
	model  anthropic.Model
}

// NewAnthropicExplainer builds an Explainer backed by apiKey. model may be
// empty, in which case anthropic.ModelClaudeHaiku4_5 is used — explanation
// text is a low-stakes, latency-sensitive enrichment, not the analysis
// itself, so the cheapest capable model is the sane default.
func NewAnthropicExplainer(apiKey string, model anthropic.Model) *AnthropicExplainer {
	if model == "" {
		model = anthropic.ModelClaudeHaiku4_5
	}
	return &AnthropicExplainer{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// Explain implements Explainer.
func (a *AnthropicExplainer) Explain(ctx context.Context, d diagnosis.Diagnosis) (string, error) {
	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: 256,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt(d))),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic explain: %w", err)
	}
	for _, block := range msg.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("anthropic explain: no text content returned")
}
