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

	"google.golang.org/genai"

	"github.com/taintcheck/ffianalyzer/diagnosis"
)

// GeminiExplainer generates explanations with the Gemini GenerateContent
// API.
type GeminiExplainer struct {
	client *genai.Client
	model  string
}

// NewGeminiExplainer builds an Explainer backed by apiKey. model may be
// empty, in which case "gemini-2.5-flash" is used.
func NewGeminiExplainer(ctx context.Context, apiKey string, model string) (*GeminiExplainer, error) {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &GeminiExplainer{client: client, model: model}, nil
}

// Explain implements Explainer.
func (g *GeminiExplainer) Explain(ctx context.Context, d diagnosis.Diagnosis) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt(d)), nil)
	if err != nil {
		return "", fmt.Errorf("gemini explain: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("gemini explain: no text returned")
	}
	return text, nil
}
