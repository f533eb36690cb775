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

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/taintcheck/ffianalyzer/diagnosis"
)

// OpenAIExplainer generates explanations with the Chat Completions API.
type OpenAIExplainer struct {
	client openai.Client
	model  openai.ChatModel
}

// NewOpenAIExplainer builds an Explainer backed by apiKey. model may be
// empty, in which case openai.ChatModelGPT4oMini is used.
func NewOpenAIExplainer(apiKey string, model openai.ChatModel) *OpenAIExplainer {
	if model == "" {
		model = openai.ChatModelGPT4oMini
	}
	return &OpenAIExplainer{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// Explain implements Explainer.
func (o *OpenAIExplainer) Explain(ctx context.Context, d diagnosis.Diagnosis) (string, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: o.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt(d)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai explain: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai explain: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}
