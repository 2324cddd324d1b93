// Copyright 2026 The graphdemo Authors
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


package openai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/CSorel-Catalyte/graphdemo/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Extractor implements ai.Extractor using OpenAI-compatible chat APIs.
type Extractor struct {
	client    llms.Model
	maxTokens int
	logger    *slog.Logger
}

// newExtractor is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newExtractor(config *ai.Config) (*Extractor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.ExtractionHost),
		openai.WithToken(config.APIKey),
		openai.WithModel(config.ExtractionModel),
	)
	if err != nil {
		return nil, err
	}

	return &Extractor{
		client:    client,
		maxTokens: config.MaxTokens,
		logger:    slog.Default().With("component", "openai-extractor"),
	}, nil
}

// NewExtractor creates a new extractor using the provided configuration.
//
// Returns ai.Extractor interface to enforce abstraction.
func NewExtractor(config *ai.Config) (ai.Extractor, error) {
	return newExtractor(config)
}

// Extract sends one JSON-mode completion request and decodes the response.
// It does not retry; callers own the retry policy.
func (e *Extractor) Extract(ctx context.Context, text string) (*ai.Extraction, error) {
	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(buildSystemPrompt()),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(text),
			},
		},
	}

	response, err := e.client.GenerateContent(ctx, content,
		llms.WithTemperature(0.0),
		llms.WithJSONMode(),
		llms.WithMaxTokens(e.maxTokens))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		e.logger.Warn("failed to generate content", "err", err)
		return nil, classify(err)
	}

	if len(response.Choices) < 1 {
		return nil, fmt.Errorf("%w: %w", ai.ErrTransient, ai.ErrEmptyResponse)
	}

	responseText := repairJSON(stripCodeFences(response.Choices[0].Content))
	extraction, err := ai.ParseExtraction([]byte(responseText))
	if err != nil {
		e.logger.Warn("error parsing extraction response", "response", responseText, "err", err)
		return nil, err
	}

	e.logger.Debug("extracted candidates",
		"entities", len(extraction.Entities),
		"relations", len(extraction.Relations),
		"invalid_entities", extraction.InvalidEntities,
		"invalid_relations", extraction.InvalidRelations)
	return extraction, nil
}
