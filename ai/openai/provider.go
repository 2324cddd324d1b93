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
	"fmt"
	"log/slog"

	"github.com/CSorel-Catalyte/graphdemo/ai"
)

// Provider implements ai.AIProvider using OpenAI-compatible services.
// It manages embedder and extractor instances.
type Provider struct {
	config    *ai.Config
	embedder  *Embedder
	extractor *Extractor
	logger    *slog.Logger
}

// NewProvider builds the embedding and extraction clients described by config.
// Both clients talk to OpenAI-compatible endpoints, which may be different hosts.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	embedder, err := newEmbedder(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	extractor, err := newExtractor(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create extractor: %w", err)
	}

	logger := slog.Default().With("component", "openai-provider")
	logger.Debug("created provider",
		"embedding_host", config.EmbeddingHost, "embedding_model", config.EmbeddingModel,
		"extraction_host", config.ExtractionHost, "extraction_model", config.ExtractionModel)

	return &Provider{
		config:    config,
		embedder:  embedder,
		extractor: extractor,
		logger:    logger,
	}, nil
}

// Embedder returns the text embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Extractor returns the entity and relation extraction service.
func (p *Provider) Extractor() ai.Extractor {
	return p.extractor
}

// Close releases resources held by the provider.
// The HTTP clients hold no connections that outlive a request.
func (p *Provider) Close() error {
	p.logger.Debug("closing OpenAI provider")
	return nil
}
