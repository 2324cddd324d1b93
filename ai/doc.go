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


// Package ai provides abstractions for the language-model services used by graphdemo.
//
// The package defines three interfaces:
//
//   - Embedder: Generates vector embeddings from text
//   - Extractor: Extracts candidate entities and relations from text
//   - AIProvider: Aggregates AI services for convenient initialization
//
// Model output is untrusted. ParseExtraction decodes a response, validates
// each item with struct tags and counts the items it drops. A response that
// is not an extraction object yields ErrSchemaInvalid, which callers must
// not retry. IsTransient classifies errors that are worth retrying.
//
// # Implementation Packages
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// Public constructors in ai/openai return interface types. Mock constructors
// return concrete types so tests can inject behavior and count calls.
//
// # Usage Example
//
//	config := ai.DefaultConfig()
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	extraction, err := provider.Extractor().Extract(ctx, "LoRA is used by Hugging Face PEFT.")
package ai
