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


// Package search finds entities of the knowledge graph by free-text query.
//
// The Searcher combines three signals:
//   - Semantic search over entity embeddings
//   - Lexical lookup of the query as a name, alias or acronym
//   - Verbatim keyword matching with stop-word filtering
//
// Entities found by both the semantic and lexical stages rank highest.
// When the embedder is unavailable the search falls back to lexical matches.
package search
