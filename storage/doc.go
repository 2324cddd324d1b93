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


// Package storage defines the persistence interfaces for the knowledge graph.
//
// Repository interfaces decouple the graph logic from the backend. The badger
// subpackage implements every interface over one embedded database; the neo4j
// subpackage implements GraphStore as an optional mirror for graph queries.
//
// # Architecture
//
//   - EntityRepository: canonical entities and their lexical index
//   - RelationRepository: relationships keyed by (from, to, predicate)
//   - VectorIndex: per-type entity vectors with cosine search
//   - GraphStore: neighbor expansion over entities and relationships
//   - CheckpointRepository: progress of resumable maintenance jobs
//
// # Usage
//
//	stores, err := badger.OpenStores("/path/to/db", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer stores.Close()
//
// Use in tests with in-memory storage:
//
//	stores, err := badger.NewMemoryStores()
//
// # Thread Safety
//
// All implementations must be safe for concurrent use.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation
// and timeout support.
package storage
