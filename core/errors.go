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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidEntity indicates an Entity failed validation.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrInvalidRelationship indicates a Relationship failed validation.
	ErrInvalidRelationship = errors.New("invalid relationship")

	// ErrEmptyEntityName indicates the entity Name field is empty.
	ErrEmptyEntityName = errors.New("entity name cannot be empty")

	// ErrInvalidEntityType indicates an entity type outside the closed set.
	ErrInvalidEntityType = errors.New("invalid entity type")

	// ErrInvalidPredicate indicates a predicate outside the closed set.
	ErrInvalidPredicate = errors.New("invalid predicate")

	// ErrSalienceOutOfRange indicates a salience outside [0,1].
	ErrSalienceOutOfRange = errors.New("salience must be between 0 and 1")

	// ErrConfidenceOutOfRange indicates a confidence outside [0,1].
	ErrConfidenceOutOfRange = errors.New("confidence must be between 0 and 1")

	// ErrMissingEvidence indicates a relationship without any evidence item.
	ErrMissingEvidence = errors.New("relationship requires evidence")
)
