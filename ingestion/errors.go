// Copyright 2025 Poiesic Systems
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

package ingestion

import "errors"

var (
	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrRootRequired is returned when no snapshot root is given.
	ErrRootRequired = errors.New("snapshot root required")

	// ErrInvalidMaxAttempts is returned when max attempts is not positive.
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")

	// ErrDuplicateDocument is returned for a second document with an id
	// already seen in the same run.
	ErrDuplicateDocument = errors.New("duplicate document id")

	// ErrEmbeddingMismatch is returned when the embedder answers a batch
	// with the wrong number or width of vectors.
	ErrEmbeddingMismatch = errors.New("embedding result mismatch")
)
