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

package search

import "errors"

var (
	// ErrQueryNormalizerRequired is returned when a query normalizer is not provided.
	ErrQueryNormalizerRequired = errors.New("query normalizer required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrFilterIndexRequired is returned when a filter index is not provided.
	ErrFilterIndexRequired = errors.New("filter index required")

	// ErrAddressIndexRequired is returned when an address index is not provided.
	ErrAddressIndexRequired = errors.New("address index required")

	// ErrMatrixRequired is returned when an embedding matrix is not provided.
	ErrMatrixRequired = errors.New("embedding matrix required")

	// ErrEmptyQuery is returned when a query normalizes to nothing.
	ErrEmptyQuery = errors.New("query is empty")

	// ErrEmbeddingUnavailable is returned when the query cannot be embedded.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")

	// ErrUnfilteredPredicate is returned when an unfiltered request also
	// carries structured constraints.
	ErrUnfilteredPredicate = errors.New("unfiltered search cannot take a filter")

	// ErrDimensionMismatch is returned when the query embedding width
	// differs from the matrix width.
	ErrDimensionMismatch = errors.New("query embedding dimension mismatch")
)
