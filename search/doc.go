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

// Package search implements hybrid retrieval over knitting and crochet
// patterns.
//
// A search runs these stages in order:
//   - normalize and embed the query
//   - resolve the structured predicate to candidate pattern ids
//   - expand candidate patterns to their chunk rows
//   - score candidate rows by dot product with the query and keep the top rows
//   - collapse to the best row per pattern
//   - rank patterns by score and cut to the requested size
//
// The filter stage fails closed: if the filter index errors or times out,
// the search returns no results and marks the response Degraded instead of
// falling back to unfiltered semantic search. Embedding failures abort the
// search with ErrEmbeddingUnavailable.
package search
