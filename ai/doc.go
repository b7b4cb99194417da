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


// Package ai wraps the embedding model that places pattern chunks and
// search queries in one vector space.
//
// Embeddings leave this package unnormalized. Callers that compare them
// by dot product apply NormalizeVector first; the snapshot matrix stores
// unit rows and query vectors are scaled the same way before scoring.
//
// Implementations live in subpackages:
//
//   - ai/openai talks to any OpenAI-compatible /v1/embeddings endpoint
//   - ai/mock holds deterministic embedders for tests
//
// NewCachedEmbedder puts an LRU in front of any Embedder so repeated
// queries skip the model round trip:
//
//	cfg := ai.NewConfig(ai.WithEmbeddingModel("nomic-embed-text"))
//	base, err := openai.NewEmbedder(cfg)
//	if err != nil {
//	    return err
//	}
//	embedder, err := ai.NewCachedEmbedder(base, cfg.CacheSize)
package ai
