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


// Package openai embeds text through an OpenAI-compatible embeddings API
// using langchaingo. Ollama, LocalAI and vLLM all work; the /v1 suffix is
// added to the host when missing.
//
//	embedder, err := openai.NewEmbedder(ai.NewConfig(
//	    ai.WithEmbeddingHost("http://gpu-box:11434"),
//	    ai.WithEmbeddingModel("embeddinggemma"),
//	))
package openai
