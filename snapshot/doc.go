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

// Package snapshot manages versioned, immutable index snapshots on disk.
//
// Layout under a root directory:
//
//	<root>/CURRENT                        name of the live snapshot
//	<root>/.build.lock                    held by the single active builder
//	<root>/snapshots/<version>/manifest.json
//	<root>/snapshots/<version>/address/   chunk address index (badger)
//	<root>/snapshots/<version>/filter.*   structured filter index
//	<root>/snapshots/<version>/vectors.f32
//
// A Builder writes a new snapshot directory and only then replaces CURRENT
// atomically, so readers never observe a partially built snapshot.
package snapshot
