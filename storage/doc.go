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


// Package storage defines the persistence abstractions for the chunk
// address index.
//
// The address index is the bijection between embedding matrix rows and
// (pattern, source kind, order) chunk keys, plus the reverse mapping from a
// pattern to all of its rows. It is written once per snapshot build and
// opened read-only for serving.
//
// # Constructor Return Type Pattern
//
// Public constructors return interfaces to keep callers decoupled from the
// backend:
//
//	idx, err := badger.OpenAddressIndex(path, true) // returns storage.AddressStore
//
// Internal constructors may return concrete types.
//
// # Usage
//
// Use in tests with in-memory storage:
//
//	idx, err := badger.NewMemoryAddressIndex()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer idx.Close()
//
// # Thread Safety
//
// All implementations must be safe for concurrent readers.
package storage
