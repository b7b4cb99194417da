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


package storage

import "errors"

var (
	// ErrStorageClosed indicates that the storage backend is closed.
	ErrStorageClosed = errors.New("storage is closed")

	// ErrReadOnly indicates a write against a store opened for serving.
	ErrReadOnly = errors.New("storage is read-only")

	// ErrInvalidRows indicates row ids that are not dense and 0-based.
	ErrInvalidRows = errors.New("row ids must be dense and start at 0")

	// ErrSerializationFailed wraps a stored value that cannot be decoded.
	ErrSerializationFailed = errors.New("cannot decode stored value")

	// ErrTruncatedData indicates a stored value shorter than its encoding
	// claims.
	ErrTruncatedData = errors.New("stored value is truncated")
)
