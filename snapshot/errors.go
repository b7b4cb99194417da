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

package snapshot

import "errors"

var (
	// ErrNoSnapshot is returned when the root has no live snapshot.
	ErrNoSnapshot = errors.New("no snapshot available")

	// ErrBuildInProgress is returned when another builder holds the lock.
	ErrBuildInProgress = errors.New("snapshot build already in progress")

	// ErrIncompatibleFormat is returned for a manifest written by an
	// incompatible format version.
	ErrIncompatibleFormat = errors.New("incompatible snapshot format")

	// ErrCorruptSnapshot is returned when the stores of a snapshot disagree.
	ErrCorruptSnapshot = errors.New("snapshot stores are inconsistent")

	// ErrInvalidVersion is returned for a malformed snapshot version name.
	ErrInvalidVersion = errors.New("invalid snapshot version")
)
