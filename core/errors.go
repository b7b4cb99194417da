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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidPatternID indicates a non-positive pattern id.
	ErrInvalidPatternID = errors.New("pattern id must be positive")

	// ErrInvalidSourceKind indicates an unknown text block kind.
	ErrInvalidSourceKind = errors.New("invalid source kind")

	// ErrInvalidPredicate indicates a Predicate failed validation.
	ErrInvalidPredicate = errors.New("invalid predicate")

	// ErrInvalidSize indicates a tool size that is not a positive finite number.
	ErrInvalidSize = errors.New("size must be a positive number of millimetres")
)
