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


// Package config loads patternsearch settings.
//
// Settings are applied in order of increasing precedence:
//  1. Built-in defaults (NewConfig)
//  2. A YAML file, when one is given
//  3. PATTERNSEARCH_* environment variables
//
// Fields missing from the file keep their defaults. Unknown keys are an
// error so that typos do not silently fall back to defaults.
package config
