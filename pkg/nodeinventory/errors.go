/*
Copyright 2026 KubeNexus Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package nodeinventory

import "errors"

// ErrMissingLabel and ErrInvalidLabel classify discovery failures. Callers
// that only need a boolean result can do `ok := ParseLabels(...) == nil`;
// callers that want to distinguish a missing label from a malformed one can
// use errors.Is.
var (
	ErrMissingLabel = errors.New("nodeinventory: required label missing")
	ErrInvalidLabel = errors.New("nodeinventory: label present but invalid")
)
