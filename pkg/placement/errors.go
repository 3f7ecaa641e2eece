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

package placement

import "fmt"

// ShortfallKind classifies why SetPhysicalIdsFromMapping could not satisfy
// the mapping it was given. Earlier designs distinguished a hard exception
// path (mid-group faults) from a soft nil-return path (helper/top-level
// shortfalls); both unwind identically, so this package unifies them into
// one error type.
type ShortfallKind string

const (
	ShortfallCPUBatch    ShortfallKind = "cpu_batch"
	ShortfallGPU         ShortfallKind = "gpu"
	ShortfallNIC         ShortfallKind = "nic"
	ShortfallHelperBatch ShortfallKind = "helper_batch"
	ShortfallMiscBatch   ShortfallKind = "misc_batch"
)

// ShortfallError reports a placement shortfall: the free-resource views the
// outer matcher used to produce its mapping no longer hold, usually due to
// a race with a concurrent request against the same node.
type ShortfallError struct {
	Kind   ShortfallKind
	Detail string
}

func (e *ShortfallError) Error() string {
	return fmt.Sprintf("placement shortfall (%s): %s", e.Kind, e.Detail)
}

func shortfall(kind ShortfallKind, format string, args ...any) *ShortfallError {
	return &ShortfallError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}
