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

// Memory tracks a node's 1 GiB hugepage capacity, populated out-of-band via
// SetHugepages rather than from labels.
type Memory struct {
	TotalHugepagesGB int
	FreeHugepagesGB  int
}

// SetHugepages records a node's hugepage capacity and current availability.
func (n *Node) SetHugepages(totalGB, freeGB int) {
	n.Memory.TotalHugepagesGB = totalGB
	n.Memory.FreeHugepagesGB = freeGB
}
