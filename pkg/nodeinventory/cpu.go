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

import (
	"fmt"
	"strconv"

	klog "k8s.io/klog/v2"

	"github.com/kube-nexus/nodetopology/pkg/cpurange"
)

const (
	labelNumSockets = "feature.node.kubernetes.io/nfd-extras-cpu.num_sockets"
	labelNumCores   = "feature.node.kubernetes.io/nfd-extras-cpu.num_cores"
	labelSMT        = "feature.node.kubernetes.io/cpu-hardware_multithreading"
	labelIsolCPUs   = "feature.node.kubernetes.io/nfd-extras-cpu.isolcpus"

	noSibling = -1
)

// CPUCore is a single logical CPU core in a node's inventory.
type CPUCore struct {
	ID       int
	Socket   int
	NUMA     int
	Sibling  int // noSibling when there is none (SMT disabled)
	Used     bool
	Reserved bool
}

// HasSibling reports whether this core has an SMT sibling.
func (c CPUCore) HasSibling() bool {
	return c.Sibling != noSibling
}

// initCores builds the CPU inventory from node labels. Returns an error
// (node ignored) when the socket or core-count label is missing.
func (n *Node) initCores(labels map[string]string) error {
	socketsStr, haveSockets := labels[labelNumSockets]
	coresStr, haveCores := labels[labelNumCores]
	if !haveSockets || !haveCores {
		return fmt.Errorf("%w: missing %s or %s", ErrMissingLabel, labelNumSockets, labelNumCores)
	}

	sockets, err := strconv.Atoi(socketsStr)
	if err != nil || sockets <= 0 {
		return fmt.Errorf("%w: invalid %s=%q", ErrInvalidLabel, labelNumSockets, socketsStr)
	}

	totalCores, err := strconv.Atoi(coresStr)
	if err != nil || totalCores <= 0 {
		return fmt.Errorf("%w: invalid %s=%q", ErrInvalidLabel, labelNumCores, coresStr)
	}

	if totalCores%sockets != 0 {
		return fmt.Errorf("%w: %d cores does not divide evenly across %d sockets", ErrInvalidLabel, totalCores, sockets)
	}

	_, smtEnabled := labels[labelSMT]

	n.Sockets = sockets
	n.NUMANodes = sockets
	n.SMTEnabled = smtEnabled
	n.CoresPerSocket = totalCores / sockets

	logicalCores := totalCores
	if smtEnabled {
		logicalCores = totalCores * 2
	}

	n.Cores = make([]CPUCore, logicalCores)
	for c := 0; c < logicalCores; c++ {
		socket := (c % totalCores) / n.CoresPerSocket

		sibling := noSibling
		if smtEnabled {
			if c < totalCores {
				sibling = c + totalCores
			} else {
				sibling = c - totalCores
			}
		}

		n.Cores[c] = CPUCore{
			ID:      c,
			Socket:  socket,
			NUMA:    socket,
			Sibling: sibling,
		}
	}

	if isolStr, ok := labels[labelIsolCPUs]; ok {
		isolated, err := cpurange.ParseJoined(isolStr, "_")
		if err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidLabel, err)
		}
		n.markOSReservedCores(isolated, totalCores)
	} else {
		klog.V(4).Infof("node %s: no isolcpus label found, all cores schedulable", n.Name)
	}

	return nil
}

// markOSReservedCores marks every core NOT present in the isolated set as
// OS-reserved: permanently used, never released by ResetResources. isolcpus
// values are physical core numbers in [0, totalCores); both logical threads
// of a reserved physical core are marked, since the kernel isolates a
// physical core's threads together.
func (n *Node) markOSReservedCores(isolated []int, totalCores int) {
	isolSet := make(map[int]bool, len(isolated))
	for _, c := range isolated {
		isolSet[c] = true
	}

	n.ReservedCores = n.ReservedCores[:0]
	for i := range n.Cores {
		physID := n.Cores[i].ID % totalCores
		if !isolSet[physID] {
			n.Cores[i].Used = true
			n.Cores[i].Reserved = true
			n.ReservedCores = append(n.ReservedCores, n.Cores[i].ID)
		}
	}
}
