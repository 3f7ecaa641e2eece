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

// Package nodeinventory implements per-node resource discovery (from a flat
// label map) and free/used state tracking: CPU cores with SMT siblings,
// typed NUMA-bound GPUs, NUMA-bound NICs with per-direction bandwidth, and
// 1 GiB hugepages.
package nodeinventory

import (
	"fmt"
	"strconv"

	klog "k8s.io/klog/v2"

	"github.com/kube-nexus/nodetopology/pkg/config"
)

const (
	labelDataVlan = "DATA_PLANE_VLAN"
	labelGateway  = "DATA_DEFAULT_GW"
)

// SMTSetting is the caller's preference for how a batch CPU allocation
// should treat SMT sibling pairs.
type SMTSetting int

const (
	// SMTEither allows single logical cores to be handed out even when
	// SMT is enabled on the node.
	SMTEither SMTSetting = iota
	// SMTRequire packs SMT sibling pairs together whenever at least two
	// cores remain to satisfy.
	SMTRequire
	// SMTForbid behaves like SMTEither for allocation purposes; the
	// distinction matters to callers that also reject split-sibling
	// scheduling policies outside this package.
	SMTForbid
)

// PodKey identifies a scheduled pod by name and namespace.
type PodKey struct {
	Pod       string
	Namespace string
}

// Node aggregates one cluster node's resource inventory and scheduled-pod
// bookkeeping.
type Node struct {
	Name    string
	Address string

	DataVlan  int
	GatewayIP string

	Sockets        int
	NUMANodes      int
	SMTEnabled     bool
	CoresPerSocket int
	SRIOVEnabled   bool

	Cores         []CPUCore
	ReservedCores []int
	GPUs          []GPU
	NICs          []NIC
	Memory        Memory

	Scheduled map[PodKey]struct{}
}

// NewNode creates an empty, named node ready for ParseLabels.
func NewNode(name string) *Node {
	return &Node{
		Name:      name,
		Scheduled: make(map[PodKey]struct{}),
	}
}

// ParseLabels builds the CPU/NIC/GPU inventory and reads the required
// top-level fields from a flat label map. It returns a non-nil error when a
// required label is missing or invalid, and the node should be ignored.
func (n *Node) ParseLabels(labels map[string]string, cfg config.Config) error {
	n.SRIOVEnabled = cfg.SRIOVEnabled

	if err := n.initCores(labels); err != nil {
		klog.Errorf("node %s: CPU discovery failed: %v", n.Name, err)
		return err
	}

	if err := n.initNICs(labels, cfg); err != nil {
		klog.Errorf("node %s: NIC discovery failed: %v", n.Name, err)
		return err
	}

	if err := n.initGPUs(labels); err != nil {
		klog.Errorf("node %s: GPU discovery failed: %v", n.Name, err)
		return err
	}

	if err := n.initMisc(labels); err != nil {
		klog.Errorf("node %s: misc label discovery failed: %v", n.Name, err)
		return err
	}

	return nil
}

func (n *Node) initMisc(labels map[string]string) error {
	vlanStr, ok := labels[labelDataVlan]
	if !ok {
		return fmt.Errorf("%w: missing %s", ErrMissingLabel, labelDataVlan)
	}
	vlan, err := strconv.Atoi(vlanStr)
	if err != nil {
		return fmt.Errorf("%w: invalid %s=%q", ErrInvalidLabel, labelDataVlan, vlanStr)
	}
	n.DataVlan = vlan

	gw, ok := labels[labelGateway]
	if !ok {
		return fmt.Errorf("%w: missing %s", ErrMissingLabel, labelGateway)
	}
	n.GatewayIP = gw

	return nil
}

// ResetResources restores the inventory to full capacity: used flags are
// cleared except for reserved cores, NIC usage and pod counts are zeroed,
// free hugepages are refilled to capacity, and the scheduled-pod set is
// cleared.
func (n *Node) ResetResources() {
	klog.V(3).Infof("node %s: resetting resources", n.Name)

	for i := range n.Cores {
		if !n.Cores[i].Reserved {
			n.Cores[i].Used = false
		}
	}

	for i := range n.GPUs {
		n.GPUs[i].Used = false
	}

	for i := range n.NICs {
		n.NICs[i].PodsUsed = 0
		n.NICs[i].RxUsedGbps = 0
		n.NICs[i].TxUsedGbps = 0
	}

	n.Memory.FreeHugepagesGB = n.Memory.TotalHugepagesGB

	for k := range n.Scheduled {
		delete(n.Scheduled, k)
	}
}

// SetAddress records the node's address, discovered by the outer loop.
func (n *Node) SetAddress(addr string) {
	klog.V(4).Infof("setting node %s address to %s", n.Name, addr)
	n.Address = addr
}

// AddScheduledPod records that a pod is bound to this node.
func (n *Node) AddScheduledPod(pod, namespace string) {
	n.Scheduled[PodKey{Pod: pod, Namespace: namespace}] = struct{}{}
}

// RemoveScheduledPod forgets a pod previously bound to this node.
func (n *Node) RemoveScheduledPod(pod, namespace string) {
	delete(n.Scheduled, PodKey{Pod: pod, Namespace: namespace})
}

// TotalPods returns the number of pods currently bound to this node.
func (n *Node) TotalPods() int {
	return len(n.Scheduled)
}

// PodPresent reports whether a pod is currently bound to this node.
func (n *Node) PodPresent(pod, namespace string) bool {
	_, ok := n.Scheduled[PodKey{Pod: pod, Namespace: namespace}]
	return ok
}

// FreeCpuCoreCount returns the number of schedulable CPU cores. With SMT
// enabled, a core only counts when both it and its sibling are free.
func (n *Node) FreeCpuCoreCount() int {
	count := 0
	for _, c := range n.Cores {
		if c.Used {
			continue
		}
		if n.SMTEnabled && c.HasSibling() && n.Cores[c.Sibling].Used {
			continue
		}
		count++
	}
	return count
}

// FreeCpuPerNuma returns, for each NUMA node, the number of schedulable
// physical CPU cores under the same both-siblings-free rule as
// FreeCpuCoreCount. Only the physical-core range is scanned, so with SMT on
// each free sibling pair counts once, not twice.
func (n *Node) FreeCpuPerNuma() []int {
	free := make([]int, n.NUMANodes)
	physical := n.Sockets * n.CoresPerSocket
	for c := 0; c < physical && c < len(n.Cores); c++ {
		core := n.Cores[c]
		if core.Used {
			continue
		}
		if n.SMTEnabled && core.HasSibling() && n.Cores[core.Sibling].Used {
			continue
		}
		free[core.Socket]++
	}
	return free
}

// FreeGpuPerNuma returns, for each NUMA node, the count of unused GPUs.
func (n *Node) FreeGpuPerNuma() []int {
	free := make([]int, n.NUMANodes)
	for _, g := range n.GPUs {
		if !g.Used {
			free[g.NUMA]++
		}
	}
	return free
}

// NICBandwidth is a (rx_free, tx_free) pair in Gbps for a single NIC.
type NICBandwidth struct {
	RxFreeGbps float64
	TxFreeGbps float64
}

// FreeNicBandwidthPerNuma returns, for each NUMA node, the free rx/tx
// bandwidth of every NIC on that node. The three knobs (usable fraction,
// SR-IOV, sharing) are read from cfg, the snapshot the caller took for the
// duration of this placement.
func (n *Node) FreeNicBandwidthPerNuma(cfg config.Config) [][]NICBandwidth {
	perNuma := make([][]NICBandwidth, n.NUMANodes)

	for _, nic := range n.NICs {
		usable := nic.SpeedGbps * cfg.NICBandwidthUsableFraction

		var bw NICBandwidth
		switch {
		case cfg.SRIOVEnabled && nic.PodsUsed == nic.NumVFs:
			bw = NICBandwidth{}
		case cfg.SharingEnabled:
			bw = NICBandwidth{
				RxFreeGbps: usable - nic.RxUsedGbps,
				TxFreeGbps: usable - nic.TxUsedGbps,
			}
		case nic.PodsUsed > 0:
			bw = NICBandwidth{}
		default:
			bw = NICBandwidth{RxFreeGbps: usable, TxFreeGbps: usable}
		}

		perNuma[nic.NUMA] = append(perNuma[nic.NUMA], bw)
	}

	return perNuma
}

// GetFreeCpuBatch returns up to n free core IDs on the given NUMA node,
// scanning cores in ascending index order. It does not mark the returned
// cores used; the caller (the placement engine) does that, so the
// allocation can be rolled back. Returning fewer than n entries signals
// insufficiency.
func (n *Node) GetFreeCpuBatch(numa, want int, smt SMTSetting) []int {
	var cpus []int
	taken := make(map[int]bool)

	for i := range n.Cores {
		if want == 0 {
			break
		}

		c := &n.Cores[i]
		if c.NUMA != numa || c.Used || taken[c.ID] {
			continue
		}

		if !n.SMTEnabled {
			cpus = append(cpus, c.ID)
			taken[c.ID] = true
			want--
			continue
		}

		sibling := &n.Cores[c.Sibling]
		if sibling.Used || taken[sibling.ID] {
			continue
		}

		if smt == SMTRequire && want >= 2 {
			cpus = append(cpus, c.ID, sibling.ID)
			taken[c.ID] = true
			taken[sibling.ID] = true
			want -= 2
		} else {
			cpus = append(cpus, c.ID)
			taken[c.ID] = true
			want--
		}
	}

	return cpus
}
