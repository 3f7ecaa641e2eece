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

// Package placement implements the placement engine and the reservation
// ledger that bind an abstract topology request onto a node's physical
// resources.
package placement

import (
	"time"

	klog "k8s.io/klog/v2"

	"github.com/kube-nexus/nodetopology/pkg/config"
	"github.com/kube-nexus/nodetopology/pkg/metrics"
	"github.com/kube-nexus/nodetopology/pkg/nodeinventory"
	"github.com/kube-nexus/nodetopology/pkg/topology"
)

// UsedNIC records a NIC reservation made during placement, for the
// network-attachment-definition generation the caller performs downstream.
type UsedNIC struct {
	NICIndex      int
	BandwidthGbps float64
	Direction     topology.Direction
}

// reservationTracker accumulates everything reserved during one placement
// call, so it can be unwound bit-for-bit on failure.
type reservationTracker struct {
	cpus        []int
	gpus        []int
	nics        []UsedNIC
	hugepagesGB int
}

func (t *reservationTracker) rollback(n *nodeinventory.Node) {
	for _, c := range t.cpus {
		n.Cores[c].Used = false
	}
	n.Memory.FreeHugepagesGB += t.hugepagesGB
	for _, id := range t.gpus {
		if g := n.GetGPU(id); g != nil {
			g.Used = false
		}
	}
	for _, used := range t.nics {
		if used.NICIndex < 0 || used.NICIndex >= len(n.NICs) {
			continue
		}
		nic := &n.NICs[used.NICIndex]
		switch used.Direction {
		case topology.DirRX:
			nic.RxUsedGbps = clampNonNegative(nic.RxUsedGbps - used.BandwidthGbps)
		case topology.DirTX:
			nic.TxUsedGbps = clampNonNegative(nic.TxUsedGbps - used.BandwidthGbps)
		}
	}
}

func clampNonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// SetPhysicalIdsFromMapping assigns concrete physical CPU cores, GPU device
// IDs, and NIC bindings to req according to mapping, reserving them
// atomically against node. On any shortfall, every reservation made during
// this call is rolled back and a *ShortfallError is returned; the
// inventory is left exactly as it was found.
//
// The caller is responsible for invoking node.AddScheduledPod after a
// successful call and for retaining req so that AddResourcesFromTopology
// can undo the reservation when the pod is deleted.
func SetPhysicalIdsFromMapping(node *nodeinventory.Node, mapping *topology.Mapping, req *topology.Request, cfg config.Config) ([]UsedNIC, error) {
	start := time.Now()
	tracker := &reservationTracker{}

	usedNICs, err := setPhysicalIdsFromMapping(node, mapping, req, cfg, tracker)

	elapsed := time.Since(start).Seconds()
	if err != nil {
		tracker.rollback(node)
		metrics.PlacementAttempts.WithLabelValues("shortfall").Inc()
		metrics.PlacementDuration.WithLabelValues("shortfall").Observe(elapsed)
		klog.V(3).Infof("node %s: placement failed, inventory unwound: %v", node.Name, err)
		return nil, err
	}

	metrics.PlacementAttempts.WithLabelValues("success").Inc()
	metrics.PlacementDuration.WithLabelValues("success").Observe(elapsed)
	metrics.FreeCPUCores.WithLabelValues(node.Name).Set(float64(node.FreeCpuCoreCount()))

	return usedNICs, nil
}

func setPhysicalIdsFromMapping(node *nodeinventory.Node, mapping *topology.Mapping, req *topology.Request, cfg config.Config, tracker *reservationTracker) ([]UsedNIC, error) {
	for pi := range req.ProcessingGroups {
		group := &req.ProcessingGroups[pi]
		group.VLAN = node.DataVlan

		groupNuma := mapping.GPU[pi]

		gpuCPUCount := 0
		for _, g := range group.GroupGPUs {
			gpuCPUCount += len(g.CPUCores)
		}
		groupCPUReq := len(group.ProcCores) + gpuCPUCount

		batch := node.GetFreeCpuBatch(groupNuma, groupCPUReq, group.ProcSMT)
		if len(batch) != groupCPUReq {
			return nil, shortfall(ShortfallCPUBatch,
				"group %d: requested %d cores on numa %d, got %d", pi, groupCPUReq, groupNuma, len(batch))
		}

		cidx := 0
		for gi := range group.GroupGPUs {
			gpuSlot := &group.GroupGPUs[gi]

			gdev := node.GetNextFreeGPU(groupNuma)
			if gdev == nil {
				return nil, shortfall(ShortfallGPU, "group %d: no free GPU on numa %d", pi, groupNuma)
			}

			gpuSlot.DeviceID = gdev.DeviceID
			gdev.Used = true
			tracker.gpus = append(tracker.gpus, gdev.DeviceID)

			for ci := range gpuSlot.CPUCores {
				core := &gpuSlot.CPUCores[ci]
				core.CoreID = batch[cidx]
				node.Cores[batch[cidx]].Used = true
				tracker.cpus = append(tracker.cpus, batch[cidx])
				cidx++
			}
		}

		for ci := range group.ProcCores {
			core := &group.ProcCores[ci]
			core.CoreID = batch[cidx]
			node.Cores[batch[cidx]].Used = true
			tracker.cpus = append(tracker.cpus, batch[cidx])
			cidx++

			if core.Direction == topology.DirRX || core.Direction == topology.DirTX {
				nicOrdinal := mapping.NIC[pi]
				nic := node.GetNICByOrdinal(groupNuma, nicOrdinal.Ordinal)
				if nic == nil {
					return nil, shortfall(ShortfallNIC,
						"group %d: no NIC at numa=%d ordinal=%d", pi, groupNuma, nicOrdinal.Ordinal)
				}

				nicIndex := nicIndexOf(node, nic)
				if core.Direction == topology.DirRX {
					nic.RxUsedGbps += core.NicBwGbps
				} else {
					nic.TxUsedGbps += core.NicBwGbps
				}
				tracker.nics = append(tracker.nics, UsedNIC{NICIndex: nicIndex, BandwidthGbps: core.NicBwGbps, Direction: core.Direction})

				pairing := req.GetNICGroup(core)
				if pairing == nil {
					return nil, shortfall(ShortfallNIC, "group %d: core has no NIC group entry", pi)
				}
				if node.SRIOVEnabled {
					pairing.Ifname = nic.Ifname
				} else {
					pairing.MAC = nic.MAC
				}
			}
		}

		if cidx != len(batch) {
			return nil, shortfall(ShortfallCPUBatch, "group %d: %d of %d batch entries left unconsumed", pi, len(batch)-cidx, len(batch))
		}

		helperBatch := node.GetFreeCpuBatch(groupNuma, len(group.MiscCores), group.HelperSMT)
		if len(helperBatch) != len(group.MiscCores) {
			return nil, shortfall(ShortfallHelperBatch,
				"group %d: requested %d helper cores on numa %d, got %d", pi, len(group.MiscCores), groupNuma, len(helperBatch))
		}
		for i := range group.MiscCores {
			group.MiscCores[i].CoreID = helperBatch[i]
			node.Cores[helperBatch[i]].Used = true
		}
		tracker.cpus = append(tracker.cpus, helperBatch...)
	}

	req.DataGateway = node.GatewayIP

	if req.HugepagesGB > 0 {
		node.Memory.FreeHugepagesGB -= req.HugepagesGB
		tracker.hugepagesGB = req.HugepagesGB
	}

	topNuma := mapping.CPU[len(mapping.CPU)-1]
	miscBatch := node.GetFreeCpuBatch(topNuma, len(req.MiscCores), req.MiscCoresSMT)
	if len(miscBatch) != len(req.MiscCores) {
		return nil, shortfall(ShortfallMiscBatch,
			"top-level: requested %d misc cores on numa %d, got %d", len(req.MiscCores), topNuma, len(miscBatch))
	}
	for i := range req.MiscCores {
		req.MiscCores[i].CoreID = miscBatch[i]
		node.Cores[miscBatch[i]].Used = true
	}
	tracker.cpus = append(tracker.cpus, miscBatch...)

	req.CtrlVlan.VLAN = node.DataVlan

	return append([]UsedNIC(nil), tracker.nics...), nil
}

func nicIndexOf(node *nodeinventory.Node, nic *nodeinventory.NIC) int {
	for i := range node.NICs {
		if &node.NICs[i] == nic {
			return i
		}
	}
	return -1
}
