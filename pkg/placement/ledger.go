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

import (
	klog "k8s.io/klog/v2"

	"github.com/kube-nexus/nodetopology/pkg/metrics"
	"github.com/kube-nexus/nodetopology/pkg/nodeinventory"
	"github.com/kube-nexus/nodetopology/pkg/topology"
)

// RemoveResourcesFromTopology marks every resource a previously-placed req
// touches as used, without going through SetPhysicalIdsFromMapping. This is
// how the reservation ledger is rebuilt from externally-observed
// already-running pods on startup or after a watch resync. A resource
// already marked used is a drift anomaly: it is logged and counted, not
// treated as fatal, since the external observation is assumed authoritative
// over the in-memory ledger.
func RemoveResourcesFromTopology(node *nodeinventory.Node, req *topology.Request) {
	for pi := range req.ProcessingGroups {
		group := &req.ProcessingGroups[pi]

		for gi := range group.GroupGPUs {
			gpu := &group.GroupGPUs[gi]
			markGPUUsed(node, gpu.DeviceID)
			for ci := range gpu.CPUCores {
				markCoreUsed(node, gpu.CPUCores[ci].CoreID)
			}
		}
		for ci := range group.ProcCores {
			markCoreUsed(node, group.ProcCores[ci].CoreID)
		}
		for ci := range group.MiscCores {
			markCoreUsed(node, group.MiscCores[ci].CoreID)
		}
	}

	for _, c := range req.MiscCores {
		markCoreUsed(node, c.CoreID)
	}

	for pi := range req.NICCorePairing {
		claimNICPairing(node, &req.NICCorePairing[pi])
	}

	if req.HugepagesGB > 0 {
		node.Memory.FreeHugepagesGB -= req.HugepagesGB
	}

	metrics.FreeCPUCores.WithLabelValues(node.Name).Set(float64(node.FreeCpuCoreCount()))
}

// AddResourcesFromTopology is the inverse of RemoveResourcesFromTopology: it
// releases every resource a previously-placed req touches, as when a pod
// bound to this reservation terminates. A resource already marked free is a
// drift anomaly and is logged and counted rather than treated as fatal.
func AddResourcesFromTopology(node *nodeinventory.Node, req *topology.Request) {
	for pi := range req.ProcessingGroups {
		group := &req.ProcessingGroups[pi]

		for gi := range group.GroupGPUs {
			gpu := &group.GroupGPUs[gi]
			markGPUFree(node, gpu.DeviceID)
			for ci := range gpu.CPUCores {
				markCoreFree(node, gpu.CPUCores[ci].CoreID)
			}
		}
		for ci := range group.ProcCores {
			markCoreFree(node, group.ProcCores[ci].CoreID)
		}
		for ci := range group.MiscCores {
			markCoreFree(node, group.MiscCores[ci].CoreID)
		}
	}

	for _, c := range req.MiscCores {
		markCoreFree(node, c.CoreID)
	}

	for pi := range req.NICCorePairing {
		releaseNICPairing(node, &req.NICCorePairing[pi])
	}

	if req.HugepagesGB > 0 {
		node.Memory.FreeHugepagesGB += req.HugepagesGB
	}

	metrics.FreeCPUCores.WithLabelValues(node.Name).Set(float64(node.FreeCpuCoreCount()))
}

func markCoreUsed(node *nodeinventory.Node, id int) {
	if id < 0 || id >= len(node.Cores) {
		return
	}
	core := &node.Cores[id]
	if core.Used {
		klog.Errorf("node %s: ledger drift, core %d already marked used", node.Name, id)
		metrics.LedgerDrift.WithLabelValues("cpu_already_used").Inc()
		return
	}
	core.Used = true
}

func markCoreFree(node *nodeinventory.Node, id int) {
	if id < 0 || id >= len(node.Cores) {
		return
	}
	core := &node.Cores[id]
	if !core.Used {
		klog.Errorf("node %s: ledger drift, core %d already marked free", node.Name, id)
		metrics.LedgerDrift.WithLabelValues("cpu_already_free").Inc()
		return
	}
	core.Used = false
}

func markGPUUsed(node *nodeinventory.Node, deviceID int) {
	gpu := node.GetGPU(deviceID)
	if gpu == nil {
		return
	}
	if gpu.Used {
		klog.Errorf("node %s: ledger drift, gpu %d already marked used", node.Name, deviceID)
		metrics.LedgerDrift.WithLabelValues("gpu_already_used").Inc()
		return
	}
	gpu.Used = true
}

func markGPUFree(node *nodeinventory.Node, deviceID int) {
	gpu := node.GetGPU(deviceID)
	if gpu == nil {
		return
	}
	if !gpu.Used {
		klog.Errorf("node %s: ledger drift, gpu %d already marked free", node.Name, deviceID)
		metrics.LedgerDrift.WithLabelValues("gpu_already_free").Inc()
		return
	}
	gpu.Used = false
}

// claimNICPairing applies one NIC/core pairing's rx/tx bandwidth and bumps
// the NIC's pod count. Both directions of a pairing are applied together
// and the interface is counted as gaining one pod.
func claimNICPairing(node *nodeinventory.Node, pairing *topology.NICCorePairing) {
	nic := resolveNICPairing(node, pairing)
	if nic == nil {
		klog.Errorf("node %s: ledger drift, cannot find NIC for pairing mac=%s ifname=%s", node.Name, pairing.MAC, pairing.Ifname)
		return
	}
	if pairing.RxCore != nil {
		nic.RxUsedGbps += pairing.RxCore.NicBwGbps
	}
	if pairing.TxCore != nil {
		nic.TxUsedGbps += pairing.TxCore.NicBwGbps
	}
	nic.PodsUsed++
}

// releaseNICPairing is the inverse of claimNICPairing.
func releaseNICPairing(node *nodeinventory.Node, pairing *topology.NICCorePairing) {
	nic := resolveNICPairing(node, pairing)
	if nic == nil {
		klog.Errorf("node %s: ledger drift, cannot find NIC for pairing mac=%s ifname=%s", node.Name, pairing.MAC, pairing.Ifname)
		return
	}
	if pairing.RxCore != nil {
		if nic.RxUsedGbps < pairing.RxCore.NicBwGbps {
			klog.Errorf("node %s: ledger drift, nic rx bandwidth underflow on %s", node.Name, nic.Ifname)
			metrics.LedgerDrift.WithLabelValues("nic_bandwidth_underflow").Inc()
			nic.RxUsedGbps = 0
		} else {
			nic.RxUsedGbps -= pairing.RxCore.NicBwGbps
		}
	}
	if pairing.TxCore != nil {
		if nic.TxUsedGbps < pairing.TxCore.NicBwGbps {
			klog.Errorf("node %s: ledger drift, nic tx bandwidth underflow on %s", node.Name, nic.Ifname)
			metrics.LedgerDrift.WithLabelValues("nic_bandwidth_underflow").Inc()
			nic.TxUsedGbps = 0
		} else {
			nic.TxUsedGbps -= pairing.TxCore.NicBwGbps
		}
	}
	if nic.PodsUsed == 0 {
		klog.Errorf("node %s: ledger drift, nic %s pod count already zero", node.Name, nic.Ifname)
		metrics.LedgerDrift.WithLabelValues("nic_pods_used_underflow").Inc()
		return
	}
	nic.PodsUsed--
}

// resolveNICPairing finds the physical NIC a pairing was bound to. The
// pairing carries either a MAC (the common case) or an ifname (under
// SR-IOV, where the outer matcher routes by ifname instead).
func resolveNICPairing(node *nodeinventory.Node, pairing *topology.NICCorePairing) *nodeinventory.NIC {
	if node.SRIOVEnabled && pairing.Ifname != "" {
		return node.GetNICFromIfname(pairing.Ifname)
	}
	return node.GetNIC(pairing.MAC)
}

// ClaimPodNICResources bumps the pod-use count of every NIC touched by a
// successful SetPhysicalIdsFromMapping call. The caller invokes this once a
// placement is committed, alongside node.AddScheduledPod, using the
// UsedNIC list SetPhysicalIdsFromMapping returned. One increment is made
// per used-NIC entry, so a group whose rx and tx cores share one physical
// NIC counts as two claims on it.
func ClaimPodNICResources(node *nodeinventory.Node, used []UsedNIC) {
	for _, u := range used {
		if u.NICIndex < 0 || u.NICIndex >= len(node.NICs) {
			continue
		}
		node.NICs[u.NICIndex].PodsUsed++
	}
}
