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
	"testing"

	"github.com/kube-nexus/nodetopology/pkg/topology"
)

// TestClaimAndReleaseNICPairing_PodsUsedRoundTrip covers the pod-count leg
// of the reservation ledger: a reconciled topology bumps PodsUsed once per
// NIC pairing and releasing it brings PodsUsed back to its starting value.
func TestClaimAndReleaseNICPairing_PodsUsedRoundTrip(t *testing.T) {
	node := buildNode(2, false, 0, 10)

	rx := &topology.Core{Direction: topology.DirRX, NicBwGbps: 2}
	tx := &topology.Core{Direction: topology.DirTX, NicBwGbps: 3}
	req := &topology.Request{
		ProcessingGroups: []topology.ProcessingGroup{{
			ProcCores: []topology.Core{*rx, *tx},
		}},
		NICCorePairing: []topology.NICCorePairing{{MAC: node.NICs[0].MAC, RxCore: rx, TxCore: tx}},
	}
	req.ProcessingGroups[0].ProcCores[0].CoreID = 0
	req.ProcessingGroups[0].ProcCores[1].CoreID = 1

	RemoveResourcesFromTopology(node, req)

	if node.NICs[0].PodsUsed != 1 {
		t.Fatalf("expected pods_used=1 after RemoveResourcesFromTopology, got %d", node.NICs[0].PodsUsed)
	}
	if node.NICs[0].RxUsedGbps != 2 || node.NICs[0].TxUsedGbps != 3 {
		t.Fatalf("expected rx=2 tx=3 bandwidth reserved, got rx=%f tx=%f", node.NICs[0].RxUsedGbps, node.NICs[0].TxUsedGbps)
	}

	AddResourcesFromTopology(node, req)

	if node.NICs[0].PodsUsed != 0 {
		t.Errorf("expected pods_used=0 after AddResourcesFromTopology, got %d", node.NICs[0].PodsUsed)
	}
	if node.NICs[0].RxUsedGbps != 0 || node.NICs[0].TxUsedGbps != 0 {
		t.Errorf("expected bandwidth released to 0, got rx=%f tx=%f", node.NICs[0].RxUsedGbps, node.NICs[0].TxUsedGbps)
	}
}

// TestReleaseNICPairing_DriftClampsAtZero: releasing more bandwidth than
// was ever reserved must clamp at 0 rather than go negative, and must not
// panic.
func TestReleaseNICPairing_DriftClampsAtZero(t *testing.T) {
	node := buildNode(2, false, 0, 10)

	rx := &topology.Core{Direction: topology.DirRX, NicBwGbps: 5}
	pairing := topology.NICCorePairing{MAC: node.NICs[0].MAC, RxCore: rx}

	releaseNICPairing(node, &pairing)

	if node.NICs[0].RxUsedGbps != 0 {
		t.Errorf("expected rx bandwidth clamped at 0, got %f", node.NICs[0].RxUsedGbps)
	}
	if node.NICs[0].PodsUsed != 0 {
		t.Errorf("expected pods_used to stay clamped at 0 on drift, got %d", node.NICs[0].PodsUsed)
	}
}

// TestClaimPodNICResources_OnePerUsedEntry: one increment per used-NIC
// entry returned from SetPhysicalIdsFromMapping, so a group binding both
// an rx and a tx core to the same physical NIC counts as two claims on it.
func TestClaimPodNICResources_OnePerUsedEntry(t *testing.T) {
	node := buildNode(2, false, 0, 10)
	used := []UsedNIC{
		{NICIndex: 0, BandwidthGbps: 1, Direction: topology.DirRX},
		{NICIndex: 0, BandwidthGbps: 1, Direction: topology.DirTX},
	}

	ClaimPodNICResources(node, used)

	if node.NICs[0].PodsUsed != 2 {
		t.Errorf("expected pods_used=2 after claiming two entries on the same NIC, got %d", node.NICs[0].PodsUsed)
	}
}
