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
	"sort"
	"strconv"
	"strings"

	klog "k8s.io/klog/v2"

	"github.com/kube-nexus/nodetopology/pkg/config"
)

const labelNICPrefix = "feature.node.kubernetes.io/nfd-extras-nic"

// NIC is a single network interface in a node's inventory.
type NIC struct {
	Ifname      string
	MAC         string
	Vendor      string
	SpeedGbps   float64
	NUMA        int
	NumVFs      int
	PodsUsed    int
	RxUsedGbps  float64
	TxUsedGbps  float64
	NUMAOrdinal int
}

// CanonicalizeMAC removes any ':' separators, uppercases the hex digits, and
// inserts ':' every two characters, so a colon-free MAC as it appears in an
// NFD label key becomes "AA:BB:CC:DD:EE:FF". It is idempotent:
// CanonicalizeMAC(CanonicalizeMAC(x)) == CanonicalizeMAC(x).
func CanonicalizeMAC(mac string) string {
	mac = strings.ToUpper(strings.ReplaceAll(mac, ":", ""))

	var b strings.Builder
	for i := 0; i < len(mac); i += 2 {
		if i > 0 {
			b.WriteByte(':')
		}
		end := i + 2
		if end > len(mac) {
			end = len(mac)
		}
		b.WriteString(mac[i:end])
	}
	return b.String()
}

// initNICs decodes NIC labels. Keys are processed in sorted order so that
// per-NUMA ordinals come out the same on every rebuild of the inventory;
// the outer matcher refers to NICs by (numa, ordinal) across placements.
func (n *Node) initNICs(labels map[string]string, cfg config.Config) error {
	for _, key := range sortedLabelKeys(labels, labelNICPrefix) {
		parts := strings.Split(key, ".")
		if len(parts) < 9 {
			klog.Warningf("node %s: malformed NIC label %q, skipping", n.Name, key)
			continue
		}

		ifname, vendor, mac, speedToken := parts[4], parts[5], parts[6], parts[7]

		numa, err := strconv.Atoi(parts[8])
		if err != nil {
			klog.Warningf("node %s: NIC label %q has non-integer numa node, skipping", n.Name, key)
			continue
		}

		if cfg.ShouldSkipInterface(ifname) {
			klog.V(4).Infof("node %s: skipping redundant interface %s", n.Name, ifname)
			continue
		}

		speedMbps, ok := decodeSpeedMbps(speedToken)
		if !ok {
			klog.V(4).Infof("node %s: not adding NIC %s, speed missing or zero (interface may be down)", n.Name, ifname)
			continue
		}

		if speedMbps < cfg.SchedulableNICSpeedMbps {
			klog.V(4).Infof("node %s: NIC %s has speed %d Mbps, below threshold %d, excluding", n.Name, ifname, speedMbps, cfg.SchedulableNICSpeedMbps)
			continue
		}

		speedGbps := float64(speedMbps) / 1000.0
		canonicalMAC := CanonicalizeMAC(mac)

		if cfg.SRIOVEnabled {
			if existing := n.GetNICFromIfname(ifname); existing != nil {
				existing.NUMA = numa
				existing.MAC = canonicalMAC
				existing.Vendor = vendor
				existing.SpeedGbps = speedGbps
				klog.V(4).Infof("node %s: updated SR-IOV NIC ifname=%s mac=%s numa=%d", n.Name, ifname, canonicalMAC, numa)
				continue
			}
		}

		n.NICs = append(n.NICs, NIC{
			Ifname:    ifname,
			MAC:       canonicalMAC,
			Vendor:    vendor,
			SpeedGbps: speedGbps,
			NUMA:      numa,
		})
		klog.V(4).Infof("node %s: added NIC ifname=%s vendor=%s mac=%s speed=%.1fGbps numa=%d", n.Name, ifname, vendor, canonicalMAC, speedGbps, numa)
	}

	n.assignNICOrdinals()
	return nil
}

// sortedLabelKeys returns the label keys containing prefix, sorted.
func sortedLabelKeys(labels map[string]string, prefix string) []string {
	var keys []string
	for key := range labels {
		if strings.Contains(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// decodeSpeedMbps extracts the integer Mbps value from a "<n>Mbs" token. A
// missing suffix (interface down) reports ok=false.
func decodeSpeedMbps(token string) (int, bool) {
	idx := strings.Index(token, "Mbs")
	if idx < 0 {
		return 0, false
	}
	speed, err := strconv.Atoi(token[:idx])
	if err != nil || speed <= 0 {
		return 0, false
	}
	return speed, true
}

// assignNICOrdinals assigns a dense, per-NUMA ordinal to each NIC in scan
// (discovery) order.
func (n *Node) assignNICOrdinals() {
	next := map[int]int{}
	for i := range n.NICs {
		numa := n.NICs[i].NUMA
		n.NICs[i].NUMAOrdinal = next[numa]
		next[numa]++
	}
}

// GetNIC returns the NIC with the given canonical MAC, or nil.
func (n *Node) GetNIC(mac string) *NIC {
	for i := range n.NICs {
		if n.NICs[i].MAC == mac {
			return &n.NICs[i]
		}
	}
	return nil
}

// GetNICFromIfname returns the NIC with the given interface name, or nil.
func (n *Node) GetNICFromIfname(ifname string) *NIC {
	for i := range n.NICs {
		if n.NICs[i].Ifname == ifname {
			return &n.NICs[i]
		}
	}
	return nil
}

// NADListFromIndices resolves NIC inventory indices to interface names, for
// building the network-attachment-definition list a placed pod needs.
func (n *Node) NADListFromIndices(indices []int) []string {
	names := make([]string, 0, len(indices))
	for _, i := range indices {
		if i < 0 || i >= len(n.NICs) {
			klog.Warningf("node %s: NIC index %d out of range, skipping", n.Name, i)
			continue
		}
		names = append(names, n.NICs[i].Ifname)
	}
	return names
}

// GetNICByOrdinal returns the NIC at the given (numa, ordinal) pair, or nil.
func (n *Node) GetNICByOrdinal(numa, ordinal int) *NIC {
	for i := range n.NICs {
		if n.NICs[i].NUMA == numa && n.NICs[i].NUMAOrdinal == ordinal {
			return &n.NICs[i]
		}
	}
	return nil
}
