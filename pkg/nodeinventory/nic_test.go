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
	"reflect"
	"strconv"
	"testing"

	"github.com/kube-nexus/nodetopology/pkg/config"
)

func TestCanonicalizeMAC(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"aabbccddeeff", "AA:BB:CC:DD:EE:FF"},
		{"AA:BB:CC:DD:EE:FF", "AA:BB:CC:DD:EE:FF"},
		{"aa:bb:cc:dd:ee:ff", "AA:BB:CC:DD:EE:FF"},
	}
	for _, c := range cases {
		got := CanonicalizeMAC(c.in)
		if got != c.want {
			t.Errorf("CanonicalizeMAC(%q) = %q, want %q", c.in, got, c.want)
		}
		if again := CanonicalizeMAC(got); again != got {
			t.Errorf("CanonicalizeMAC not idempotent: CanonicalizeMAC(%q) = %q", got, again)
		}
	}
}

func buildNICLabels(entries []struct {
	ifname, vendor, mac, speedToken string
	numa                            int
}) map[string]string {
	labels := map[string]string{}
	for _, e := range entries {
		key := labelNICPrefix + "." + e.ifname + "." + e.vendor + "." + e.mac + "." + e.speedToken + "." + strconv.Itoa(e.numa)
		labels[key] = "true"
	}
	return labels
}

func TestInitNICs_SpeedThresholdAndSkip(t *testing.T) {
	entries := []struct {
		ifname, vendor, mac, speedToken string
		numa                            int
	}{
		{"eth0", "mlnx", "aabbccddeeff", "25000Mbs", 0},
		{"eth0f1", "mlnx", "aabbccddee00", "25000Mbs", 0},
		{"eth1", "mlnx", "aabbccddee01", "1000Mbs", 0},
		{"eth2", "mlnx", "aabbccddee02", "", 1},
	}
	labels := buildNICLabels(entries)

	n := NewNode("node-a")
	cfg := config.Default()
	if err := n.initNICs(labels, cfg); err != nil {
		t.Fatalf("initNICs returned error: %v", err)
	}

	if len(n.NICs) != 1 {
		t.Fatalf("expected exactly 1 schedulable NIC (eth0), got %d: %+v", len(n.NICs), n.NICs)
	}
	if n.NICs[0].Ifname != "eth0" {
		t.Errorf("expected eth0 to survive filtering, got %s", n.NICs[0].Ifname)
	}
	if n.NICs[0].SpeedGbps != 25.0 {
		t.Errorf("expected 25.0 Gbps, got %f", n.NICs[0].SpeedGbps)
	}
}

func TestNADListFromIndices(t *testing.T) {
	n := NewNode("node-a")
	n.NICs = []NIC{
		{Ifname: "eth0"},
		{Ifname: "eth1"},
	}

	got := n.NADListFromIndices([]int{1, 0, 7})
	want := []string{"eth1", "eth0"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NADListFromIndices = %v, want %v (out-of-range index dropped)", got, want)
	}
}

func TestInitNICs_NUMAOrdinalsDense(t *testing.T) {
	entries := []struct {
		ifname, vendor, mac, speedToken string
		numa                            int
	}{
		{"eth0", "mlnx", "aabbccddee10", "25000Mbs", 0},
		{"eth1", "mlnx", "aabbccddee11", "25000Mbs", 0},
		{"eth2", "mlnx", "aabbccddee12", "25000Mbs", 1},
	}
	labels := buildNICLabels(entries)

	n := NewNode("node-a")
	if err := n.initNICs(labels, config.Default()); err != nil {
		t.Fatalf("initNICs returned error: %v", err)
	}

	numa0 := 0
	numa1 := 0
	for _, nic := range n.NICs {
		switch nic.NUMA {
		case 0:
			numa0++
		case 1:
			numa1++
		}
	}
	if numa0 != 2 || numa1 != 1 {
		t.Fatalf("expected 2 NICs on numa 0 and 1 on numa 1, got %d/%d", numa0, numa1)
	}

	ordinals := map[int]bool{}
	for _, nic := range n.NICs {
		if nic.NUMA != 0 {
			continue
		}
		ordinals[nic.NUMAOrdinal] = true
	}
	if !ordinals[0] || !ordinals[1] {
		t.Errorf("expected dense ordinals {0,1} on numa 0, got %+v", ordinals)
	}
}
