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

// Package config holds the tunables that govern inventory discovery and
// placement. The inventory and placement engine must observe the same
// snapshot of these values for the duration of a single placement call, so
// callers thread a Config value explicitly instead of reading globals.
package config

import "strings"

// Config bundles the scheduling knobs that control label parsing and
// placement.
type Config struct {
	// NICBandwidthUsableFraction is the fraction of a NIC's link speed that
	// is schedulable. The remainder is headroom.
	NICBandwidthUsableFraction float64

	// SchedulableNICSpeedMbps is the minimum link speed, in Mbps, for a NIC
	// to be considered schedulable. Slower interfaces are ignored entirely.
	SchedulableNICSpeedMbps int

	// SRIOVEnabled treats NICs as partitionable into virtual functions.
	// When true, NIC ingestion updates an existing entry by ifname instead
	// of appending a new one, and placement looks NICs up by ifname rather
	// than MAC (see DESIGN.md, "SR-IOV NIC ingestion").
	SRIOVEnabled bool

	// SharingEnabled allows multiple pods to share one NIC's bandwidth
	// instead of requiring exclusive use.
	SharingEnabled bool

	// SkipInterface decides whether a discovered NIC should be dropped
	// during ingestion. The default implementation skips redundant "f1"
	// ports; this is a site convention, not a hardcoded rule, so callers may
	// override it.
	SkipInterface func(ifname string) bool
}

// Default returns the baseline scheduling configuration.
func Default() Config {
	return Config{
		NICBandwidthUsableFraction: 0.9,
		SchedulableNICSpeedMbps:    11000,
		SRIOVEnabled:               false,
		SharingEnabled:             false,
		SkipInterface:              skipRedundantPort,
	}
}

func skipRedundantPort(ifname string) bool {
	return strings.Contains(ifname, "f1")
}

// ShouldSkipInterface applies SkipInterface, falling back to the default
// predicate when the caller left it nil.
func (c Config) ShouldSkipInterface(ifname string) bool {
	if c.SkipInterface == nil {
		return skipRedundantPort(ifname)
	}
	return c.SkipInterface(ifname)
}
