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

// Package cpurange decodes Linux cpuset-style range lists, e.g. "0-3,8,10-12",
// into sorted unique integer sequences. It underlies the isolcpus label in
// node discovery and the NUMA CPU lists used elsewhere in the example pack.
package cpurange

import (
	"fmt"
	"strings"

	"k8s.io/utils/cpuset"
)

// Parse decodes a comma-separated list of integers and inclusive ranges
// ("lo-hi") into a sorted slice of unique integers. An empty string yields
// an empty, non-nil slice. "lo-hi" with lo > hi is an error.
func Parse(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return []int{}, nil
	}

	set, err := cpuset.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("cpurange: invalid range list %q: %w", s, err)
	}

	return set.List(), nil
}

// ParseJoined parses a higher-layer isolcpus-style value in which multiple
// range-list tokens are joined with underscores, e.g. "2-7_10-15", returning
// the sorted union of all of them.
func ParseJoined(s string, sep string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return []int{}, nil
	}

	union := cpuset.New()
	for _, part := range strings.Split(s, sep) {
		set, err := cpuset.Parse(part)
		if err != nil {
			return nil, fmt.Errorf("cpurange: invalid range token %q in %q: %w", part, s, err)
		}
		union = union.Union(set)
	}

	return union.List(), nil
}
