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
	"strconv"
	"strings"

	klog "k8s.io/klog/v2"
)

const labelGPUPrefix = "feature.node.kubernetes.io/nfd-extras-gpu"

// GPUType enumerates the GPU models this inventory recognizes.
type GPUType int

const (
	GPUUnsupported GPUType = iota
	GPUGTX1080
	GPUGTX1080Ti
	GPUGTX2080
	GPUGTX2080Ti
	GPUV100
)

func (t GPUType) String() string {
	switch t {
	case GPUGTX1080:
		return "GTX1080"
	case GPUGTX1080Ti:
		return "GTX1080Ti"
	case GPUGTX2080:
		return "GTX2080"
	case GPUGTX2080Ti:
		return "GTX2080Ti"
	case GPUV100:
		return "V100"
	default:
		return "UNSUPPORTED"
	}
}

// parseGPUType maps a type substring to a GPUType. Order matters: the
// "1080Ti"/"2080Ti" checks must precede their non-Ti counterparts, since
// "1080Ti" also contains "1080".
func parseGPUType(s string) GPUType {
	switch {
	case strings.Contains(s, "1080Ti"):
		return GPUGTX1080Ti
	case strings.Contains(s, "1080"):
		return GPUGTX1080
	case strings.Contains(s, "2080Ti"):
		return GPUGTX2080Ti
	case strings.Contains(s, "2080"):
		return GPUGTX2080
	case strings.Contains(s, "V100"):
		return GPUV100
	default:
		return GPUUnsupported
	}
}

// GPU is a single GPU device in a node's inventory.
type GPU struct {
	DeviceID int
	Type     GPUType
	NUMA     int
	Used     bool
}

// initGPUs decodes GPU labels. Keys are processed in sorted order so
// insertion order, which GetNextFreeGPU scans in, is stable across rebuilds.
func (n *Node) initGPUs(labels map[string]string) error {
	for _, key := range sortedLabelKeys(labels, labelGPUPrefix) {
		parts := strings.Split(key, ".")
		if len(parts) < 7 {
			klog.Warningf("node %s: malformed GPU label %q, skipping", n.Name, key)
			continue
		}

		deviceID, err := strconv.Atoi(parts[4])
		if err != nil {
			klog.Warningf("node %s: GPU label %q has non-integer device id, skipping", n.Name, key)
			continue
		}

		typeStr := parts[5]

		numa, err := strconv.Atoi(parts[6])
		if err != nil {
			klog.Warningf("node %s: GPU label %q has non-integer numa node, skipping", n.Name, key)
			continue
		}

		n.GPUs = append(n.GPUs, GPU{
			DeviceID: deviceID,
			Type:     parseGPUType(typeStr),
			NUMA:     numa,
		})
		klog.V(4).Infof("node %s: added GPU device_id=%d type=%s numa=%d", n.Name, deviceID, typeStr, numa)
	}

	return nil
}

// GetGPU returns the GPU with the given device ID, or nil if not found.
func (n *Node) GetGPU(deviceID int) *GPU {
	for i := range n.GPUs {
		if n.GPUs[i].DeviceID == deviceID {
			return &n.GPUs[i]
		}
	}
	return nil
}

// GetNextFreeGPU returns the first unused GPU on the given NUMA node, in
// insertion (discovery) order, or nil if none are free.
func (n *Node) GetNextFreeGPU(numa int) *GPU {
	for i := range n.GPUs {
		if n.GPUs[i].NUMA == numa && !n.GPUs[i].Used {
			return &n.GPUs[i]
		}
	}
	return nil
}
