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

import "testing"

func TestParseGPUType_TiVariantsBeforeBase(t *testing.T) {
	cases := []struct {
		in   string
		want GPUType
	}{
		{"NVIDIA-GTX-1080Ti", GPUGTX1080Ti},
		{"NVIDIA-GTX-1080", GPUGTX1080},
		{"NVIDIA-RTX-2080Ti", GPUGTX2080Ti},
		{"NVIDIA-RTX-2080", GPUGTX2080},
		{"Tesla-V100", GPUV100},
		{"Some-Unknown-Model", GPUUnsupported},
	}
	for _, c := range cases {
		if got := parseGPUType(c.in); got != c.want {
			t.Errorf("parseGPUType(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestInitGPUs_PerNumaAssignment(t *testing.T) {
	labels := map[string]string{
		labelGPUPrefix + ".0.V100.0": "true",
		labelGPUPrefix + ".1.V100.0": "true",
		labelGPUPrefix + ".2.V100.1": "true",
	}

	n := NewNode("node-a")
	n.NUMANodes = 2
	if err := n.initGPUs(labels); err != nil {
		t.Fatalf("initGPUs returned error: %v", err)
	}
	if len(n.GPUs) != 3 {
		t.Fatalf("expected 3 GPUs, got %d", len(n.GPUs))
	}

	free := n.FreeGpuPerNuma()
	if len(free) < 2 || free[0] != 2 || free[1] != 1 {
		t.Fatalf("expected free GPUs [2,1] per numa, got %v", free)
	}

	g := n.GetNextFreeGPU(0)
	if g == nil || g.DeviceID != 0 {
		t.Fatalf("expected first free GPU on numa 0 to be device 0, got %+v", g)
	}
	g.Used = true

	g2 := n.GetNextFreeGPU(0)
	if g2 == nil || g2.DeviceID != 1 {
		t.Fatalf("expected next free GPU on numa 0 to be device 1, got %+v", g2)
	}
}
