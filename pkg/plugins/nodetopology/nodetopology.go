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

// Package nodetopology adapts the node-local resource inventory and
// placement engine (pkg/nodeinventory, pkg/placement) into a scheduler
// framework plugin: Filter rejects nodes whose NFD-style hardware labels
// cannot satisfy a pod's requested CPU core and GPU counts, and Score prefers
// nodes with more free capacity left over.
//
// The plugin owns no cluster state beyond a per-node inventory cache keyed
// by node name; label parsing happens once per node and is refreshed
// whenever a node's resource-version changes.
package nodetopology

import (
	"context"
	"strconv"
	"sync"

	v1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/runtime"
	klog "k8s.io/klog/v2"
	framework "k8s.io/kube-scheduler/framework"

	"github.com/kube-nexus/nodetopology/pkg/config"
	"github.com/kube-nexus/nodetopology/pkg/nodeinventory"
)

var _ framework.FilterPlugin = &NodeTopology{}
var _ framework.ScorePlugin = &NodeTopology{}

const (
	// Name is the name of the plugin used in the plugin registry and configurations.
	Name = "NodeTopology"

	// AnnotationRequestedCores requests a minimum number of free schedulable
	// CPU cores on some NUMA domain of the chosen node.
	AnnotationRequestedCores = "scheduling.kubenexus.io/requested-cores"

	// AnnotationRequestedGPUs requests a minimum number of free GPUs on some
	// NUMA domain of the chosen node.
	AnnotationRequestedGPUs = "scheduling.kubenexus.io/requested-gpus"

	// MaxNodeScore is the maximum score a node can get.
	MaxNodeScore = framework.MaxNodeScore
)

type cacheEntry struct {
	resourceVersion string
	node            *nodeinventory.Node
}

// NodeTopology implements a scheduler Filter/Score plugin over the node
// resource inventory.
type NodeTopology struct {
	handle framework.Handle
	cfg    config.Config

	mu    sync.Mutex
	cache map[string]*cacheEntry
}

// Name returns the name of the plugin.
func (p *NodeTopology) Name() string {
	return Name
}

// New initializes a new NodeTopology plugin and returns it.
func New(_ context.Context, _ runtime.Object, handle framework.Handle) (framework.Plugin, error) {
	klog.V(3).Infof("NodeTopology plugin initialized")
	return &NodeTopology{
		handle: handle,
		cfg:    config.Default(),
		cache:  make(map[string]*cacheEntry),
	}, nil
}

// inventoryFor returns the cached resource inventory for node, rebuilding it
// from node.Labels when the node hasn't been seen before or its
// ResourceVersion has changed.
func (p *NodeTopology) inventoryFor(node *v1.Node) (*nodeinventory.Node, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := p.cache[node.Name]
	if ok && entry.resourceVersion == node.ResourceVersion {
		return entry.node, nil
	}

	inv := nodeinventory.NewNode(node.Name)
	if err := inv.ParseLabels(node.Labels, p.cfg); err != nil {
		return nil, err
	}

	p.cache[node.Name] = &cacheEntry{resourceVersion: node.ResourceVersion, node: inv}
	return inv, nil
}

func requestedCount(pod *v1.Pod, annotation string) int {
	val, ok := pod.Annotations[annotation]
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(val)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Filter invoked at the filter extension point. Rejects nodes that either
// lack the required hardware labels or cannot satisfy the pod's requested
// core/GPU count on any single NUMA domain.
func (p *NodeTopology) Filter(ctx context.Context, state framework.CycleState, pod *v1.Pod, nodeInfo framework.NodeInfo) *framework.Status {
	node := nodeInfo.Node()
	if node == nil {
		return framework.NewStatus(framework.Error, "node is nil")
	}

	inv, err := p.inventoryFor(node)
	if err != nil {
		klog.V(4).Infof("NodeTopology: node %s has no usable resource inventory: %v", node.Name, err)
		return framework.NewStatus(framework.UnschedulableAndUnresolvable, "node resource labels missing or invalid")
	}

	if fits(inv, requestedCount(pod, AnnotationRequestedCores), requestedCount(pod, AnnotationRequestedGPUs)) {
		return framework.NewStatus(framework.Success, "")
	}
	return framework.NewStatus(framework.Unschedulable,
		"no NUMA domain has enough free cores and GPUs for this pod")
}

// fits reports whether some single NUMA domain of inv has at least
// requestedCores free cores and requestedGPUs free GPUs. A zero request is
// always satisfied.
func fits(inv *nodeinventory.Node, requestedCores, requestedGPUs int) bool {
	if requestedCores == 0 && requestedGPUs == 0 {
		return true
	}

	freeCPU := inv.FreeCpuPerNuma()
	freeGPU := inv.FreeGpuPerNuma()

	for numa := 0; numa < inv.NUMANodes; numa++ {
		cpuOK := requestedCores == 0 || (numa < len(freeCPU) && freeCPU[numa] >= requestedCores)
		gpuOK := requestedGPUs == 0 || (numa < len(freeGPU) && freeGPU[numa] >= requestedGPUs)
		if cpuOK && gpuOK {
			return true
		}
	}
	return false
}

// Score invoked at the score extension point. Prefers nodes with more
// headroom, measured as the fraction of schedulable CPU cores still free.
func (p *NodeTopology) Score(ctx context.Context, state framework.CycleState, pod *v1.Pod, nodeInfo framework.NodeInfo) (int64, *framework.Status) {
	node := nodeInfo.Node()
	if node == nil {
		return 0, framework.NewStatus(framework.Error, "node is nil")
	}

	inv, err := p.inventoryFor(node)
	if err != nil {
		return 0, framework.NewStatus(framework.Success, "")
	}

	return headroomScore(inv), framework.NewStatus(framework.Success, "")
}

// headroomScore scores a node by the fraction of its physical CPU cores
// that remain schedulable, scaled to [0, MaxNodeScore].
func headroomScore(inv *nodeinventory.Node) int64 {
	total := inv.Sockets * inv.CoresPerSocket
	if total == 0 {
		return 0
	}

	free := 0
	for _, f := range inv.FreeCpuPerNuma() {
		free += f
	}
	score := int64(free) * int64(MaxNodeScore) / int64(total)
	if score > int64(MaxNodeScore) {
		score = int64(MaxNodeScore)
	}
	return score
}

// ScoreExtensions returns a ScoreExtensions interface if the plugin implements one.
func (p *NodeTopology) ScoreExtensions() framework.ScoreExtensions {
	return nil
}
