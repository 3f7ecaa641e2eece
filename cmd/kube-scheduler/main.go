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

package main

import (
	"os"

	klog "k8s.io/klog/v2"
	"k8s.io/kubernetes/cmd/kube-scheduler/app"

	"github.com/kube-nexus/nodetopology/pkg/plugins/nodetopology"
)

func main() {
	klog.InfoS("NodeTopology scheduler starting", "version", "v0.1.0")

	command := app.NewSchedulerCommand(
		app.WithPlugin(nodetopology.Name, nodetopology.New),
	)

	klog.InfoS("Executing scheduler command")
	if err := command.Execute(); err != nil {
		klog.ErrorS(err, "Scheduler command failed")
		os.Exit(1)
	}
	klog.InfoS("Scheduler command completed")
}
