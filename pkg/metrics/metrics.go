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

// Package metrics exposes prometheus instrumentation for the placement
// engine and reservation ledger, in the same promauto style the rest of the
// scheduler uses for its own plugins.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PlacementAttempts counts placement calls by outcome.
	PlacementAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nodetopology_placement_attempts_total",
			Help: "Total number of SetPhysicalIdsFromMapping calls by result.",
		},
		[]string{"result"},
	)

	// PlacementDuration tracks how long a placement call takes.
	PlacementDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nodetopology_placement_duration_seconds",
			Help:    "Duration of SetPhysicalIdsFromMapping calls in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"result"},
	)

	// LedgerDrift counts ledger anomalies observed during reconciliation:
	// an already-used resource seen by Remove, or a not-used resource seen
	// by Add.
	LedgerDrift = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nodetopology_ledger_drift_total",
			Help: "Total number of ledger drift anomalies observed by kind.",
		},
		[]string{"kind"},
	)

	// FreeCPUCores is a gauge of free schedulable CPU cores per node, set
	// after a successful placement and by the reservation ledger's
	// Remove/AddResourcesFromTopology. ResetResources does not set it.
	FreeCPUCores = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "nodetopology_free_cpu_cores",
			Help: "Number of free schedulable CPU cores on a node.",
		},
		[]string{"node"},
	)
)
