// Copyright 2025 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package metrics exposes snapshot run statistics as Prometheus metrics.
// Runs are short-lived, so instead of serving /metrics the registry is
// written as a node_exporter textfile at the end of a run.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace is the namespace for all sitesnap metrics.
	Namespace = "sitesnap"
)

// Metrics holds all Prometheus metrics of a run. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	FetchesTotal      *prometheus.CounterVec
	FetchDuration     prometheus.Histogram
	StaleRetriesTotal prometheus.Counter
	PagesDropped      *prometheus.CounterVec
	RestartsTotal     prometheus.Counter
	PagesCommitted    prometheus.Gauge
	LastPublished     prometheus.Gauge
	RunsTotal         *prometheus.CounterVec
}

// New creates the metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		FetchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "fetches_total",
				Help:      "Requests to the source site by resource kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		FetchDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "fetch_duration_seconds",
				Help:      "Duration of a single fetch including transport retries",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
			},
		),
		StaleRetriesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "stale_retries_total",
				Help:      "Resources re-fetched because they predated the reference",
			},
		),
		PagesDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "pages_dropped_total",
				Help:      "Pages left out of the snapshot by reason",
			},
			[]string{"reason"},
		),
		RestartsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "restarts_total",
				Help:      "Crawl passes abandoned because the site was republished",
			},
		),
		PagesCommitted: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "pages_committed",
				Help:      "Files written by the last committed snapshot",
			},
		),
		LastPublished: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "last_published_timestamp_seconds",
				Help:      "Publish time of the last committed snapshot",
			},
		),
		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "runs_total",
				Help:      "Runs by final status",
			},
			[]string{"status"},
		),
	}
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveFetch records one fetch.
func (m *Metrics) ObserveFetch(kind string, err error, d time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.FetchesTotal.WithLabelValues(kind, outcome).Inc()
	m.FetchDuration.Observe(d.Seconds())
}

// ObserveStaleRetry records a resource-tier retry.
func (m *Metrics) ObserveStaleRetry() {
	if m == nil {
		return
	}
	m.StaleRetriesTotal.Inc()
}

// ObserveDrop records a page left out of the snapshot.
func (m *Metrics) ObserveDrop(reason string) {
	if m == nil {
		return
	}
	m.PagesDropped.WithLabelValues(reason).Inc()
}

// ObserveRestart records a site-tier restart.
func (m *Metrics) ObserveRestart() {
	if m == nil {
		return
	}
	m.RestartsTotal.Inc()
}

// ObserveRun records the final status of a run.
func (m *Metrics) ObserveRun(status string, pages int, published time.Time) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(status).Inc()
	if status == "committed" {
		m.PagesCommitted.Set(float64(pages))
		m.LastPublished.Set(float64(published.Unix()))
	}
}

// WriteTextfile writes the registry in the Prometheus text format to path.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
