// Package stats counts what a run did and can persist the counters in
// node-exporter textfile format.
package stats

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/keel-hq/etcdtree/types"
)

// dump record results
const (
	ResultWritten  = "written"
	ResultFailed   = "failed"
	ResultFiltered = "filtered"
)

// Stats - counters for a single invocation, registered on a private registry
type Stats struct {
	registry *prometheus.Registry

	DumpRecords      *prometheus.CounterVec
	ImportOperations *prometheus.CounterVec
	LastRun          prometheus.Gauge
}

// New - creates and registers counters
func New() *Stats {
	s := &Stats{
		registry: prometheus.NewRegistry(),
		DumpRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "etcdtree_dump_records_total",
			Help: "Records read during dump by result",
		}, []string{"result"}),
		ImportOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "etcdtree_import_operations_total",
			Help: "putyaml invocations by outcome",
		}, []string{"outcome"}),
		LastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "etcdtree_last_run_timestamp_seconds",
			Help: "Unix time the last run finished",
		}),
	}

	s.registry.MustRegister(s.DumpRecords, s.ImportOperations, s.LastRun)
	return s
}

// Record - counts a dump record result
func (s *Stats) Record(result string) {
	if s == nil {
		return
	}
	s.DumpRecords.WithLabelValues(result).Inc()
}

// Outcome - counts a putyaml outcome
func (s *Stats) Outcome(o types.Outcome) {
	if s == nil {
		return
	}
	s.ImportOperations.WithLabelValues(o.String()).Inc()
}

// Registry - gatherer holding the counters
func (s *Stats) Registry() *prometheus.Registry {
	return s.registry
}

// WriteTextfile - marks the run finished and writes counters to path
func (s *Stats) WriteTextfile(path string) error {
	s.LastRun.Set(float64(time.Now().Unix()))
	return prometheus.WriteToTextfile(path, s.registry)
}
