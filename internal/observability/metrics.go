// Package observability exposes Prometheus metrics for the workout store and
// its persistence slot.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	operationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mapty",
		Subsystem: "store",
		Name:      "operations_total",
		Help:      "Store operations by name and outcome.",
	}, []string{"op", "outcome"})
	workoutsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "mapty",
		Subsystem: "store",
		Name:      "workouts",
		Help:      "Number of workouts currently held by the store.",
	})
	savesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mapty",
		Subsystem: "persistence",
		Name:      "saves_total",
		Help:      "Writes of the workout list to the slot by outcome.",
	}, []string{"outcome"})
	lastSaveGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "mapty",
		Subsystem: "persistence",
		Name:      "last_save_timestamp_seconds",
		Help:      "Unix timestamp of the most recent successful save.",
	})
	loadedRecords = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mapty",
		Subsystem: "persistence",
		Name:      "loaded_records_total",
		Help:      "Stored workout records read on load, by result.",
	}, []string{"result"})
)

func init() {
	prometheus.MustRegister(operationsTotal, workoutsGauge, savesTotal, lastSaveGauge, loadedRecords)
}

// Outcome labels for RecordOperation.
const (
	OutcomeOK         = "ok"
	OutcomeRejected   = "rejected"
	OutcomeSaveFailed = "save_failed"
)

// RecordOperation counts one store operation.
func RecordOperation(op, outcome string) {
	operationsTotal.WithLabelValues(op, outcome).Inc()
}

// SetWorkouts updates the workout count gauge.
func SetWorkouts(n int) {
	workoutsGauge.Set(float64(n))
}

// RecordSave counts one slot write and moves the save watermark on success.
func RecordSave(err error) {
	if err != nil {
		savesTotal.WithLabelValues("error").Inc()
		return
	}
	savesTotal.WithLabelValues("ok").Inc()
	lastSaveGauge.Set(float64(time.Now().Unix()))
}

// RecordLoad counts records restored and skipped by a load.
func RecordLoad(restored, skipped int) {
	loadedRecords.WithLabelValues("restored").Add(float64(restored))
	loadedRecords.WithLabelValues("skipped").Add(float64(skipped))
}
