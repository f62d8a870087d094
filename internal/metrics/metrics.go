// Package metrics defines the Prometheus metrics of the dashboard.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// summaryObjectives returns the quantile objectives shared by every summary.
func summaryObjectives() map[float64]float64 {
	return map[float64]float64{
		0.5:  0.010,
		0.9:  0.010,
		0.99: 0.001,
	}
}

var (
	// PageRenders counts page renders by page and resulting status.
	PageRenders = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "carprice_page_renders_total",
		Help: "Total number of dashboard page renders",
	}, []string{"page", "status"})

	// PageRenderSeconds summarizes the time to render a page.
	PageRenderSeconds = promauto.NewSummaryVec(prometheus.SummaryOpts{
		Name:       "carprice_page_render_duration_seconds",
		Help:       "Summarizes the time to render a dashboard page (in seconds)",
		Objectives: summaryObjectives(),
	}, []string{"page"})

	// ChartRenders counts PNG chart renders by chart kind.
	ChartRenders = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "carprice_chart_renders_total",
		Help: "Total number of PNG charts rendered",
	}, []string{"kind"})

	// FilterUpdates counts filter changes by resulting session state.
	FilterUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "carprice_filter_updates_total",
		Help: "Total number of session filter updates",
	}, []string{"state"})

	// ActiveSessions gauges the number of live filter sessions.
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "carprice_sessions_active",
		Help: "The number of live filter sessions",
	})

	// DatasetRows gauges the rows of the loaded dataset by stage.
	DatasetRows = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "carprice_dataset_rows",
		Help: "Rows of the loaded dataset (read, kept, duplicates, missing)",
	}, []string{"stage"})

	// Predictions counts price model predictions by outcome.
	Predictions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "carprice_predictions_total",
		Help: "Total number of price predictions",
	}, []string{"outcome"})
)

// ObservePageRender records one render of page.
func ObservePageRender(page, status string, elapsed time.Duration) {
	PageRenders.WithLabelValues(page, status).Inc()
	PageRenderSeconds.WithLabelValues(page).Observe(elapsed.Seconds())
}

// RecordDataset publishes the load report counts.
func RecordDataset(read, kept, duplicates, missing int) {
	DatasetRows.WithLabelValues("read").Set(float64(read))
	DatasetRows.WithLabelValues("kept").Set(float64(kept))
	DatasetRows.WithLabelValues("duplicates").Set(float64(duplicates))
	DatasetRows.WithLabelValues("missing").Set(float64(missing))
}
