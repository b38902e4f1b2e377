package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	filesMerged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_files_merged_total",
			Help: "Raw data files successfully joined with metadata",
		},
		[]string{"source"},
	)

	filesSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_files_skipped_total",
			Help: "Raw data files skipped for lack of a metadata match",
		},
		[]string{"source"},
	)

	geoUnresolved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_geo_unresolved_total",
			Help: "Rows whose geography bottomed out at the undefined sentinel",
		},
		[]string{"source"},
	)

	rowsStaged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_rows_staged_total",
			Help: "Rows inserted into the staging table",
		},
		[]string{"source"},
	)

	rowsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_rows_rejected_total",
			Help: "Rows skipped for missing a structurally required field",
		},
		[]string{"source"},
	)

	factsInserted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pipeline_facts_inserted_total",
			Help: "Fact rows inserted into the warehouse",
		},
	)

	duplicateFacts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pipeline_duplicate_facts_skipped_total",
			Help: "Fact rows skipped because an identical observation exists",
		},
	)
)
