package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	queriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckflow_queries_total",
			Help: "Total number of SQL statements submitted to the engine.",
		},
		[]string{"mode", "status"},
	)
	queryDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "duckflow_query_duration_seconds",
			Help:    "Wall-clock query execution latency.",
			Buckets: prometheus.DefBuckets,
		},
	)
	relationsRegisteredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckflow_relations_registered_total",
			Help: "Total number of relations registered by the data loader.",
		},
		[]string{"source"},
	)
	pipelineStepsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "duckflow_pipeline_steps_total",
			Help: "Total number of pipeline transformation steps executed.",
		},
	)
	pipelineFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "duckflow_pipeline_failures_total",
			Help: "Total number of aborted pipeline runs.",
		},
	)
	benchmarkRunSeconds = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "duckflow_benchmark_run_seconds",
			Help: "Elapsed time of the most recent benchmark run per engine.",
		},
		[]string{"engine"},
	)
)

func init() {
	prometheus.MustRegister(
		queriesTotal,
		queryDurationSeconds,
		relationsRegisteredTotal,
		pipelineStepsTotal,
		pipelineFailuresTotal,
		benchmarkRunSeconds,
	)
}

func ObserveQuery(mode string, err error, elapsed time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	queriesTotal.WithLabelValues(mode, status).Inc()
	if err == nil {
		queryDurationSeconds.Observe(elapsed.Seconds())
	}
}

func ObserveRelationRegistered(source string) {
	relationsRegisteredTotal.WithLabelValues(source).Inc()
}

func ObservePipelineStep() {
	pipelineStepsTotal.Inc()
}

func ObservePipelineFailure() {
	pipelineFailuresTotal.Inc()
}

func SetBenchmarkRun(engine string, elapsed time.Duration) {
	benchmarkRunSeconds.WithLabelValues(engine).Set(elapsed.Seconds())
}
