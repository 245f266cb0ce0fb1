package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// JobMetrics records housekeeping job runs.
type JobMetrics struct {
	duration *prometheus.HistogramVec
	runs     *prometheus.CounterVec
	affected *prometheus.CounterVec
}

func NewJobMetrics(reg prometheus.Registerer) *JobMetrics {
	if reg == nil {
		return &JobMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "housekeeping_job_duration_seconds",
		Help:    "Duration of housekeeping jobs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "housekeeping_job_runs_total",
		Help: "Housekeeping job runs, by outcome.",
	}, []string{"job", "outcome"})
	affected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "housekeeping_rows_deleted_total",
		Help: "Rows removed by housekeeping jobs.",
	}, []string{"job"})
	reg.MustRegister(duration, runs, affected)
	return &JobMetrics{duration: duration, runs: runs, affected: affected}
}

// ObserveRun records one finished run of job.
func (m *JobMetrics) ObserveRun(job string, took time.Duration, err error) {
	if m == nil || m.duration == nil {
		return
	}
	job = jobLabel(job)
	m.duration.WithLabelValues(job).Observe(took.Seconds())
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.runs.WithLabelValues(job, outcome).Inc()
}

func (m *JobMetrics) AddDeleted(job string, rows int64) {
	if m == nil || m.affected == nil || rows <= 0 {
		return
	}
	m.affected.WithLabelValues(jobLabel(job)).Add(float64(rows))
}

func jobLabel(job string) string {
	if job == "" {
		return "unknown"
	}
	return job
}
