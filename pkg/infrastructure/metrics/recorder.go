package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vsinha/bakeryplan/pkg/application/dto"
	"github.com/vsinha/bakeryplan/pkg/application/services/deduction"
	"github.com/vsinha/bakeryplan/pkg/application/services/planning"
)

const namespace = "bakeryplan"

// Recorder collects planning and commit metrics in its own registry
type Recorder struct {
	registry *prometheus.Registry

	plans          prometheus.Counter
	planProducts   prometheus.Histogram
	shortLastPlan  prometheus.Gauge
	productIssues  prometheus.Counter
	commits        *prometheus.CounterVec
	commitDuration prometheus.Histogram
	commitRetries  prometheus.Counter
	negativeStock  prometheus.Counter
}

// Verify interface compliance
var _ planning.Metrics = (*Recorder)(nil)
var _ deduction.Metrics = (*Recorder)(nil)

// NewRecorder creates a recorder with every metric registered
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		plans: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plans_total",
			Help:      "Production plans computed.",
		}),
		planProducts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "plan_products",
			Help:      "Products per computed plan.",
			Buckets:   []float64{1, 2, 4, 8, 16, 32},
		}),
		shortLastPlan: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "short_ingredients",
			Help:      "Short ingredients in the most recent plan.",
		}),
		productIssues: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "product_issues_total",
			Help:      "Products that could not be planned.",
		}),
		commits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commits_total",
			Help:      "Production commits by outcome.",
		}, []string{"outcome"}),
		commitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "commit_duration_seconds",
			Help:      "Time spent confirming a production plan.",
			Buckets:   prometheus.DefBuckets,
		}),
		commitRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commit_retries_total",
			Help:      "Store calls retried after a transient failure.",
		}),
		negativeStock: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "negative_stock_total",
			Help:      "Supplies driven below zero by a commit.",
		}),
	}

	r.registry.MustRegister(
		r.plans,
		r.planProducts,
		r.shortLastPlan,
		r.productIssues,
		r.commits,
		r.commitDuration,
		r.commitRetries,
		r.negativeStock,
	)
	return r
}

// Registry exposes the recorder's registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) PlanComputed(products, _, short int) {
	r.plans.Inc()
	r.planProducts.Observe(float64(products))
	r.shortLastPlan.Set(float64(short))
}

func (r *Recorder) ProductIssue() {
	r.productIssues.Inc()
}

func (r *Recorder) CommitFinished(outcome dto.CommitOutcome, duration time.Duration) {
	r.commits.WithLabelValues(outcome.String()).Inc()
	r.commitDuration.Observe(duration.Seconds())
}

func (r *Recorder) CommitRetried() {
	r.commitRetries.Inc()
}

func (r *Recorder) NegativeStock() {
	r.negativeStock.Inc()
}

// WriteToTextfile writes the current metrics in the node-exporter textfile
// format
func (r *Recorder) WriteToTextfile(filename string) error {
	if err := prometheus.WriteToTextfile(filename, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", filename, err)
	}
	return nil
}
