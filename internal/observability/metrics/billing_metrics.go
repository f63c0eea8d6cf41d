// Package metrics exposes Prometheus instruments for the billing engine.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	JobPaymentReminders = "payment_reminders"

	ReminderActionFirst     = "first_reminder"
	ReminderActionSecond    = "second_reminder"
	ReminderActionSuspended = "suspended"

	RefundPathDirect    = "direct"
	RefundPathConnected = "connected"
)

// BillingMetrics captures billing-engine health signals.
type BillingMetrics struct {
	jobRuns         *prometheus.CounterVec
	jobDuration     *prometheus.HistogramVec
	jobErrors       *prometheus.CounterVec
	reminderActions *prometheus.CounterVec
	refunds         *prometheus.CounterVec
	invoicesIssued  prometheus.Counter
}

var (
	billingMetricsOnce sync.Once
	billingMetrics     *BillingMetrics
)

// Billing returns the singleton billing metrics registry.
func Billing() *BillingMetrics {
	billingMetricsOnce.Do(func() {
		billingMetrics = newBillingMetrics(prometheus.DefaultRegisterer)
	})
	return billingMetrics
}

// ResetBillingMetricsForTest resets the billing metrics singleton for tests.
func ResetBillingMetricsForTest() {
	billingMetricsOnce = sync.Once{}
	billingMetrics = nil
}

func newBillingMetrics(registerer prometheus.Registerer) *BillingMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	jobRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "laia_billing_job_runs_total",
		Help: "Billing batch job runs by name.",
	}, []string{"job"})
	jobDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "laia_billing_job_duration_seconds",
		Help:    "Billing batch job latency.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	}, []string{"job"})
	jobErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "laia_billing_job_errors_total",
		Help: "Per-item errors isolated inside billing batch jobs.",
	}, []string{"job"})
	reminderActions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "laia_payment_reminder_actions_total",
		Help: "Escalation actions taken against overdue invoices.",
	}, []string{"action"})
	refunds := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "laia_refunds_total",
		Help: "Refund outcomes by processor path and terminal status.",
	}, []string{"path", "status"})
	invoicesIssued := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "laia_invoices_issued_total",
		Help: "Invoices issued, across all organizations.",
	})

	registerer.MustRegister(
		jobRuns,
		jobDuration,
		jobErrors,
		reminderActions,
		refunds,
		invoicesIssued,
	)

	return &BillingMetrics{
		jobRuns:         jobRuns,
		jobDuration:     jobDuration,
		jobErrors:       jobErrors,
		reminderActions: reminderActions,
		refunds:         refunds,
		invoicesIssued:  invoicesIssued,
	}
}

// IncJobRun increments the run counter for a batch job.
func (m *BillingMetrics) IncJobRun(job string) {
	if m == nil || m.jobRuns == nil {
		return
	}
	m.jobRuns.WithLabelValues(job).Inc()
}

// ObserveJobDuration records batch job latency in seconds.
func (m *BillingMetrics) ObserveJobDuration(job string, duration time.Duration) {
	if m == nil || m.jobDuration == nil {
		return
	}
	m.jobDuration.WithLabelValues(job).Observe(duration.Seconds())
}

// IncJobError counts one isolated per-item failure inside a batch job.
func (m *BillingMetrics) IncJobError(job string) {
	if m == nil || m.jobErrors == nil {
		return
	}
	m.jobErrors.WithLabelValues(job).Inc()
}

// IncReminderAction counts one escalation action.
func (m *BillingMetrics) IncReminderAction(action string) {
	if m == nil || m.reminderActions == nil {
		return
	}
	m.reminderActions.WithLabelValues(action).Inc()
}

// IncRefund counts one refund outcome.
func (m *BillingMetrics) IncRefund(path, status string) {
	if m == nil || m.refunds == nil {
		return
	}
	m.refunds.WithLabelValues(path, status).Inc()
}

// IncInvoiceIssued counts one issued invoice.
func (m *BillingMetrics) IncInvoiceIssued() {
	if m == nil || m.invoicesIssued == nil {
		return
	}
	m.invoicesIssued.Inc()
}
