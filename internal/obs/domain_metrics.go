package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// InvoiceSubmissionTotal counts invoice create/update outcomes.
	InvoiceSubmissionTotal *prometheus.CounterVec
	// InvoiceTotalAmount records the grand total distribution of accepted invoices.
	InvoiceTotalAmount *prometheus.HistogramVec
	// BookingCreatedTotal counts created appointments by outcome.
	BookingCreatedTotal *prometheus.CounterVec
	// ReminderEnqueuedTotal counts scheduled appointment reminders.
	ReminderEnqueuedTotal prometheus.Counter
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		InvoiceSubmissionTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoice_submission_total",
			Help:      "Count of invoice submission outcomes.",
		}, []string{"op", "result"})
		InvoiceTotalAmount = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "invoice_total_amount",
			Help:      "Grand total distribution of accepted invoices.",
			Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000},
		}, []string{"payment_method"})
		BookingCreatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_created_total",
			Help:      "Count of appointment creation outcomes.",
		}, []string{"result"})
		ReminderEnqueuedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminder_enqueued_total",
			Help:      "Number of appointment reminders scheduled.",
		})

		mustRegisterCollector(reg, InvoiceSubmissionTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				InvoiceSubmissionTotal = v
			}
		})
		mustRegisterCollector(reg, InvoiceTotalAmount, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.HistogramVec); ok {
				InvoiceTotalAmount = v
			}
		})
		mustRegisterCollector(reg, BookingCreatedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				BookingCreatedTotal = v
			}
		})
		mustRegisterCollector(reg, ReminderEnqueuedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				ReminderEnqueuedTotal = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
