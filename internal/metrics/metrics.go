package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cvcraft_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cvcraft_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	CreditsDeductedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cvcraft_credits_deducted_total",
			Help: "AI credits deducted, by feature and pool",
		},
		[]string{"feature", "pool"},
	)

	CreditsGrantedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cvcraft_credits_granted_total",
			Help: "Bonus credits granted, by kind",
		},
		[]string{"kind"},
	)

	CreditDenialsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cvcraft_credit_denials_total",
			Help: "Deductions refused for insufficient credits",
		},
		[]string{"feature"},
	)

	LimitDenialsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cvcraft_limit_denials_total",
			Help: "Resource creations refused by plan limits",
		},
		[]string{"resource"},
	)

	SubscriptionsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cvcraft_subscriptions_created_total",
			Help: "Total number of subscriptions created",
		},
		[]string{"plan"},
	)

	SubscriptionsCancelledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cvcraft_subscriptions_cancelled_total",
			Help: "Subscriptions ended, by reason",
		},
		[]string{"reason"},
	)

	EmailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cvcraft_emails_sent_total",
			Help: "Total number of emails sent",
		},
		[]string{"type", "status"},
	)

	EmailQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cvcraft_email_queue_length",
			Help: "Current length of email queue",
		},
	)

	AIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cvcraft_ai_requests_total",
			Help: "AI provider calls, by feature and outcome",
		},
		[]string{"feature", "status"},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// RecordDeduction counts the split of one deduction across the two pools.
func RecordDeduction(feature string, fromBonus, fromSubscription int) {
	if fromBonus > 0 {
		CreditsDeductedTotal.WithLabelValues(feature, "bonus").Add(float64(fromBonus))
	}
	if fromSubscription > 0 {
		CreditsDeductedTotal.WithLabelValues(feature, "subscription").Add(float64(fromSubscription))
	}
}

func RecordGrant(kind string, amount int) {
	CreditsGrantedTotal.WithLabelValues(kind).Add(float64(amount))
}

func RecordCreditDenial(feature string) {
	CreditDenialsTotal.WithLabelValues(feature).Inc()
}

func RecordLimitDenial(resource string) {
	LimitDenialsTotal.WithLabelValues(resource).Inc()
}

func RecordSubscription(plan string) {
	SubscriptionsCreatedTotal.WithLabelValues(plan).Inc()
}

func RecordCancellation(reason string) {
	SubscriptionsCancelledTotal.WithLabelValues(reason).Inc()
}

func RecordEmail(emailType, status string) {
	EmailsSentTotal.WithLabelValues(emailType, status).Inc()
}

func RecordAIRequest(feature, status string) {
	AIRequestsTotal.WithLabelValues(feature, status).Inc()
}
