// Package metrics defines and registers all custom Prometheus metrics for the
// loyalty platform API. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on import via
// promauto and exposed by the /metrics route.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "loyalty"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// LoginAttemptsTotal counts password logins.
// Label:
//   - result: "success" or "failure"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// GuardDecisionsTotal counts page guard verdicts.
// Labels:
//   - route: the guarded page path (e.g. "/admin")
//   - verdict: "allow", "redirect_login" or "redirect_forbidden"
var GuardDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_decisions_total",
		Help:      "Total number of page guard decisions, by route and verdict.",
	},
	[]string{"route", "verdict"},
)

// ── Coupon metrics ────────────────────────────────────────────────────────────

// CouponApplicationsTotal counts coupon resolutions.
// Label:
//   - result: "applied" or the rejection kind (e.g. "EXPIRED")
var CouponApplicationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "coupon_applications_total",
		Help:      "Total number of coupon applications, labelled by result.",
	},
	[]string{"result"},
)

// ── Recovery metrics ──────────────────────────────────────────────────────────

// OTPRequestsTotal counts recovery code operations.
// Labels:
//   - operation: "request", "resend", "verify" or "reset"
//   - result: "ok", "cooldown", "invalid" or "error"
var OTPRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "otp_requests_total",
		Help:      "Total number of password recovery operations, by operation and result.",
	},
	[]string{"operation", "result"},
)

// CodeDeliveriesTotal counts recovery codes handed to the sender.
// Labels:
//   - method: "email" or "phone"
//   - result: "sent", "failed" or "dropped"
var CodeDeliveriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "code_deliveries_total",
		Help:      "Total number of recovery code deliveries, by method and result.",
	},
	[]string{"method", "result"},
)

// DeliveryQueueDepth tracks the current number of deliveries waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var DeliveryQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "delivery_queue_depth",
		Help:      "Current number of deliveries pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// DeliveryDuration measures how long the sender takes for one code.
// Label:
//   - method: "email" or "phone"
var DeliveryDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "code_delivery_duration_seconds",
		Help:      "Duration of a single recovery code delivery.",
		Buckets:   prometheus.DefBuckets, // .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
	},
	[]string{"method"},
)
