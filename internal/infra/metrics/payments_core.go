package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		ordersCreatedTotal,
		paymentsTotal,
		paymentsRevenueTotal,
		salesExpiredTotal,
	)
}

var (
	ordersCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Course orders created, labeled by whether a coupon was applied.",
		},
		[]string{"coupon"}, // 'yes', 'no'
	)

	paymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Payment verifications by status (paid/failed).",
		},
		[]string{"status"},
	)

	paymentsRevenueTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_revenue_total",
			Help: "The total monetary value of successful payments in minor units, labeled by currency.",
		},
		[]string{"currency"},
	)

	salesExpiredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sales_expired_total",
			Help: "Total number of pending sales failed by the reconciler.",
		},
	)
)

func IncOrderCreated(withCoupon bool) {
	label := "no"
	if withCoupon {
		label = "yes"
	}
	ordersCreatedTotal.WithLabelValues(label).Inc()
}

func IncPayment(status string) {
	paymentsTotal.WithLabelValues(norm(status)).Inc()
}

func AddPaymentRevenue(currency string, amountMinor int64) {
	paymentsRevenueTotal.WithLabelValues(norm(currency)).Add(float64(amountMinor))
}

func IncSalesExpired(count int) {
	salesExpiredTotal.Add(float64(count))
}
