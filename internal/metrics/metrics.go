package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_orders_created_total",
		Help: "Total number of orders successfully submitted at checkout.",
	})

	CouponsAppliedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_coupons_applied_total",
		Help: "Total number of coupons applied, labelled by coupon source.",
	},
		[]string{"source"},
	)

	PayoutsRequestedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_payouts_requested_total",
		Help: "Total number of withdrawal requests accepted.",
	})

	FlashCodesGeneratedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_flash_codes_generated_total",
		Help: "Total number of flash discount codes generated.",
	})

	OperationErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_operation_errors_total",
		Help: "Total number of errors encountered during specific operations.",
	},
		[]string{"operation"},
	)

	CheckoutSessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "storefront_checkout_sessions_active",
		Help: "Current number of open checkout sessions.",
	})
)
