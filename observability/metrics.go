package observability

import (
	"math"
	"math/big"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// SaleMetrics records purchase and reward activity for the sale module.
type SaleMetrics struct {
	purchases        *prometheus.CounterVec
	purchaseFailures *prometheus.CounterVec
	rewardsWithdrawn prometheus.Counter
	rewardsUnclaimed prometheus.Gauge
}

var (
	saleMetricsOnce sync.Once
	saleRegistry    *SaleMetrics
)

// Sale returns the lazily-initialised sale metrics registry.
func Sale() *SaleMetrics {
	saleMetricsOnce.Do(func() {
		saleRegistry = &SaleMetrics{
			purchases: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "launchpad",
				Subsystem: "sale",
				Name:      "purchases_total",
				Help:      "Total settled purchases segmented by tier and promo usage.",
			}, []string{"tier", "promo"}),
			purchaseFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "launchpad",
				Subsystem: "sale",
				Name:      "purchase_failures_total",
				Help:      "Total rejected purchases segmented by failure reason.",
			}, []string{"reason"}),
			rewardsWithdrawn: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "launchpad",
				Subsystem: "sale",
				Name:      "rewards_withdrawn_total",
				Help:      "Total payment-asset units paid out as referral rewards.",
			}),
			rewardsUnclaimed: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "launchpad",
				Subsystem: "sale",
				Name:      "rewards_unclaimed",
				Help:      "Payment-asset units currently owed across all promo codes.",
			}),
		}
		prometheus.MustRegister(
			saleRegistry.purchases,
			saleRegistry.purchaseFailures,
			saleRegistry.rewardsWithdrawn,
			saleRegistry.rewardsUnclaimed,
		)
	})
	return saleRegistry
}

// PurchaseCompleted records a settled purchase.
func (m *SaleMetrics) PurchaseCompleted(tierID string, promo bool) {
	if m == nil {
		return
	}
	label := "none"
	if promo {
		label = "code"
	}
	m.purchases.WithLabelValues(tierID, label).Inc()
}

// PurchaseFailed records a rejected purchase with its failure reason.
func (m *SaleMetrics) PurchaseFailed(reason string) {
	if m == nil {
		return
	}
	m.purchaseFailures.WithLabelValues(reason).Inc()
}

// RewardWithdrawn records a referral reward payout.
func (m *SaleMetrics) RewardWithdrawn(amount *big.Int) {
	if m == nil || amount == nil {
		return
	}
	m.rewardsWithdrawn.Add(bigToFloat(amount))
}

// RewardsUnclaimed tracks the running unclaimed reward total.
func (m *SaleMetrics) RewardsUnclaimed(total *big.Int) {
	if m == nil || total == nil {
		return
	}
	m.rewardsUnclaimed.Set(bigToFloat(total))
}

func bigToFloat(v *big.Int) float64 {
	f, _ := new(big.Float).SetInt(v).Float64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0
	}
	return f
}
