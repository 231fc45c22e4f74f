package service

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	TapsProcessed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "taps_processed_total",
			Help: "Taps committed to the ledger",
		},
	)
	TapsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taps_rejected_total",
			Help: "Taps rejected before commit",
		},
		[]string{"reason"},
	)
	ReferralBonuses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "referral_bonuses_total",
			Help: "Referral cascade credits paid",
		},
	)
)

func init() {
	prometheus.MustRegister(TapsProcessed)
	prometheus.MustRegister(TapsRejected)
	prometheus.MustRegister(ReferralBonuses)
}
