package service

import "github.com/prometheus/client_golang/prometheus"

const (
	outcomeClean   = "clean"
	outcomeStrike  = "strike"
	outcomeBlocked = "blocked"
	outcomeStaff   = "staff_bypass"
)

var (
	moderationTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "listing_moderation_total", Help: "Moderation decisions on listing descriptions"},
		[]string{"outcome"},
	)
	reconvertedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "listing_reconverted_total", Help: "Listings re-priced by the currency job"},
	)
)

func init() { prometheus.MustRegister(moderationTotal, reconvertedTotal) }
