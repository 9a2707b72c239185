package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics tracks what the observing engine actually does.
type BusinessMetrics struct {
	DepositsObservedTotal    prometheus.Counter
	ConfirmationUpdatesTotal prometheus.Counter
	DepositsOrphanedTotal    prometheus.Counter
	FeedReconnectsTotal      prometheus.Counter
	BlocksSkippedTotal       prometheus.Counter
	LoopErrorsTotal          *prometheus.CounterVec
	MonitoredWallets         prometheus.Gauge
}

var Business *BusinessMetrics

func InitBusinessMetrics() {
	Business = &BusinessMetrics{
		DepositsObservedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "deposit_observed_total",
			Help: "Deposits recorded by the ingestion loop",
		}),
		ConfirmationUpdatesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "deposit_confirmation_updates_total",
			Help: "Confirmation count changes persisted",
		}),
		DepositsOrphanedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "deposit_orphaned_total",
			Help: "Deposits demoted after a chain reorganization",
		}),
		FeedReconnectsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "feed_reconnects_total",
			Help: "Header subscription reconnect attempts",
		}),
		BlocksSkippedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "feed_blocks_skipped_total",
			Help: "Blocks dropped because the full-block fetch failed",
		}),
		LoopErrorsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "monitor_loop_errors_total",
			Help: "Contained per-iteration loop failures",
		}, []string{"loop"}),
		MonitoredWallets: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "monitored_wallets",
			Help: "Wallets in the current address snapshot",
		}),
	}
}
