package ledger

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"assetpool/internal/fixed"
	"assetpool/internal/pool"
)

// Metrics publishes operation counts, latencies and state gauges for
// one pool. A nil *Metrics is valid and records nothing.
type Metrics struct {
	operations      *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	flashloanVolume prometheus.Counter
	custody         prometheus.Gauge
	external        prometheus.Gauge
	unitSupply      prometheus.Gauge
	unitRatio       prometheus.Gauge
}

// NewMetrics creates the pool metric set and registers it on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pool_operations_total",
			Help: "Pool operations by name and outcome.",
		}, []string{"op", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pool_operation_duration_seconds",
			Help:    "Time spent executing pool operations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		flashloanVolume: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pool_flashloan_volume_total",
			Help: "Cumulative flash-loan principal settled.",
		}),
		custody: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pool_custody_balance",
			Help: "Assets currently held in custody.",
		}),
		external: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pool_external_liquidity",
			Help: "Liquidity lent out but still pooled.",
		}),
		unitSupply: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pool_unit_supply",
			Help: "Pool units outstanding.",
		}),
		unitRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pool_unit_to_asset_ratio",
			Help: "Cached unit/asset exchange ratio.",
		}),
	}
	reg.MustRegister(m.operations, m.duration, m.flashloanVolume, m.custody, m.external, m.unitSupply, m.unitRatio)
	return m
}

// Operation counts one operation outcome.
func (m *Metrics) Operation(op, outcome string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op, outcome).Inc()
}

// Duration records how long an operation took.
func (m *Metrics) Duration(op string, d time.Duration) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(op).Observe(d.Seconds())
}

// FlashloanVolume adds settled principal to the volume counter.
func (m *Metrics) FlashloanVolume(amount fixed.Decimal) {
	if m == nil {
		return
	}
	m.flashloanVolume.Add(approx(amount))
}

// State refreshes the state gauges after a commit.
func (m *Metrics) State(st pool.State) {
	if m == nil {
		return
	}
	m.custody.Set(approx(st.Custody))
	m.external.Set(approx(st.ExternalLiquidity))
	m.unitSupply.Set(approx(st.UnitSupply))
	ratio, _ := strconv.ParseFloat(st.UnitToAssetRatio.String(), 64)
	m.unitRatio.Set(ratio)
}

// approx renders an amount as float64 for gauges.
func approx(d fixed.Decimal) float64 {
	f, _ := strconv.ParseFloat(d.String(), 64)
	return f
}
