package lib

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

/* This file implements dev-ops telemetry for the node in the form of prometheus metrics */

const metricsPattern = "/metrics"

// Metrics represents a server that exposes Prometheus metrics
type Metrics struct {
	server *http.Server  // the http prometheus server
	config MetricsConfig // the configuration
	log    LoggerI       // the logger

	InstructionMetrics // instruction telemetry
	PoolMetrics        // pool telemetry
}

// InstructionMetrics represents telemetry about applied instructions
type InstructionMetrics struct {
	Applied  *prometheus.CounterVec   // how many instructions succeeded, by kind
	Failed   *prometheus.CounterVec   // how many instructions failed, by kind and error code
	Duration *prometheus.HistogramVec // how long does it take to apply an instruction, by kind
}

// PoolMetrics represents telemetry about each pool's reserves
type PoolMetrics struct {
	BaseReserve  *prometheus.GaugeVec   // the base vault balance of the pool
	QuoteReserve *prometheus.GaugeVec   // the quote vault balance of the pool
	LPSupply     *prometheus.GaugeVec   // the lp mint supply of the pool
	SwapVolume   *prometheus.CounterVec // cumulative swap input, by pool and input side
}

// NewMetricsServer() creates a new telemetry server registered against the default registry
func NewMetricsServer(config MetricsConfig, log LoggerI) *Metrics {
	return newMetrics(config, log, prometheus.DefaultRegisterer)
}

// NewTestMetrics() creates metrics on a private registry so tests may build many state machines
func NewTestMetrics() *Metrics {
	return newMetrics(MetricsConfig{}, NewNullLogger(), prometheus.NewRegistry())
}

func newMetrics(config MetricsConfig, log LoggerI, reg prometheus.Registerer) *Metrics {
	mux := http.NewServeMux()
	mux.Handle(metricsPattern, promhttp.Handler())
	factory := promauto.With(reg)
	return &Metrics{
		server: &http.Server{Addr: config.PrometheusAddress, Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		config: config,
		log:    log,
		InstructionMetrics: InstructionMetrics{
			Applied: factory.NewCounterVec(prometheus.CounterOpts{
				Name: "amm_instructions_applied",
				Help: "Total number of instructions successfully applied",
			}, []string{"kind"}),
			Failed: factory.NewCounterVec(prometheus.CounterOpts{
				Name: "amm_instructions_failed",
				Help: "Total number of instructions rejected",
			}, []string{"kind", "code"}),
			Duration: factory.NewHistogramVec(prometheus.HistogramOpts{
				Name: "amm_instruction_duration_seconds",
				Help: "Time to apply an instruction in seconds",
			}, []string{"kind"}),
		},
		PoolMetrics: PoolMetrics{
			BaseReserve: factory.NewGaugeVec(prometheus.GaugeOpts{
				Name: "amm_pool_base_reserve",
				Help: "Base vault balance",
			}, []string{"pool"}),
			QuoteReserve: factory.NewGaugeVec(prometheus.GaugeOpts{
				Name: "amm_pool_quote_reserve",
				Help: "Quote vault balance",
			}, []string{"pool"}),
			LPSupply: factory.NewGaugeVec(prometheus.GaugeOpts{
				Name: "amm_pool_lp_supply",
				Help: "LP mint supply",
			}, []string{"pool"}),
			SwapVolume: factory.NewCounterVec(prometheus.CounterOpts{
				Name: "amm_pool_swap_volume",
				Help: "Cumulative swap input amount",
			}, []string{"pool", "side"}),
		},
	}
}

// Start() starts the telemetry server
func (m *Metrics) Start() {
	// exit if empty
	if m == nil {
		return
	}
	// if the metrics server is enabled
	if m.config.Enabled {
		go func() {
			m.log.Infof("Starting metrics server on %s", m.config.PrometheusAddress)
			// run the server
			if err := m.server.ListenAndServe(); err != nil {
				if err != http.ErrServerClosed {
					m.log.Errorf("Metrics server failed with err: %s", err.Error())
				}
			}
		}()
	}
}

// Stop() gracefully stops the telemetry server
func (m *Metrics) Stop() {
	// exit if empty
	if m == nil {
		return
	}
	// if the metrics server isn't enabled
	if m.config.Enabled {
		// shutdown the server
		if err := m.server.Shutdown(context.Background()); err != nil {
			m.log.Error(err.Error())
		}
	}
}

// UpdateInstruction() records the outcome of an applied instruction
func (m *Metrics) UpdateInstruction(kind string, err ErrorI, duration time.Duration) {
	// exit if empty
	if m == nil {
		return
	}
	if err != nil {
		m.Failed.WithLabelValues(kind, m.codeLabel(err)).Inc()
		return
	}
	m.Applied.WithLabelValues(kind).Inc()
	m.Duration.WithLabelValues(kind).Observe(duration.Seconds())
}

// UpdatePool() records the reserves of a pool after a state change
func (m *Metrics) UpdatePool(pool string, baseReserve, quoteReserve, lpSupply uint64) {
	// exit if empty
	if m == nil {
		return
	}
	m.BaseReserve.WithLabelValues(pool).Set(float64(baseReserve))
	m.QuoteReserve.WithLabelValues(pool).Set(float64(quoteReserve))
	m.LPSupply.WithLabelValues(pool).Set(float64(lpSupply))
}

// UpdateSwap() adds to the swap volume of a pool
func (m *Metrics) UpdateSwap(pool, side string, amountIn uint64) {
	// exit if empty
	if m == nil {
		return
	}
	m.SwapVolume.WithLabelValues(pool, side).Add(float64(amountIn))
}

// codeLabel() formats 'module:code'
func (m *Metrics) codeLabel(err ErrorI) string {
	return string(err.Module()) + ":" + strconv.FormatUint(uint64(err.Code()), 10)
}
