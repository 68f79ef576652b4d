package cmd

import (
	"github.com/etnz/backtest"
	"github.com/prometheus/client_golang/prometheus"
)

// runMetrics collects the outcome of runs, to be scraped from a textfile
// after the process exits.
type runMetrics struct {
	reg       *prometheus.Registry
	signals   *prometheus.CounterVec
	trades    *prometheus.CounterVec
	anomalies *prometheus.CounterVec
	netValue  *prometheus.GaugeVec
	cash      *prometheus.GaugeVec
}

func newRunMetrics() *runMetrics {
	m := &runMetrics{
		reg: prometheus.NewRegistry(),
		signals: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "backtest_signals_total", Help: "Signals read, by action"},
			[]string{"scenario", "action"},
		),
		trades: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "backtest_trades_total", Help: "Trades executed, by action"},
			[]string{"scenario", "action"},
		),
		anomalies: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "backtest_anomalies_total", Help: "Skipped signals and positions, by kind"},
			[]string{"scenario", "kind"},
		),
		netValue: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Name: "backtest_final_net_value", Help: "Net value on the last trading day"},
			[]string{"scenario"},
		),
		cash: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Name: "backtest_final_cash", Help: "Cash at the end of the run"},
			[]string{"scenario"},
		),
	}
	m.reg.MustRegister(m.signals, m.trades, m.anomalies, m.netValue, m.cash)
	return m
}

// observe records the result of the run of scenario.
func (m *runMetrics) observe(scenario string, res *backtest.Result) {
	for action, n := range res.Signals {
		m.signals.WithLabelValues(scenario, string(action)).Add(float64(n))
	}
	for _, t := range res.Trades {
		m.trades.WithLabelValues(scenario, string(t.Action)).Inc()
	}
	for _, a := range res.Anomalies {
		m.anomalies.WithLabelValues(scenario, a.Name()).Inc()
	}
	_, last := res.NetValues.Last()
	m.netValue.WithLabelValues(scenario).Set(last.Float64())
	m.cash.WithLabelValues(scenario).Set(res.Cash.Float64())
}

// write writes the metrics to path, if not empty.
func (m *runMetrics) write(path string) error {
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.reg)
}
