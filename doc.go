// Package backtest replays dated trading signals against historical daily
// stock prices, and measures the result.
//
// The main parts are:
//   - Market: adjusted close prices per stock, loaded from CSV or XLSX tables,
//     answering exact and "latest on or before" price queries.
//   - SignalLog: the dated buy, sell and clear instructions to replay.
//   - Ledger: the cash and positions of one run.
//   - Engine: walks the signals in date order, mutates the ledger and values
//     the portfolio on every trading day, giving a NetValueSeries.
//   - Analyzer: annualized return, volatility, Sharpe ratio and max drawdown
//     of a NetValueSeries against a Benchmark.
//
// Problems with single signals (missing prices, insufficient funds, unknown
// days) never stop a run: they are collected as Anomaly values in the Result.
//
// This package serves as the foundational logic for the `bt` command-line tool.
package backtest
