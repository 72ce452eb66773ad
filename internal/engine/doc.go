// Package engine implements the deterministic liquidity stress engine:
// Basel-style HQLA eligibility with haircuts and composition caps, daily
// cashflow aggregation over a rolling horizon, behavioral overlays (deposit
// runoff, wholesale non-roll, margin calls) parameterized by macro shocks,
// instrument impact application, and the resulting KPIs (LCR with a 75%
// inflow cap, survival days, peak cumulative outflow) plus gap-to-target
// analysis.
//
// # Conventions
//
// Raw cashflow amounts are signed: positive = inflow, negative = outflow.
// Daily buckets store both legs as non-negative magnitudes. Dates are
// normalized to UTC calendar days via Day(). The horizon defaults to 180
// days; behavioral windows are fixed at 30/90/7 days, so horizons under 90
// days truncate part of the behavioral outflow.
//
// # Purity and concurrency
//
// Every exported function is a pure function over immutable inputs with no
// shared mutable state. Distinct scenarios may be evaluated concurrently as
// long as each evaluation starts from its own view of the original cashflow
// list; the engine never mutates its inputs.
//
// # Error policy
//
// Recoverable conditions are absorbed locally: absent numeric fields default
// to zero or neutral anchors, malformed impacts are skipped and reported in
// an audit list, and every division is floored or epsilon-guarded. Nothing in
// this package returns an error or panics on bad portfolio data.
package engine
