// Package dsmrflow ingests DSMR v10 smart-meter telegram streams and
// serves the projected readings as queryable time series.
//
// # Architecture
//
// The service is structured into several key packages:
//   - dsmr: the telegram parser — line dispatch, field validation, and
//     event-log correlation
//   - series: projection of parsed telegrams into per-phase series and
//     severity-partitioned event messages
//   - database: TimescaleDB integration for series storage
//   - api: meter bridge client that fetches and ingests the raw stream
//   - web: HTTP query API with caching, rate limiting, and metrics
//   - scheduler: periodic stream fetching
//   - models: shared data structures
//
// Key Features
//
//   - Strict parsing:
//     A malformed stream is rejected as a whole with a structured
//     *dsmr.ParseError; there is no partial output.
//
//   - Time Series Operations:
//     Supports aggregations (MIN, MAX, AVG, SUM) over different time
//     windows (1m, 5m, 1h, 1d) per quantity and phase.
//
//   - Performance:
//     Uses TimescaleDB for efficient series storage and an LRU cache for
//     frequently repeated queries.
//
// Example Usage
//
//	telegrams, err := dsmr.Parse(input)
//	if err != nil {
//	    // a *dsmr.ParseError carries the failing line and error kind
//	}
//	points := series.VoltagePoints(telegrams)
//
// For more information about specific packages, see their respective
// documentation.
package dsmrflow
