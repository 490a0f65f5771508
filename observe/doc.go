// Package observe provides telemetry for the cache: structured logging with
// identifier redaction, OpenTelemetry metrics for lookup outcomes and store
// latency, and tracing for store-touching operations.
package observe
