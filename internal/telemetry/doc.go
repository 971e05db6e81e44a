// Package telemetry installs OpenTelemetry providers for campaign runs.
//
// Telemetry is off by default. When enabled, spans for every target and pipeline step
// and the outcome counters are exported to standard error, or to the configured writer,
// and flushed by Session.Shutdown.
package telemetry
