// Package telemetry provides the ambient observability stack for confsync:
// zerolog structured logging, Prometheus metrics for load/save activity, and
// optional OpenTelemetry tracing around load and save tasks.
package telemetry
