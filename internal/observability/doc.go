// Package observability wires logging, metrics and tracing for schemadrift.
//
// Logging uses zap, run counters are Prometheus collectors on a private
// registry that can be dumped to a textfile, and spans go through the global
// OpenTelemetry tracer provider unless one is injected.
package observability
