// Package observability provides structured logging, health probes and
// Prometheus metrics for the HTTP surface and the database pool.
package observability
