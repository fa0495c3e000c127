/*
Package observability builds the zap logger and the prometheus collectors shared
by the entitybind components.

Metrics are registered on a caller-supplied prometheus.Registerer so several
runtimes (and tests) can coexist in one process:

	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics("entitybind", reg)

A nil *Metrics is valid and records nothing.
*/
package observability
