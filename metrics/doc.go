// Package metrics exposes Prometheus instrumentation for the router service.
//
// A Collector owns its own registry, so several collectors (for example one
// per test) never clash. It observes routing through the router.Observer
// interface and HTTP traffic through a gin middleware; Handler serves the
// registry in the Prometheus exposition format.
package metrics
