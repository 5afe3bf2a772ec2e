// Package metrics provides observability hooks for stylesheet compilation.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics collection never needs nil checks:
//
//	f, _ := sass.New(opts, sass.WithRecorder(metrics.NewPrometheusRecorder(reg)))
//
// PrometheusRecorder registers its collectors on the supplied registry and
// HTTPHandler exposes that registry for scraping (used by `stylebuilder watch
// --metrics-addr`).
package metrics
