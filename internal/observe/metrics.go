// Package observe provides application-wide observability primitives for
// Voxfront: OpenTelemetry metrics, distributed tracing, structured logging
// helpers, and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can be
// scraped via the standard /metrics endpoint. Tests should use [NewMetrics]
// with a custom [metric.MeterProvider] to avoid cross-test pollution.
package observe

import (
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all Voxfront metrics.
const meterName = "github.com/voxfront/voxfront"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use; the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// SessionDuration tracks voice session length from worker start to
	// transcript save, in seconds.
	SessionDuration metric.Float64Histogram

	// HTTPRequestDuration tracks HTTP request processing time. Use with
	// attributes: attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram

	// SessionsCreated counts session-creation requests. Use with attributes:
	//   attribute.String("customer", ...), attribute.String("mode", ...)
	SessionsCreated metric.Int64Counter

	// TranscriptEntries counts transcript entries flushed to disk.
	TranscriptEntries metric.Int64Counter

	// SaveFailures counts transcript flush failures at session teardown.
	SaveFailures metric.Int64Counter

	// ActiveSessions tracks the number of live agent sessions.
	ActiveSessions metric.Int64UpDownCounter
}

// latencyBuckets defines histogram bucket boundaries (in seconds) for HTTP
// request latencies.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// sessionBuckets defines histogram bucket boundaries (in seconds) for whole
// conversation durations.
var sessionBuckets = []float64{
	5, 15, 30, 60, 120, 300, 600, 1200, 1800,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.SessionDuration, err = m.Float64Histogram("voxfront.session.duration",
		metric.WithDescription("Length of a voice session from start to transcript save."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(sessionBuckets...),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("voxfront.http.request.duration",
		metric.WithDescription("HTTP request processing time."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.SessionsCreated, err = m.Int64Counter("voxfront.sessions.created",
		metric.WithDescription("Number of sessions created, by customer and mode."),
	); err != nil {
		return nil, err
	}
	if met.TranscriptEntries, err = m.Int64Counter("voxfront.transcript.entries",
		metric.WithDescription("Number of transcript entries flushed to disk."),
	); err != nil {
		return nil, err
	}
	if met.SaveFailures, err = m.Int64Counter("voxfront.transcript.save_failures",
		metric.WithDescription("Number of failed transcript flushes at session teardown."),
	); err != nil {
		return nil, err
	}
	if met.ActiveSessions, err = m.Int64UpDownCounter("voxfront.sessions.active",
		metric.WithDescription("Number of live agent sessions."),
	); err != nil {
		return nil, err
	}

	return met, nil
}
