package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/skillsenselab/speakerline/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Get("observability").Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// PipelineMetrics holds the metric instruments for the sentence pipeline.
type PipelineMetrics struct {
	framesApplied    metric.Int64Counter
	framesDropped    metric.Int64Counter
	speakerSwitches  metric.Int64Counter
	patchesApplied   metric.Int64Counter
	patchesStale     metric.Int64Counter
	sentencesEmitted metric.Int64Counter
	emitLatency      metric.Float64Histogram
	activeStreams    metric.Int64UpDownCounter
}

// NewPipelineMetrics creates the pipeline instruments on the given meter.
func NewPipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	framesApplied, err := meter.Int64Counter("pipeline.frames.applied",
		metric.WithDescription("Diarization frames applied to the timeline"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.frames.applied counter: %w", err)
	}

	framesDropped, err := meter.Int64Counter("pipeline.frames.dropped",
		metric.WithDescription("Items dropped from bounded queues, by queue"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.frames.dropped counter: %w", err)
	}

	speakerSwitches, err := meter.Int64Counter("pipeline.speaker.switches",
		metric.WithDescription("Committed speaker switches"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.speaker.switches counter: %w", err)
	}

	patchesApplied, err := meter.Int64Counter("pipeline.patches.applied",
		metric.WithDescription("Refinement patches applied to the timeline"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.patches.applied counter: %w", err)
	}

	patchesStale, err := meter.Int64Counter("pipeline.patches.stale",
		metric.WithDescription("Refinement patches dropped as stale"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.patches.stale counter: %w", err)
	}

	sentencesEmitted, err := meter.Int64Counter("pipeline.sentences.emitted",
		metric.WithDescription("Finalized and patched sentences emitted"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.sentences.emitted counter: %w", err)
	}

	emitLatency, err := meter.Float64Histogram("pipeline.emit.latency",
		metric.WithDescription("Delay between sentence end and emission in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.emit.latency histogram: %w", err)
	}

	activeStreams, err := meter.Int64UpDownCounter("pipeline.streams.active",
		metric.WithDescription("Streams currently open"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.streams.active gauge: %w", err)
	}

	return &PipelineMetrics{
		framesApplied:    framesApplied,
		framesDropped:    framesDropped,
		speakerSwitches:  speakerSwitches,
		patchesApplied:   patchesApplied,
		patchesStale:     patchesStale,
		sentencesEmitted: sentencesEmitted,
		emitLatency:      emitLatency,
		activeStreams:    activeStreams,
	}, nil
}

// RecordFramesApplied records diarization frames merged into the timeline.
func (m *PipelineMetrics) RecordFramesApplied(ctx context.Context, streamID string, n int64) {
	m.framesApplied.Add(ctx, n, metric.WithAttributes(
		attribute.String("stream", streamID),
	))
}

// RecordDrop records items shed from a bounded queue.
func (m *PipelineMetrics) RecordDrop(ctx context.Context, streamID, queue string, n int64) {
	m.framesDropped.Add(ctx, n, metric.WithAttributes(
		attribute.String("stream", streamID),
		attribute.String("queue", queue),
	))
}

// RecordSwitches records committed speaker switches.
func (m *PipelineMetrics) RecordSwitches(ctx context.Context, streamID string, n int64) {
	m.speakerSwitches.Add(ctx, n, metric.WithAttributes(
		attribute.String("stream", streamID),
	))
}

// RecordPatch records one patch outcome.
func (m *PipelineMetrics) RecordPatch(ctx context.Context, streamID string, applied bool) {
	attrs := metric.WithAttributes(attribute.String("stream", streamID))
	if applied {
		m.patchesApplied.Add(ctx, 1, attrs)
	} else {
		m.patchesStale.Add(ctx, 1, attrs)
	}
}

// RecordSentence records one emitted sentence and its emission delay.
func (m *PipelineMetrics) RecordSentence(ctx context.Context, streamID, eventType string, latency time.Duration) {
	m.sentencesEmitted.Add(ctx, 1, metric.WithAttributes(
		attribute.String("stream", streamID),
		attribute.String("type", eventType),
	))
	m.emitLatency.Record(ctx, latency.Seconds(), metric.WithAttributes(
		attribute.String("stream", streamID),
	))
}

// StreamOpened increments the active stream gauge.
func (m *PipelineMetrics) StreamOpened(ctx context.Context) {
	m.activeStreams.Add(ctx, 1)
}

// StreamClosed decrements the active stream gauge.
func (m *PipelineMetrics) StreamClosed(ctx context.Context) {
	m.activeStreams.Add(ctx, -1)
}
