package xmetrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	defaultInstrumentationName = "github.com/xiaoxiaofeiya/mcp-interface-validator-sub002/xmetrics"

	metricOperationTotal    = "recovery.operation.total"
	metricOperationDuration = "recovery.operation.duration"
	metricErrorTotal        = "recovery.error.total"
	metricRecoveryTotal     = "recovery.recovery.total"

	statusOK    = "ok"
	statusError = "error"
)

type otelConfig struct {
	instrumentationName string
	meterProvider       metric.MeterProvider
}

// OTelOption OTel Sink 的配置选项
type OTelOption func(*otelConfig)

// WithInstrumentationName 设置 OTel instrumentation 名称。
func WithInstrumentationName(name string) OTelOption {
	return func(cfg *otelConfig) {
		if name != "" {
			cfg.instrumentationName = name
		}
	}
}

// WithMeterProvider 设置 MeterProvider。
func WithMeterProvider(provider metric.MeterProvider) OTelOption {
	return func(cfg *otelConfig) {
		if provider != nil {
			cfg.meterProvider = provider
		}
	}
}

// NewOTelSink 创建基于 OpenTelemetry 的指标导出 Sink。
func NewOTelSink(opts ...OTelOption) (Sink, error) {
	cfg := &otelConfig{
		instrumentationName: defaultInstrumentationName,
		meterProvider:       otel.GetMeterProvider(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	meter := cfg.meterProvider.Meter(cfg.instrumentationName)

	opTotal, err := meter.Int64Counter(
		metricOperationTotal,
		metric.WithDescription("total recovery-managed operations"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("xmetrics: create counter failed: %w", err)
	}

	opDuration, err := meter.Float64Histogram(
		metricOperationDuration,
		metric.WithDescription("recovery-managed operation duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("xmetrics: create histogram failed: %w", err)
	}

	errTotal, err := meter.Int64Counter(
		metricErrorTotal,
		metric.WithDescription("total classified errors"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("xmetrics: create counter failed: %w", err)
	}

	recTotal, err := meter.Int64Counter(
		metricRecoveryTotal,
		metric.WithDescription("total recovery attempts"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("xmetrics: create counter failed: %w", err)
	}

	return &otelSink{
		opTotal:    opTotal,
		opDuration: opDuration,
		errTotal:   errTotal,
		recTotal:   recTotal,
	}, nil
}

type otelSink struct {
	opTotal    metric.Int64Counter
	opDuration metric.Float64Histogram
	errTotal   metric.Int64Counter
	recTotal   metric.Int64Counter
}

var _ Sink = (*otelSink)(nil)

// ExportOperation 导出操作计数与耗时直方图。
func (s *otelSink) ExportOperation(rec OperationRecord) {
	ctx := context.Background()
	attrs := metric.WithAttributes(
		attribute.String("op", rec.Op),
		attribute.String("status", statusOf(rec.Success)),
	)
	s.opTotal.Add(ctx, 1, attrs)
	s.opDuration.Record(ctx, rec.Duration.Seconds(), attrs)
}

// ExportError 导出错误计数。
func (s *otelSink) ExportError(rec ErrorRecord) {
	s.errTotal.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("op", rec.Op),
		attribute.String("category", string(rec.Category)),
		attribute.String("severity", string(rec.Severity)),
	))
}

// ExportRecovery 导出恢复尝试计数。
func (s *otelSink) ExportRecovery(rec RecoveryRecord) {
	s.recTotal.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("op", rec.Op),
		attribute.String("action", string(rec.Action)),
		attribute.String("status", statusOf(rec.Success)),
	))
}

func statusOf(success bool) string {
	if success {
		return statusOK
	}
	return statusError
}
