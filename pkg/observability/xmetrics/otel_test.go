package xmetrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/xiaoxiaofeiya/mcp-interface-validator-sub002/pkg/resilience/xclassify"
)

func newTestMeterProvider() (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
	)
	return mp, reader
}

func metricNames(rm metricdata.ResourceMetrics) map[string]bool {
	names := make(map[string]bool)
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			names[m.Name] = true
		}
	}
	return names
}

func TestOTelSink_ExportsAllMetrics(t *testing.T) {
	mp, reader := newTestMeterProvider()
	defer func() { _ = mp.Shutdown(context.Background()) }()

	sink, err := NewOTelSink(WithMeterProvider(mp))
	require.NoError(t, err)

	sink.ExportOperation(OperationRecord{ID: "a", Op: "sync", Success: true, Duration: 100 * time.Millisecond})
	sink.ExportError(ErrorRecord{Category: xclassify.CategoryNetwork, Severity: xclassify.SeverityHigh, Op: "sync"})
	sink.ExportRecovery(RecoveryRecord{Op: "sync", Action: xclassify.ActionRetry, Success: false, Duration: time.Second, Attempts: 3})

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	names := metricNames(rm)
	assert.True(t, names[metricOperationTotal])
	assert.True(t, names[metricOperationDuration])
	assert.True(t, names[metricErrorTotal])
	assert.True(t, names[metricRecoveryTotal])
}

func TestOTelSink_CustomInstrumentationName(t *testing.T) {
	mp, reader := newTestMeterProvider()
	defer func() { _ = mp.Shutdown(context.Background()) }()

	sink, err := NewOTelSink(
		WithMeterProvider(mp),
		WithInstrumentationName("recovery-test"),
	)
	require.NoError(t, err)

	sink.ExportOperation(OperationRecord{Op: "sync", Success: false})

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.NotEmpty(t, rm.ScopeMetrics)
	assert.Equal(t, "recovery-test", rm.ScopeMetrics[0].Scope.Name)
}

func TestCollector_WithOTelSink(t *testing.T) {
	mp, reader := newTestMeterProvider()
	defer func() { _ = mp.Shutdown(context.Background()) }()

	sink, err := NewOTelSink(WithMeterProvider(mp))
	require.NoError(t, err)

	c := NewCollector(WithSink(sink))
	defer c.Destroy()

	c.RecordOperation(OperationRecord{Op: "sync", Success: true, Duration: 50 * time.Millisecond})
	c.RecordOperation(OperationRecord{Op: "sync", Success: false, Duration: 80 * time.Millisecond})

	// 本地聚合与外部导出同时生效
	assert.Equal(t, 2, c.Stats().TotalOperations)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var total int64
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != metricOperationTotal {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	assert.Equal(t, int64(2), total)
}
