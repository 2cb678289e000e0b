package xconf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaoxiaofeiya/mcp-interface-validator-sub002/pkg/resilience/xclassify"
	"github.com/xiaoxiaofeiya/mcp-interface-validator-sub002/pkg/resilience/xrecover"
	"github.com/xiaoxiaofeiya/mcp-interface-validator-sub002/pkg/resilience/xretry"
)

const sampleYAML = `
strategies:
  critical:
    retry:
      strategy: exponential
      maxAttempts: 5
      baseDelay: 100ms
      maxDelay: 5s
      multiplier: 2.0
      jitter: true
      retryableCategories: [network, timeout]
    breaker:
      failureThreshold: 3
      recoveryTimeout: 10s
      monitoringWindow: 2m
      minimumThroughput: 5
    enableState: true
    enableMetrics: true
  lenient:
    retry:
      strategy: fixed
      maxAttempts: 2
      baseDelay: 50ms
      jitter: false
metrics:
  retention: 1h
  cleanupInterval: 1m
`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_YAML(t *testing.T) {
	f, err := Load(writeTemp(t, "recovery.yaml", sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f.Format())

	doc, err := f.Document()
	require.NoError(t, err)
	require.Contains(t, doc.Strategies, "critical")

	critical := doc.Strategies["critical"]
	assert.Equal(t, "exponential", critical.Retry.Strategy)
	assert.Equal(t, 5, critical.Retry.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, critical.Retry.BaseDelay)
	require.NotNil(t, critical.Retry.Jitter)
	assert.True(t, *critical.Retry.Jitter)
	require.NotNil(t, critical.Breaker)
	assert.Equal(t, 3, critical.Breaker.FailureThreshold)
	assert.Equal(t, 2*time.Minute, critical.Breaker.MonitoringWindow)

	lenient := doc.Strategies["lenient"]
	assert.Nil(t, lenient.Breaker)
	require.NotNil(t, lenient.Retry.Jitter)
	assert.False(t, *lenient.Retry.Jitter)

	assert.Equal(t, time.Hour, doc.Metrics.Retention)
}

func TestLoad_JSON(t *testing.T) {
	content := `{"strategies":{"fast":{"retry":{"strategy":"linear","maxAttempts":3,"baseDelay":"200ms"}}}}`
	f, err := Load(writeTemp(t, "recovery.json", content))
	require.NoError(t, err)

	doc, err := f.Document()
	require.NoError(t, err)
	assert.Equal(t, "linear", doc.Strategies["fast"].Retry.Strategy)
	assert.Equal(t, 200*time.Millisecond, doc.Strategies["fast"].Retry.BaseDelay)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load("")
	assert.ErrorIs(t, err, ErrEmptyPath)

	_, err = Load(writeTemp(t, "recovery.toml", "x = 1"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, ErrLoadFailed)

	_, err = Load(writeTemp(t, "broken.json", "{not json"))
	assert.ErrorIs(t, err, ErrParseFailed)
}

func TestLoadBytes(t *testing.T) {
	f, err := LoadBytes([]byte(sampleYAML), FormatYAML)
	require.NoError(t, err)
	doc, err := f.Document()
	require.NoError(t, err)
	assert.Len(t, doc.Strategies, 2)

	// 空数据产生空配置
	f, err = LoadBytes(nil, FormatJSON)
	require.NoError(t, err)
	doc, err = f.Document()
	require.NoError(t, err)
	assert.Empty(t, doc.Strategies)

	_, err = LoadBytes([]byte("{}"), Format("toml"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	// 字节数据加载不支持 Reload
	f, err = LoadBytes([]byte(sampleYAML), FormatYAML)
	require.NoError(t, err)
	assert.ErrorIs(t, f.Reload(), ErrNotWatchable)
}

func TestApply(t *testing.T) {
	f, err := LoadBytes([]byte(sampleYAML), FormatYAML)
	require.NoError(t, err)

	mgr := xrecover.New()
	defer func() { require.NoError(t, mgr.Shutdown(t.Context())) }()

	require.NoError(t, Apply(f, mgr))

	cfg, ok := mgr.Strategy("critical")
	require.True(t, ok)
	assert.Equal(t, xretry.StrategyExponential, cfg.Retry.Strategy())
	assert.Equal(t, 5, cfg.Retry.MaxAttempts())
	assert.True(t, cfg.Retry.AllowsCategory(xclassify.CategoryNetwork))
	assert.False(t, cfg.Retry.AllowsCategory(xclassify.CategoryValidation))
	require.NotNil(t, cfg.Breaker)
	assert.Equal(t, 3, cfg.Breaker.FailureThreshold())
	assert.True(t, cfg.EnableState)

	lenient, ok := mgr.Strategy("lenient")
	require.True(t, ok)
	assert.Nil(t, lenient.Breaker)
	assert.False(t, lenient.Retry.Jitter())
}

func TestApply_InvalidStrategy(t *testing.T) {
	mgr := xrecover.New()
	defer func() { require.NoError(t, mgr.Shutdown(t.Context())) }()

	tests := []struct {
		name string
		yaml string
	}{
		{"unknown retry strategy", `
strategies:
  bad:
    retry:
      strategy: quadratic
`},
		{"unknown category", `
strategies:
  bad:
    retry:
      retryableCategories: [cosmic]
`},
		{"negative attempts", `
strategies:
  bad:
    retry:
      maxAttempts: -1
`},
		{"multiplier below one", `
strategies:
  bad:
    retry:
      multiplier: 0.5
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := LoadBytes([]byte(tt.yaml), FormatYAML)
			require.NoError(t, err)
			assert.ErrorIs(t, Apply(f, mgr), ErrInvalidStrategy)
		})
	}

	assert.ErrorIs(t, Apply(&File{}, nil), ErrNilManager)
}

func TestWatch_ReloadOnChange(t *testing.T) {
	path := writeTemp(t, "recovery.yaml", sampleYAML)
	f, err := Load(path)
	require.NoError(t, err)

	reloaded := make(chan error, 1)
	w, err := Watch(f, func(f *File, err error) {
		select {
		case reloaded <- err:
		default:
		}
	}, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	defer func() { require.NoError(t, w.Stop()) }()
	w.StartAsync()

	updated := `
strategies:
  critical:
    retry:
      maxAttempts: 9
`
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o600))

	select {
	case err := <-reloaded:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("reload callback not invoked")
	}

	doc, err := f.Document()
	require.NoError(t, err)
	assert.Equal(t, 9, doc.Strategies["critical"].Retry.MaxAttempts)
}

func TestWatch_NotWatchable(t *testing.T) {
	f, err := LoadBytes([]byte("{}"), FormatJSON)
	require.NoError(t, err)
	_, err = Watch(f, nil)
	assert.ErrorIs(t, err, ErrNotWatchable)
}
