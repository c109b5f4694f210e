package observability

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" WARN ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestNewLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, "info", "production").Info("hello")
	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"service":"geoguessr-bot"`)

	buf.Reset()
	newLogger(&buf, "info", "development").Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")

	buf.Reset()
	newLogger(&buf, "error", "production").Info("dropped")
	assert.Empty(t, buf.String())
}

func TestCorrelationID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, CorrelationIDFromContext(ctx))
	assert.Equal(t, ctx, WithCorrelationID(ctx, ""))

	ctx = WithCorrelationID(ctx, "abc")
	assert.Equal(t, "abc", CorrelationIDFromContext(ctx))
	assert.Equal(t, "abc", CorrelationAttr(ctx).Value.String())
}

func TestPrometheusOperationMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPrometheusOperationMetrics(reg, "match")
	ctx := context.Background()

	m.RecordOperationAttempt(ctx, "Reconcile", "MatchService")
	m.RecordOperationAttempt(ctx, "Reconcile", "MatchService")
	m.RecordOperationFailure(ctx, "Reconcile", "MatchService")

	pm := m.(*prometheusOperationMetrics)
	assert.Equal(t, 2.0, testutil.ToFloat64(pm.attempts.WithLabelValues("Reconcile", "MatchService")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.failures.WithLabelValues("Reconcile", "MatchService")))

	// Registering the same subsystem again shares the collectors.
	again := NewPrometheusOperationMetrics(reg, "match").(*prometheusOperationMetrics)
	again.RecordOperationAttempt(ctx, "Reconcile", "MatchService")
	assert.Equal(t, 3.0, testutil.ToFloat64(pm.attempts.WithLabelValues("Reconcile", "MatchService")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}
