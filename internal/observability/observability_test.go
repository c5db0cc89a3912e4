package observability

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		format  string
		wantErr string
	}{
		{name: "json info", level: "info", format: "json"},
		{name: "console debug", level: "debug", format: "console"},
		{name: "text alias", level: "warn", format: "text"},
		{name: "defaults", level: "", format: ""},
		{name: "upper case level", level: "ERROR", format: "json"},
		{name: "invalid level", level: "loud", format: "json", wantErr: "invalid log level"},
		{name: "invalid format", level: "info", format: "xml", wantErr: "invalid log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.level, tt.format)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Nil(t, logger)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, logger)
			_ = logger.Sync()
		})
	}
}

func TestMetrics_ObserveOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveOutcome(OutcomeAuthenticated)
	m.ObserveOutcome(OutcomeAuthenticated)
	m.ObserveOutcome(OutcomeExpiredToken)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.AuthOutcomes.WithLabelValues(OutcomeAuthenticated)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthOutcomes.WithLabelValues(OutcomeExpiredToken)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.AuthOutcomes.WithLabelValues(OutcomeInvalidToken)))
}

func TestMetrics_ObserveHydration(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveHydration(time.Now(), nil)
	m.ObserveHydration(time.Now(), errors.New("boom"))

	families, err := reg.Gather()
	require.NoError(t, err)

	var samples uint64
	for _, f := range families {
		if f.GetName() != "saas_auth_hydration_duration_seconds" {
			continue
		}
		for _, metric := range f.GetMetric() {
			samples += metric.GetHistogram().GetSampleCount()
		}
	}
	assert.Equal(t, uint64(2), samples)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveOutcome(OutcomeAuthenticated)
		m.ObserveHydration(time.Now(), nil)
	})
}

func TestNewMetrics_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewMetrics(prometheus.NewRegistry())
		NewMetrics(prometheus.NewRegistry())
		NewMetrics(nil)
	})
}
