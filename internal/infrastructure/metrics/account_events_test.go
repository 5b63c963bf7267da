package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Akiyuki89/my-best-ddd-architecture/internal/core/ports"
	"github.com/Akiyuki89/my-best-ddd-architecture/internal/infrastructure/metrics"
)

func TestAccountEventCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter, err := metrics.NewAccountEventCounter(reg)
	require.NoError(t, err)

	counter.Record(ports.EventLoginFailed)
	counter.Record(ports.EventLoginFailed)
	counter.Record(ports.EventAccountBlocked)

	assert.Equal(t, 2, testutil.CollectAndCount(reg, "account_events_total"))
	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)

	values := map[string]float64{}
	for _, m := range families[0].GetMetric() {
		values[m.GetLabel()[0].GetValue()] = m.GetCounter().GetValue()
	}
	assert.Equal(t, 2.0, values["login_failed"])
	assert.Equal(t, 1.0, values["account_blocked"])
}

func TestAccountEventCounter_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := metrics.NewAccountEventCounter(reg)
	require.NoError(t, err)

	_, err = metrics.NewAccountEventCounter(reg)
	assert.Error(t, err)
}
