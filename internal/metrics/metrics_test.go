package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCountersRegisterAndCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Redemptions.WithLabelValues(OutcomeSuccess).Inc()
	m.Redemptions.WithLabelValues(OutcomeRejected).Add(2)
	m.CardsIssued.Add(5)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Redemptions.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Redemptions.WithLabelValues(OutcomeRejected)))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.CardsIssued))
}

func TestDoubleRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
