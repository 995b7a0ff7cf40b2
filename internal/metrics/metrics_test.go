package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestLedgerCounters(t *testing.T) {
	m := NewLedger(prometheus.NewRegistry())

	m.OrderPlaced("show-1", 2)
	m.OrderPlaced("show-1", 3)
	m.Rejected(ReasonSoldOut)
	m.Compensated(true)
	m.Compensated(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ordersPlaced))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.ticketsSold.WithLabelValues("show-1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rejections.WithLabelValues(ReasonSoldOut)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.compensations.WithLabelValues("failed")))
}

func TestNilLedgerIsNoop(t *testing.T) {
	var m *Ledger
	assert.NotPanics(t, func() {
		m.OrderPlaced("show-1", 1)
		m.Rejected(ReasonValidation)
		m.Compensated(false)
	})
}
