package monitor_test

import (
	"errors"
	"io"
	"testing"
	"time"

	"StayBridge/pkg/monitor"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Now()}
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestMonitor(clock *fakeClock) *monitor.Monitor {
	return monitor.New(log.NewStdLogger(io.Discard),
		monitor.WithClock(clock),
		monitor.WithHangTimeout(time.Minute),
		monitor.WithSlowThreshold(time.Second),
	)
}

func TestStartEndMeasuresDuration(t *testing.T) {
	clock := newFakeClock()
	m := newTestMonitor(clock)

	id := m.StartOperation("pms", "getGuestFolio", map[string]any{"reservation_id": "R-1001"})
	require.NotEmpty(t, id)

	clock.Advance(250 * time.Millisecond)
	d := m.EndOperation(id, true, nil)
	assert.Equal(t, 250*time.Millisecond, d)

	assert.Equal(t, 0, m.Health().ActiveOperations)
}

func TestExplicitCorrelationIDIsThreaded(t *testing.T) {
	m := newTestMonitor(newFakeClock())

	id := m.StartOperation("gateway", "sendMessage", nil, "wh-abc123")
	assert.Equal(t, "wh-abc123", id)
	m.EndOperation(id, true, nil)
}

func TestEndUnknownOperationIsIgnored(t *testing.T) {
	m := newTestMonitor(newFakeClock())
	assert.Equal(t, time.Duration(0), m.EndOperation("never-started", false, errors.New("boom")))
}

func TestHangingDetectionAndSweep(t *testing.T) {
	clock := newFakeClock()
	m := newTestMonitor(clock)

	stuck := m.StartOperation("pms", "createReservation", nil)
	clock.Advance(90 * time.Second)
	fresh := m.StartOperation("pms", "healthCheck", nil)

	hung := m.HangingOperations(time.Minute)
	require.Len(t, hung, 1)
	assert.Equal(t, stuck, hung[0].CorrelationID)
	assert.Equal(t, "createReservation", hung[0].Name)

	h := m.Health()
	assert.False(t, h.Healthy)
	assert.Equal(t, 2, h.ActiveOperations)
	assert.Equal(t, 1, h.HangingOperations)

	assert.Equal(t, 1, m.Sweep())

	h = m.Health()
	assert.True(t, h.Healthy)
	assert.Equal(t, 1, h.ActiveOperations)

	// The swept operation is gone; the fresh one can still end normally.
	assert.Equal(t, time.Duration(0), m.EndOperation(stuck, true, nil))
	m.EndOperation(fresh, true, nil)
	assert.Equal(t, 0, m.Health().ActiveOperations)
}
