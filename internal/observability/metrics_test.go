package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsDispatchCounters(t *testing.T) {
	m := NewMetrics()

	assert.Zero(t, m.DispatchCount("assigned"))

	m.RecordDispatch("assigned")
	m.RecordDispatch("assigned")
	m.RecordDispatch("empty")
	m.RecordDispatch("contention")

	assert.Equal(t, int64(2), m.DispatchCount("assigned"))
	assert.Equal(t, int64(1), m.DispatchCount("empty"))
	assert.Equal(t, int64(1), m.DispatchCount("contention"))
	assert.Zero(t, m.DispatchCount("unknown"))
}

func TestMetricsNilReceiverIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/agent/chats/next", "POST", 200, time.Millisecond)
	m.RecordError("/agent/chats/next", "POST", "CONFLICT")
	m.RecordDispatch("assigned")
	assert.Zero(t, m.DispatchCount("assigned"))
}
