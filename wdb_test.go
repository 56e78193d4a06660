package chainpay

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/liberland/chainpay/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWdb(t *testing.T) *Wdb {
	w := NewSqliteDb(t.TempDir())
	require.NoError(t, w.Migrate())
	t.Cleanup(w.Close)
	return w
}

func TestWdbDeliveryAttempts(t *testing.T) {
	w := newTestWdb(t)

	for i, status := range []string{schema.AttemptFailed, schema.AttemptSucc} {
		err := w.InsertDeliveryAttempt(schema.DeliveryAttempt{
			AttemptId:  uuid.NewString(),
			OrderId:    "ord-1",
			Attempt:    i + 1,
			Callback:   "https://example.com/hook",
			StatusCode: 500 - i*300,
			Status:     status,
		})
		require.NoError(t, err)
	}
	err := w.InsertDeliveryAttempt(schema.DeliveryAttempt{
		AttemptId: uuid.NewString(),
		OrderId:   "ord-2",
		Attempt:   1,
		Status:    schema.AttemptSucc,
	})
	require.NoError(t, err)

	attempts, err := w.GetDeliveryAttempts("ord-1")
	require.NoError(t, err)
	require.Len(t, attempts, 2)
	assert.Equal(t, 1, attempts[0].Attempt)
	assert.Equal(t, schema.AttemptFailed, attempts[0].Status)
	assert.Equal(t, 500, attempts[0].StatusCode)
	assert.Equal(t, schema.AttemptSucc, attempts[1].Status)

	attempts, err = w.GetDeliveryAttempts("no-such-order")
	require.NoError(t, err)
	assert.Len(t, attempts, 0)
}

func TestWdbOrderStatistics(t *testing.T) {
	w := newTestWdb(t)

	require.NoError(t, w.IncOrderStatistic("registered"))
	require.NoError(t, w.IncOrderStatistic("registered"))
	require.NoError(t, w.IncOrderStatistic(schema.OutcomeDelivered))
	require.NoError(t, w.IncOrderStatistic(schema.OutcomeExpired))

	err := w.IncOrderStatistic("bogus")
	assert.ErrorIs(t, err, schema.ErrNotFound)

	now := time.Now().UTC()
	stats, err := w.GetOrderStatistics(now.Add(-24*time.Hour), now)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, int64(2), stats[0].Registered)
	assert.Equal(t, int64(1), stats[0].Delivered)
	assert.Equal(t, int64(1), stats[0].Expired)
	assert.Equal(t, int64(0), stats[0].DeliveryFailed)
}
