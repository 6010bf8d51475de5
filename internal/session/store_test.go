package session

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AliShamas2000/codelance-web-v2-sub000/internal/booking"
)

type noopGateway struct{}

func (noopGateway) FetchDates(context.Context, int) (booking.DateAvailability, error) {
	return booking.DateAvailability{}, nil
}

func (noopGateway) FetchSlots(context.Context, string, int, []int) (booking.SlotAvailability, error) {
	return booking.SlotAvailability{}, nil
}

func newController() *booking.Controller {
	return booking.NewController(booking.PublicSurface(), noopGateway{}, nil, nil)
}

func TestCreateGetDelete(t *testing.T) {
	store := NewStore(time.Minute, nil)

	sess := store.Create(newController())
	require.NotEqual(t, uuid.Nil, sess.ID)
	assert.Equal(t, 1, store.Len())

	got, err := store.Get(sess.ID)
	require.NoError(t, err)
	assert.Same(t, sess.Controller, got.Controller)

	store.Delete(sess.ID)
	assert.Equal(t, 0, store.Len())

	_, err = store.Get(sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetUnknownID(t *testing.T) {
	store := NewStore(time.Minute, nil)
	_, err := store.Get(uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteUnknownIDIsNoop(t *testing.T) {
	store := NewStore(time.Minute, nil)
	store.Delete(uuid.New())
	assert.Equal(t, 0, store.Len())
}

func TestSweepEvictsIdleSessions(t *testing.T) {
	store := NewStore(10*time.Minute, nil)
	now := time.Date(2025, time.December, 24, 9, 0, 0, 0, time.UTC)
	store.nowFn = func() time.Time { return now }

	idle := store.Create(newController())
	fresh := store.Create(newController())

	// The fresh session is touched just before the sweep cutoff.
	now = now.Add(9 * time.Minute)
	_, err := store.Get(fresh.ID)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, store.Sweep())
	assert.Equal(t, 1, store.Len())

	_, err = store.Get(idle.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Get(fresh.ID)
	assert.NoError(t, err)
}

func TestSweepNothingIdle(t *testing.T) {
	store := NewStore(time.Hour, nil)
	store.Create(newController())
	assert.Equal(t, 0, store.Sweep())
	assert.Equal(t, 1, store.Len())
}

func TestGetRefreshesIdleClock(t *testing.T) {
	store := NewStore(10*time.Minute, nil)
	now := time.Date(2025, time.December, 24, 9, 0, 0, 0, time.UTC)
	store.nowFn = func() time.Time { return now }

	sess := store.Create(newController())

	// Touch every 8 minutes across a span longer than the TTL; the session
	// must survive because it is never idle for a full TTL.
	for i := 0; i < 4; i++ {
		now = now.Add(8 * time.Minute)
		_, err := store.Get(sess.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, store.Sweep())
	}
}

func TestJanitorStopsOnContextCancel(t *testing.T) {
	store := NewStore(time.Minute, nil)
	ctx, cancel := context.WithCancel(context.Background())
	store.StartJanitor(ctx, 10*time.Millisecond)
	cancel()
	// Nothing to assert beyond not leaking; the goroutine exits on cancel.
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, store.Len())
}
