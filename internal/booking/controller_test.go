package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testToday anchors "today" for every controller test: Dec 24 2025.
var testToday = time.Date(2025, time.December, 24, 9, 0, 0, 0, time.Local)

func localDay(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.Local)
}

type datesResult struct {
	dates DateAvailability
	err   error
}

type datesCall struct {
	barberID int
	respond  chan datesResult
}

type slotsResult struct {
	slots SlotAvailability
	err   error
}

type slotsCall struct {
	dateISO    string
	barberID   int
	serviceIDs []int
	respond    chan slotsResult
}

// stubGateway records calls. In manual mode each call blocks until the test
// feeds its respond channel, which lets tests resolve fetches out of order.
type stubGateway struct {
	mu     sync.Mutex
	manual bool

	dates    DateAvailability
	datesErr error
	slots    SlotAvailability
	slotsErr error

	datesCalls []*datesCall
	slotsCalls []*slotsCall
}

func (g *stubGateway) FetchDates(_ context.Context, barberID int) (DateAvailability, error) {
	call := &datesCall{barberID: barberID, respond: make(chan datesResult, 1)}
	g.mu.Lock()
	g.datesCalls = append(g.datesCalls, call)
	manual := g.manual
	dates, err := g.dates, g.datesErr
	g.mu.Unlock()

	if !manual {
		return dates, err
	}
	res := <-call.respond
	return res.dates, res.err
}

func (g *stubGateway) FetchSlots(_ context.Context, dateISO string, barberID int, serviceIDs []int) (SlotAvailability, error) {
	call := &slotsCall{
		dateISO:    dateISO,
		barberID:   barberID,
		serviceIDs: append([]int(nil), serviceIDs...),
		respond:    make(chan slotsResult, 1),
	}
	g.mu.Lock()
	g.slotsCalls = append(g.slotsCalls, call)
	manual := g.manual
	slots, err := g.slots, g.slotsErr
	g.mu.Unlock()

	if !manual {
		return slots, err
	}
	res := <-call.respond
	return res.slots, res.err
}

func (g *stubGateway) datesCallCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.datesCalls)
}

func (g *stubGateway) slotsCallCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.slotsCalls)
}

func (g *stubGateway) datesCall(i int) *datesCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.datesCalls[i]
}

func (g *stubGateway) slotsCall(i int) *slotsCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.slotsCalls[i]
}

type settleEvent struct {
	channel fetchChannel
	applied bool
}

func newTestController(t *testing.T, surface SurfaceConfig, gw Gateway) (*Controller, chan settleEvent) {
	t.Helper()
	c := NewController(surface, gw, nil, nil)
	c.nowFn = func() time.Time { return testToday }
	settled := make(chan settleEvent, 16)
	c.settled = func(channel fetchChannel, applied bool) {
		settled <- settleEvent{channel: channel, applied: applied}
	}
	return c, settled
}

func awaitSettle(t *testing.T, ch chan settleEvent) settleEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a fetch to settle")
		return settleEvent{}
	}
}

func waitCalls(t *testing.T, count func() int, want int) {
	t.Helper()
	require.Eventually(t, func() bool { return count() == want },
		2*time.Second, 5*time.Millisecond, "expected %d gateway calls", want)
}

func openDecember() DateAvailability {
	return DateAvailability{
		Available:   []time.Time{localDay(2025, time.December, 24), localDay(2025, time.December, 26)},
		Unavailable: []time.Time{localDay(2025, time.December, 25)},
	}
}

func TestSetBarberFetchesDatesAndClearsDownstream(t *testing.T) {
	gw := &stubGateway{dates: openDecember(), slots: SlotAvailability{Available: []string{"10:00 AM", "10:30 AM"}}}
	c, settled := newTestController(t, PublicSurface(), gw)
	ctx := context.Background()

	require.NoError(t, c.SetBarber(ctx, 1))
	awaitSettle(t, settled)

	require.NoError(t, c.SetDate(ctx, localDay(2025, time.December, 26)))
	awaitSettle(t, settled)
	require.NoError(t, c.SetTime("10:00 AM"))

	// Switching barbers clears date and time before the new fetch resolves.
	require.NoError(t, c.SetBarber(ctx, 2))
	sel := c.Selection()
	assert.Equal(t, 2, sel.BarberID)
	assert.Nil(t, sel.Date)
	assert.Empty(t, sel.Time)

	awaitSettle(t, settled)
	assert.Equal(t, 2, gw.datesCallCount())
	assert.Equal(t, 2, gw.datesCall(1).barberID)
}

func TestSetServicesRefetchesSlotsAndClearsTime(t *testing.T) {
	gw := &stubGateway{dates: openDecember(), slots: SlotAvailability{Available: []string{"10:00 AM"}}}
	c, settled := newTestController(t, PublicSurface(), gw)
	ctx := context.Background()

	require.NoError(t, c.SetBarber(ctx, 1))
	awaitSettle(t, settled)
	require.NoError(t, c.SetDate(ctx, localDay(2025, time.December, 24)))
	awaitSettle(t, settled)

	// First slot fetch carried the empty service list.
	require.Equal(t, 1, gw.slotsCallCount())
	assert.Empty(t, gw.slotsCall(0).serviceIDs)

	require.NoError(t, c.SetTime("10:00 AM"))
	require.Equal(t, "10:00", c.Selection().Time)

	// Changing services keeps the date, clears the time, re-fetches slots
	// with the new ids.
	require.NoError(t, c.SetServices(ctx, []int{3}))
	sel := c.Selection()
	assert.NotNil(t, sel.Date)
	assert.Empty(t, sel.Time)

	awaitSettle(t, settled)
	require.Equal(t, 2, gw.slotsCallCount())
	assert.Equal(t, []int{3}, gw.slotsCall(1).serviceIDs)
	assert.Equal(t, "2025-12-24", gw.slotsCall(1).dateISO)
}

func TestStaleDatesResponseIsDropped(t *testing.T) {
	gw := &stubGateway{manual: true}
	c, settled := newTestController(t, PublicSurface(), gw)
	ctx := context.Background()

	require.NoError(t, c.SetBarber(ctx, 1))
	waitCalls(t, gw.datesCallCount, 1)

	require.NoError(t, c.SetBarber(ctx, 2))
	waitCalls(t, gw.datesCallCount, 2)

	// Resolve the first barber's fetch after the switch: it must be
	// dropped, and the loading flag must stay up for the newer fetch.
	gw.datesCall(0).respond <- datesResult{dates: DateAvailability{
		Available: []time.Time{localDay(2025, time.December, 30)},
	}}
	ev := awaitSettle(t, settled)
	assert.False(t, ev.applied)

	state := c.State()
	assert.Empty(t, state.Dates.Available)
	assert.True(t, state.LoadingDates)

	gw.datesCall(1).respond <- datesResult{dates: openDecember()}
	ev = awaitSettle(t, settled)
	assert.True(t, ev.applied)

	state = c.State()
	assert.False(t, state.LoadingDates)
	assert.Len(t, state.Dates.Available, 2)
}

func TestStaleSlotsResponseLosesToFreshOne(t *testing.T) {
	gw := &stubGateway{manual: true}
	c, settled := newTestController(t, PublicSurface(), gw)
	ctx := context.Background()

	require.NoError(t, c.SetBarber(ctx, 1))
	waitCalls(t, gw.datesCallCount, 1)
	gw.datesCall(0).respond <- datesResult{dates: openDecember()}
	awaitSettle(t, settled)

	require.NoError(t, c.SetDate(ctx, localDay(2025, time.December, 24)))
	waitCalls(t, gw.slotsCallCount, 1)

	// Duration changes while fetch A is in flight; fetch B is issued.
	require.NoError(t, c.SetServices(ctx, []int{3}))
	waitCalls(t, gw.slotsCallCount, 2)

	// B resolves first and is applied.
	gw.slotsCall(1).respond <- slotsResult{slots: SlotAvailability{Available: []string{"2:00 PM"}}}
	ev := awaitSettle(t, settled)
	assert.True(t, ev.applied)

	// A resolves late and must be discarded, not overwrite B.
	gw.slotsCall(0).respond <- slotsResult{slots: SlotAvailability{Available: []string{"9:00 AM"}}}
	ev = awaitSettle(t, settled)
	assert.False(t, ev.applied)

	state := c.State()
	assert.False(t, state.LoadingSlots)
	assert.Equal(t, []string{"2:00 PM"}, state.Slots.Available)
}

func TestGatewayFailureFailsOpenToEmpty(t *testing.T) {
	gw := &stubGateway{datesErr: errors.New("boom")}
	c, settled := newTestController(t, PublicSurface(), gw)

	require.NoError(t, c.SetBarber(context.Background(), 1))
	ev := awaitSettle(t, settled)
	assert.True(t, ev.applied)

	state := c.State()
	assert.False(t, state.LoadingDates)
	assert.Empty(t, state.Dates.Available)
	assert.Empty(t, state.Dates.Unavailable)
}

func TestSetDateRejectsUnavailableAndPastDays(t *testing.T) {
	gw := &stubGateway{dates: openDecember()}
	c, settled := newTestController(t, PublicSurface(), gw)
	ctx := context.Background()

	require.NoError(t, c.SetBarber(ctx, 1))
	awaitSettle(t, settled)

	assert.ErrorIs(t, c.SetDate(ctx, localDay(2025, time.December, 25)), ErrDateUnavailable)
	assert.ErrorIs(t, c.SetDate(ctx, localDay(2025, time.December, 23)), ErrDateUnavailable)
	assert.ErrorIs(t, c.SetDate(ctx, localDay(2025, time.December, 27)), ErrDateUnavailable)
	assert.NoError(t, c.SetDate(ctx, localDay(2025, time.December, 24)))
}

func TestSetDateWhileDatesLoadingIsRejected(t *testing.T) {
	gw := &stubGateway{manual: true}
	c, _ := newTestController(t, PublicSurface(), gw)
	ctx := context.Background()

	require.NoError(t, c.SetBarber(ctx, 1))
	waitCalls(t, gw.datesCallCount, 1)

	assert.ErrorIs(t, c.SetDate(ctx, localDay(2025, time.December, 26)), ErrDateUnavailable)
}

func TestSetTimeRequiresDateAndSelectableSlot(t *testing.T) {
	gw := &stubGateway{
		dates: openDecember(),
		slots: SlotAvailability{Available: []string{"10:00 AM", "11:00 AM"}, Unavailable: []string{"11:00 AM"}},
	}
	c, settled := newTestController(t, PublicSurface(), gw)
	ctx := context.Background()

	assert.ErrorIs(t, c.SetTime("10:00 AM"), ErrNoDateSelected)

	require.NoError(t, c.SetBarber(ctx, 1))
	awaitSettle(t, settled)
	require.NoError(t, c.SetDate(ctx, localDay(2025, time.December, 24)))
	awaitSettle(t, settled)

	assert.ErrorIs(t, c.SetTime("11:00 AM"), ErrSlotUnavailable)
	assert.ErrorIs(t, c.SetTime("3:00 PM"), ErrSlotUnavailable)

	// Label and 24-hour forms address the same slot.
	require.NoError(t, c.SetTime("10:00"))
	assert.Equal(t, "10:00", c.Selection().Time)
}

func TestSelectionChainInvariantHolds(t *testing.T) {
	gw := &stubGateway{dates: openDecember(), slots: SlotAvailability{Available: []string{"10:00 AM"}}}
	c, settled := newTestController(t, PublicSurface(), gw)
	ctx := context.Background()

	check := func() {
		sel := c.Selection()
		if sel.Time != "" {
			require.NotNil(t, sel.Date, "time set without date")
		}
		if sel.Date != nil {
			require.NotZero(t, sel.BarberID, "date set without barber")
		}
	}

	check()
	require.NoError(t, c.SetBarber(ctx, 1))
	check()
	awaitSettle(t, settled)
	require.NoError(t, c.SetDate(ctx, localDay(2025, time.December, 26)))
	check()
	awaitSettle(t, settled)
	require.NoError(t, c.SetTime("10:00 AM"))
	check()
	require.NoError(t, c.SetBarber(ctx, 2))
	check()
	awaitSettle(t, settled)
}

func TestEditSeedSurvivesInitialFetches(t *testing.T) {
	gw := &stubGateway{manual: true}
	seed := Seed{BarberID: 2, ServiceIDs: []int{1, 4}, Date: "2025-12-26", Time: "10:00 AM"}
	c, settled := newTestController(t, AdminEditSurface(seed), gw)

	c.Start(context.Background())

	// The seeded date and time stay in place while both fetches resolve;
	// this is the one exception to "changing the barber clears the date".
	sel := c.Selection()
	require.NotNil(t, sel.Date)
	assert.Equal(t, "2025-12-26", LocalISODate(*sel.Date))
	assert.Equal(t, "10:00", sel.Time)
	assert.Equal(t, 2, sel.BarberID)

	state := c.State()
	assert.True(t, state.LoadingDates)
	assert.True(t, state.LoadingSlots)

	waitCalls(t, gw.datesCallCount, 1)
	waitCalls(t, gw.slotsCallCount, 1)
	assert.Equal(t, "2025-12-26", gw.slotsCall(0).dateISO)
	assert.Equal(t, []int{1, 4}, gw.slotsCall(0).serviceIDs)

	gw.datesCall(0).respond <- datesResult{dates: openDecember()}
	gw.slotsCall(0).respond <- slotsResult{slots: SlotAvailability{Available: []string{"10:00 AM"}}}
	awaitSettle(t, settled)
	awaitSettle(t, settled)

	sel = c.Selection()
	require.NotNil(t, sel.Date)
	assert.Equal(t, "10:00", sel.Time)
}

func TestEditSeedWithDisplayDateTime(t *testing.T) {
	gw := &stubGateway{manual: true}
	seed := Seed{BarberID: 3, Date: "December 26, 2025, 2:30 PM"}
	c, _ := newTestController(t, AdminEditSurface(seed), gw)

	c.Start(context.Background())

	sel := c.Selection()
	require.NotNil(t, sel.Date)
	assert.Equal(t, "2025-12-26", LocalISODate(*sel.Date))
	assert.Equal(t, "14:30", sel.Time)
}

func TestUnparseableSeedFallsBackToEmpty(t *testing.T) {
	gw := &stubGateway{manual: true}
	seed := Seed{BarberID: 3, Date: "next tuesday", Time: "morning"}
	c, _ := newTestController(t, AdminEditSurface(seed), gw)

	c.Start(context.Background())

	sel := c.Selection()
	assert.Equal(t, 3, sel.BarberID)
	assert.Nil(t, sel.Date)
	assert.Empty(t, sel.Time)

	// Only the date fetch goes out; there is no seeded date for slots.
	waitCalls(t, gw.datesCallCount, 1)
	assert.Equal(t, 0, gw.slotsCallCount())
}

func TestStaffSurfacePinsBarber(t *testing.T) {
	gw := &stubGateway{manual: true}
	c, _ := newTestController(t, StaffSurface(7), gw)

	c.Start(context.Background())

	sel := c.Selection()
	assert.Equal(t, 7, sel.BarberID)
	assert.Nil(t, sel.Date)

	waitCalls(t, gw.datesCallCount, 1)
	assert.Equal(t, 7, gw.datesCall(0).barberID)

	assert.ErrorIs(t, c.SetBarber(context.Background(), 2), ErrBarberLocked)
}

func TestSetDateWithoutBarberLeavesSlotsEmpty(t *testing.T) {
	gw := &stubGateway{}
	c, _ := newTestController(t, PublicSurface(), gw)

	require.NoError(t, c.SetDate(context.Background(), localDay(2025, time.December, 26)))

	state := c.State()
	assert.False(t, state.LoadingSlots)
	assert.Empty(t, state.Slots.Available)
	assert.Equal(t, 0, gw.slotsCallCount())
}
