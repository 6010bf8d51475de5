package booking

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/AliShamas2000/codelance-web-v2-sub000/internal/observability/metrics"
	"github.com/AliShamas2000/codelance-web-v2-sub000/pkg/logging"
)

var (
	// ErrBarberLocked is returned when a surface pins the barber.
	ErrBarberLocked = errors.New("booking: barber selection is fixed for this surface")

	// ErrUnknownBarber is returned for a non-positive barber id.
	ErrUnknownBarber = errors.New("booking: unknown barber")

	// ErrDateUnavailable is returned when the requested day is not
	// currently selectable.
	ErrDateUnavailable = errors.New("booking: date not available")

	// ErrNoDateSelected is returned when a time is picked before a date.
	ErrNoDateSelected = errors.New("booking: no date selected")

	// ErrSlotUnavailable is returned when the requested slot is not
	// currently selectable.
	ErrSlotUnavailable = errors.New("booking: time slot not available")
)

// fetchChannel labels the two fetch paths for logs and metrics.
type fetchChannel string

const (
	channelDates fetchChannel = "dates"
	channelSlots fetchChannel = "slots"
)

// Controller drives one booking surface: it owns the Selection, decides when
// to (re)fetch availability, and keeps derived state consistent while the
// user moves between barbers, services and days.
//
// Each fetch channel carries a generation counter. A fetch captures the
// generation it was issued under; when it resolves, the result is applied
// only if the generation is still current, otherwise it is dropped. A slow
// response for an abandoned selection can therefore never overwrite a newer
// one, regardless of arrival order.
type Controller struct {
	mu      sync.Mutex
	surface SurfaceConfig
	gateway Gateway
	logger  *logging.Logger
	metrics *metrics.BookingMetrics

	sel   Selection
	dates DateAvailability
	slots SlotAvailability

	loadingDates bool
	loadingSlots bool
	datesGen     uint64
	slotsGen     uint64

	nowFn func() time.Time

	// settled, when set, is called after a fetch result is applied or
	// dropped. Tests use it to observe resolution without polling.
	settled func(channel fetchChannel, applied bool)
}

// NewController creates a controller for one surface. Call Start to issue
// the initial fetches for a seeded selection.
func NewController(surface SurfaceConfig, gateway Gateway, logger *logging.Logger, m *metrics.BookingMetrics) *Controller {
	if gateway == nil {
		panic("booking: gateway required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Controller{
		surface: surface,
		gateway: gateway,
		logger:  logger,
		metrics: m,
		sel:     selectionFromSeed(surface.Seed),
		nowFn:   time.Now,
	}
}

// Surface returns the surface configuration this controller was opened with.
func (c *Controller) Surface() SurfaceConfig { return c.surface }

// Start issues the initial availability fetches for the seeded selection.
// A seeded date and time are left in place while the fetches resolve; this
// is the one deliberate exception to "changing the barber clears the date",
// so an edit surface does not blank out the appointment's current slot.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.surface.KeepSeededSelection && c.surface.Seed != nil {
		// New-booking surfaces seed the barber (and pre-picked services)
		// but never a date or time.
		c.sel.Date = nil
		c.sel.Time = ""
	}
	if c.sel.BarberID == 0 {
		return
	}
	c.startDatesFetch(ctx)
	if c.sel.Date != nil {
		c.startSlotsFetch(ctx)
	}
}

// SetBarber changes the barber. The date and time are cleared and both
// availability caches discarded before the new date fetch is issued, so a
// stale in-flight response can never attach to the new barber.
func (c *Controller) SetBarber(ctx context.Context, id int) error {
	if id <= 0 {
		return ErrUnknownBarber
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.surface.HideBarberSelection {
		return ErrBarberLocked
	}
	c.sel.BarberID = id
	c.sel.Date = nil
	c.sel.Time = ""
	c.dates = DateAvailability{}
	c.slots = SlotAvailability{}
	c.invalidateSlots()
	c.startDatesFetch(ctx)
	return nil
}

// SetServices replaces the selected services. A picked date survives, but
// the total duration changed, so any picked time is cleared and the slots
// for the same date are fetched again.
func (c *Controller) SetServices(ctx context.Context, ids []int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sel.ServiceIDs = append([]int(nil), ids...)
	if c.sel.Date != nil && c.sel.BarberID != 0 {
		c.sel.Time = ""
		c.slots = SlotAvailability{}
		c.startSlotsFetch(ctx)
	}
	return nil
}

// SetDate picks a calendar day and clears any picked time. With a barber
// selected the day must be selectable under the current availability and a
// slot fetch is issued; without one the slot list simply stays empty.
func (c *Controller) SetDate(ctx context.Context, day time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	day = midnight(day)
	if c.sel.BarberID != 0 {
		if c.loadingDates || !c.dates.IsSelectable(day, c.nowFn()) {
			return ErrDateUnavailable
		}
	} else if day.Before(midnight(c.nowFn())) {
		return ErrDateUnavailable
	}

	c.sel.Date = &day
	c.sel.Time = ""
	c.slots = SlotAvailability{}
	if c.sel.BarberID != 0 {
		c.startSlotsFetch(ctx)
	} else {
		c.invalidateSlots()
	}
	return nil
}

// SetTime picks a slot. The value may be a 12-hour label or "HH:MM"; it is
// stored normalized to 24-hour. This is the terminal selection and issues no
// further fetch.
func (c *Controller) SetTime(value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sel.Date == nil {
		return ErrNoDateSelected
	}
	clock := To24Hour(value)
	if c.loadingSlots || !slotSelectable24(c.slots, clock) {
		return ErrSlotUnavailable
	}
	c.sel.Time = clock
	return nil
}

// Selection returns a copy of the current selection.
func (c *Controller) Selection() Selection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sel.clone()
}

// State is a consistent snapshot of the controller for rendering.
type State struct {
	Surface      string
	Selection    Selection
	Dates        DateAvailability
	Slots        SlotAvailability
	LoadingDates bool
	LoadingSlots bool
}

// State returns a snapshot of selection, availability and loading flags.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Surface:      c.surface.Name,
		Selection:    c.sel.clone(),
		Dates:        c.dates,
		Slots:        c.slots,
		LoadingDates: c.loadingDates,
		LoadingSlots: c.loadingSlots,
	}
}

// Calendar renders the month grid for the given cursor against the current
// availability and selection.
func (c *Controller) Calendar(cursor time.Time) MonthGrid {
	c.mu.Lock()
	defer c.mu.Unlock()
	return BuildMonthGrid(cursor, c.dates, c.sel.Date, c.nowFn())
}

// Slots renders the slot list for the current selection.
func (c *Controller) Slots() SlotList {
	c.mu.Lock()
	defer c.mu.Unlock()
	return BuildSlotList(c.slots, c.sel.Time, c.sel.Date != nil, c.loadingSlots)
}

// invalidateSlots abandons any in-flight slot fetch without issuing a new
// one. The loading flag drops immediately; the stale resolver sees a newer
// generation and discards its result.
func (c *Controller) invalidateSlots() {
	c.slotsGen++
	c.loadingSlots = false
}

// startDatesFetch issues a date fetch for the current barber. Caller holds
// the lock.
func (c *Controller) startDatesFetch(ctx context.Context) {
	c.datesGen++
	gen := c.datesGen
	barberID := c.sel.BarberID
	c.loadingDates = true

	// The fetch outlives the triggering request; cancellation is by
	// generation mismatch, not by aborting the call.
	fetchCtx := context.WithoutCancel(ctx)
	go func() {
		start := time.Now()
		dates, err := c.gateway.FetchDates(fetchCtx, barberID)
		if err != nil {
			// Fail open: the surface shows "no availability" and the
			// user re-triggers by changing the selection.
			c.logger.Error("availability dates fetch failed",
				"surface", c.surface.Name, "barber_id", barberID, "error", err)
			dates = DateAvailability{}
		}
		c.applyDates(gen, dates, err, time.Since(start))
	}()
}

func (c *Controller) applyDates(gen uint64, dates DateAvailability, fetchErr error, took time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.datesGen {
		c.metrics.ObserveFetch(string(channelDates), "dropped", took.Seconds())
		c.notifySettled(channelDates, false)
		return
	}
	c.dates = dates
	c.loadingDates = false
	c.metrics.ObserveFetch(string(channelDates), fetchOutcome(fetchErr), took.Seconds())
	c.notifySettled(channelDates, true)
}

// startSlotsFetch issues a slot fetch for the current (date, barber,
// services) tuple. Caller holds the lock; barber and date are set.
func (c *Controller) startSlotsFetch(ctx context.Context) {
	c.slotsGen++
	gen := c.slotsGen
	barberID := c.sel.BarberID
	dateISO := LocalISODate(*c.sel.Date)
	serviceIDs := append([]int(nil), c.sel.ServiceIDs...)
	c.loadingSlots = true

	fetchCtx := context.WithoutCancel(ctx)
	go func() {
		start := time.Now()
		slots, err := c.gateway.FetchSlots(fetchCtx, dateISO, barberID, serviceIDs)
		if err != nil {
			c.logger.Error("availability slots fetch failed",
				"surface", c.surface.Name, "barber_id", barberID,
				"date", dateISO, "error", err)
			slots = SlotAvailability{}
		}
		c.applySlots(gen, slots, err, time.Since(start))
	}()
}

func (c *Controller) applySlots(gen uint64, slots SlotAvailability, fetchErr error, took time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.slotsGen {
		c.metrics.ObserveFetch(string(channelSlots), "dropped", took.Seconds())
		c.notifySettled(channelSlots, false)
		return
	}
	c.slots = slots
	c.loadingSlots = false
	c.metrics.ObserveFetch(string(channelSlots), fetchOutcome(fetchErr), took.Seconds())
	c.notifySettled(channelSlots, true)
}

func (c *Controller) notifySettled(channel fetchChannel, applied bool) {
	if c.settled != nil {
		c.settled(channel, applied)
	}
}

func fetchOutcome(err error) string {
	if err != nil {
		return "error"
	}
	return "applied"
}

// slotSelectable24 checks selectability by 24-hour value, so "10:00 AM" and
// "10:00" refer to the same slot.
func slotSelectable24(s SlotAvailability, clock string) bool {
	found := false
	for _, a := range s.Available {
		if To24Hour(a) == clock {
			found = true
			break
		}
	}
	if !found {
		return false
	}
	for _, u := range s.Unavailable {
		if To24Hour(u) == clock {
			return false
		}
	}
	return true
}
