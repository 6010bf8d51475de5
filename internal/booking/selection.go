package booking

import (
	"context"
	"strings"
	"time"
)

// DateAvailability holds one barber's fetched calendar availability. Each
// surface holds at most one of these; a new fetch replaces it wholesale.
type DateAvailability struct {
	Available   []time.Time
	Unavailable []time.Time
}

// IsSelectable reports whether a calendar day can be picked: it must appear
// in Available, must not appear in Unavailable, and must not be before
// today. When Available is empty nothing is selectable, even if Unavailable
// has entries.
func (d DateAvailability) IsSelectable(day, today time.Time) bool {
	if midnight(day).Before(midnight(today)) {
		return false
	}
	found := false
	for _, a := range d.Available {
		if sameDay(a, day) {
			found = true
			break
		}
	}
	if !found {
		return false
	}
	for _, u := range d.Unavailable {
		if sameDay(u, day) {
			return false
		}
	}
	return true
}

// SlotAvailability holds the slot labels fetched for one
// (date, barber, services) tuple.
type SlotAvailability struct {
	Available   []string
	Unavailable []string
}

// IsSelectable reports whether a slot label can be picked: present in
// Available and absent from Unavailable.
func (s SlotAvailability) IsSelectable(label string) bool {
	found := false
	for _, a := range s.Available {
		if a == label {
			found = true
			break
		}
	}
	if !found {
		return false
	}
	for _, u := range s.Unavailable {
		if u == label {
			return false
		}
	}
	return true
}

// Gateway is the external availability collaborator. Implementations fetch
// from the public, admin or barber endpoint family; the controller treats
// all of them as the same black box.
type Gateway interface {
	// FetchDates returns the barber's open and closed calendar days,
	// normalized to local midnight.
	FetchDates(ctx context.Context, barberID int) (DateAvailability, error)

	// FetchSlots returns slot labels for a date. The full service id list
	// must be passed on every call: omitting it sizes slots for a zero
	// duration on the server.
	FetchSlots(ctx context.Context, dateISO string, barberID int, serviceIDs []int) (SlotAvailability, error)
}

// Selection is the in-progress set of choices for one booking. It is owned
// exclusively by its controller and mutated only through the setters.
type Selection struct {
	BarberID   int        // 0 means not chosen
	ServiceIDs []int
	Date       *time.Time // local midnight, nil means not chosen
	Time       string     // "HH:MM", empty means not chosen
}

// Valid reports whether the dependency chain holds: a time requires a date,
// a date requires a barber.
func (s Selection) Valid() bool {
	if s.Time != "" && s.Date == nil {
		return false
	}
	if s.Date != nil && s.BarberID == 0 {
		return false
	}
	return true
}

func (s Selection) clone() Selection {
	out := s
	out.ServiceIDs = append([]int(nil), s.ServiceIDs...)
	if s.Date != nil {
		d := *s.Date
		out.Date = &d
	}
	return out
}

// Seed is the pre-populated starting selection for a surface. Edit flows
// seed from an existing appointment; the staff surface seeds the pinned
// barber only.
type Seed struct {
	BarberID   int
	ServiceIDs []int
	Date       string // ISO date, or a combined display string with the time
	Time       string // "HH:MM" or "h:mm AM/PM" label
}

// SurfaceConfig parameterizes one controller for a product surface. The four
// surfaces are configurations of the same machine, not copies of it.
type SurfaceConfig struct {
	// Name identifies the surface in logs and metrics.
	Name string

	// HideBarberSelection pins the seeded barber; SetBarber is rejected.
	// Used by the staff self-service surface.
	HideBarberSelection bool

	// KeepSeededSelection preserves a seeded date and time through the
	// initial fetches instead of clearing them, so an edit surface does
	// not blank out the appointment's current slot before availability
	// resolves. New-booking surfaces leave this false.
	KeepSeededSelection bool

	Seed *Seed
}

// PublicSurface is the client-facing booking form.
func PublicSurface() SurfaceConfig {
	return SurfaceConfig{Name: "public"}
}

// AdminNewSurface is the admin "new slot" form.
func AdminNewSurface() SurfaceConfig {
	return SurfaceConfig{Name: "admin-new"}
}

// AdminEditSurface edits an existing appointment; the seeded date and time
// survive the initial availability fetch.
func AdminEditSurface(seed Seed) SurfaceConfig {
	return SurfaceConfig{Name: "admin-edit", KeepSeededSelection: true, Seed: &seed}
}

// StaffSurface is a barber booking on their own calendar. The barber is
// pinned from the authenticated session and cannot be changed.
func StaffSurface(barberID int) SurfaceConfig {
	return SurfaceConfig{
		Name:                "staff",
		HideBarberSelection: true,
		Seed:                &Seed{BarberID: barberID},
	}
}

// selectionFromSeed builds the initial Selection for a surface. Unparseable
// date or time shapes seed empty so the surface degrades to "re-pick" rather
// than failing to open.
func selectionFromSeed(seed *Seed) Selection {
	if seed == nil {
		return Selection{}
	}
	sel := Selection{
		BarberID:   seed.BarberID,
		ServiceIDs: append([]int(nil), seed.ServiceIDs...),
	}
	date, clock := parseSeedDateTime(seed.Date, seed.Time)
	if date != nil && sel.BarberID != 0 {
		sel.Date = date
		sel.Time = clock
	}
	return sel
}

// parseSeedDateTime normalizes the date/time shapes appointment records
// carry. dateStr may be ISO ("2025-12-24") or a combined display string
// ("December 24, 2025, 10:00 AM"); timeStr may be 24-hour or a 12-hour
// label. A time without a parseable date is dropped.
func parseSeedDateTime(dateStr, timeStr string) (*time.Time, string) {
	dateStr = strings.TrimSpace(dateStr)
	timeStr = strings.TrimSpace(timeStr)

	var date *time.Time
	clock := ""

	if dateStr != "" {
		if d, err := ParseLocalISODate(dateStr); err == nil {
			date = &d
		} else if d, err := time.ParseInLocation(displayDTLayout, dateStr, time.Local); err == nil {
			day := midnight(d)
			date = &day
			clock = d.Format(clock24hLayout)
		}
	}
	if date == nil {
		return nil, ""
	}

	if timeStr != "" {
		converted := To24Hour(timeStr)
		if _, err := time.Parse(clock24hLayout, converted); err == nil {
			clock = converted
		}
	}
	return date, clock
}
