package booking

import "sort"

// SlotListState distinguishes "pick a date first" from a fetched-but-empty
// day; the two render differently even though both show no options.
type SlotListState string

const (
	// SlotListNoDate renders the "select a date first" placeholder.
	SlotListNoDate SlotListState = "no-date"
	// SlotListLoading renders a spinner while a slot fetch is in flight.
	SlotListLoading SlotListState = "loading"
	// SlotListEmpty renders "no availability" for a fetched day.
	SlotListEmpty SlotListState = "empty"
	// SlotListReady renders the selectable options.
	SlotListReady SlotListState = "ready"
)

// SlotOption is one rendered slot.
type SlotOption struct {
	Label      string `json:"label"` // display label, e.g. "10:00 AM"
	Value      string `json:"value"` // 24-hour "HH:MM"
	Selectable bool   `json:"selectable"`
	Selected   bool   `json:"selected"`
}

// SlotList is the rendered slot picker.
type SlotList struct {
	State   SlotListState `json:"state"`
	Options []SlotOption  `json:"options"`
}

// BuildSlotList renders the slot picker as a pure function of the fetched
// availability and the current selection. Options are ordered by clock time
// with unavailable slots kept in place but disabled; a label present in both
// sets renders disabled.
func BuildSlotList(slots SlotAvailability, selectedTime string, dateSelected, loading bool) SlotList {
	if !dateSelected {
		return SlotList{State: SlotListNoDate}
	}
	if loading {
		return SlotList{State: SlotListLoading}
	}

	seen := make(map[string]bool, len(slots.Available)+len(slots.Unavailable))
	options := make([]SlotOption, 0, len(slots.Available)+len(slots.Unavailable))
	add := func(label string) {
		value := To24Hour(label)
		if seen[value] {
			return
		}
		seen[value] = true
		options = append(options, SlotOption{
			Label:      label,
			Value:      value,
			Selectable: slots.IsSelectable(label),
			Selected:   selectedTime != "" && value == selectedTime,
		})
	}
	for _, label := range slots.Available {
		add(label)
	}
	for _, label := range slots.Unavailable {
		add(label)
	}
	if len(options) == 0 {
		return SlotList{State: SlotListEmpty}
	}

	sort.Slice(options, func(i, j int) bool { return options[i].Value < options[j].Value })
	return SlotList{State: SlotListReady, Options: options}
}
