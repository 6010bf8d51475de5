package booking

import "time"

// DayCell is one rendered calendar cell.
type DayCell struct {
	Date       time.Time `json:"-"`
	ISO        string    `json:"date"`
	Day        int       `json:"day"`
	InMonth    bool      `json:"in_month"`
	Today      bool      `json:"today"`
	Selectable bool      `json:"selectable"`
	Selected   bool      `json:"selected"`
}

// MonthGrid is a rendered month: full weeks from Sunday to Saturday, with
// leading and trailing cells from the adjacent months disabled.
type MonthGrid struct {
	Year  int          `json:"year"`
	Month time.Month   `json:"month"`
	Label string       `json:"label"`
	Weeks [][7]DayCell `json:"weeks"`
}

// BuildMonthGrid renders the month containing cursor as a pure function of
// the fetched availability, the selected date and today. The month cursor is
// view state only; it never feeds back into the selection.
func BuildMonthGrid(cursor time.Time, avail DateAvailability, selected *time.Time, today time.Time) MonthGrid {
	first := time.Date(cursor.Year(), cursor.Month(), 1, 0, 0, 0, 0, cursor.Location())
	grid := MonthGrid{
		Year:  first.Year(),
		Month: first.Month(),
		Label: first.Format("January 2006"),
	}

	// Walk from the Sunday on or before the 1st until the month is covered.
	cell := first.AddDate(0, 0, -int(first.Weekday()))
	for {
		var week [7]DayCell
		for i := 0; i < 7; i++ {
			inMonth := cell.Month() == first.Month()
			week[i] = DayCell{
				Date:       cell,
				ISO:        LocalISODate(cell),
				Day:        cell.Day(),
				InMonth:    inMonth,
				Today:      sameDay(cell, today),
				Selectable: inMonth && avail.IsSelectable(cell, today),
				Selected:   selected != nil && sameDay(cell, *selected),
			}
			cell = cell.AddDate(0, 0, 1)
		}
		grid.Weeks = append(grid.Weeks, week)
		if cell.Month() != first.Month() {
			break
		}
	}
	return grid
}

// DefaultMonthCursor picks the starting month for a freshly opened calendar:
// the month of the selected date when one exists, otherwise today's.
func DefaultMonthCursor(selected *time.Time, today time.Time) time.Time {
	if selected != nil {
		return *selected
	}
	return today
}
