package core

// Period is an inclusive range of civil dates.
type Period struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

// Contains reports whether d falls within [Start, End], both ends inclusive.
func (p Period) Contains(d Date) bool {
	return !d.Before(p.Start.Time) && !d.After(p.End.Time)
}

// Days returns the number of calendar days covered by the period.
func (p Period) Days() int {
	return int(p.End.Sub(p.Start.Time).Hours()/24) + 1
}

// ResolveMonthRange returns the custom month named (year, month) for the given month start day.
//
// With monthStartDay 1 this is the calendar month. Otherwise the custom month begins on
// monthStartDay of the previous calendar month and ends the day before the next custom
// month begins. A start day beyond the length of a month is clamped to that month's last
// day, so consecutive custom months always tile the calendar without gaps or overlaps.
func ResolveMonthRange(year, month, monthStartDay int) (Period, error) {
	if month < 1 || month > 12 {
		return Period{}, ErrInvalidMonth
	}
	if err := ValidateMonthStartDay(monthStartDay); err != nil {
		return Period{}, err
	}

	ny, nm := nextMonth(year, month)
	return Period{
		Start: customMonthStart(year, month, monthStartDay),
		End:   customMonthStart(ny, nm, monthStartDay).AddDays(-1),
	}, nil
}

// MonthOf returns the custom month (year, month) that contains d.
func MonthOf(d Date, monthStartDay int) (year, month int) {
	year, month = d.Year(), d.Month()
	if monthStartDay <= 1 {
		return year, month
	}
	ny, nm := nextMonth(year, month)
	if !d.Before(customMonthStart(ny, nm, monthStartDay).Time) {
		return ny, nm
	}
	return year, month
}

func ValidateMonthStartDay(day int) error {
	if day < 1 || day > 31 {
		return NewValidationError("monthStartDay", "must be between 1 and 31")
	}
	return nil
}

func customMonthStart(year, month, monthStartDay int) Date {
	if monthStartDay == 1 {
		return NewDate(year, month, 1)
	}
	py, pm := prevMonth(year, month)
	return NewDate(py, pm, min(monthStartDay, DaysIn(py, pm)))
}

func prevMonth(year, month int) (int, int) {
	if month == 1 {
		return year - 1, 12
	}
	return year, month - 1
}

func nextMonth(year, month int) (int, int) {
	if month == 12 {
		return year + 1, 1
	}
	return year, month + 1
}
