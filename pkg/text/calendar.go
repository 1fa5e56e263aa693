package text

import (
	"fmt"
	"time"

	cal "github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"
)

var (
	calendar = cal.NewBusinessCalendar()
)

func init() {
	calendar.AddHoliday(
		us.NewYear,
		us.MlkDay,
		us.PresidentsDay,
		us.MemorialDay,
		us.Juneteenth,
		us.IndependenceDay,
		us.LaborDay,
		us.ColumbusDay,
		us.VeteransDay,
		us.ThanksgivingDay,
		us.DayAfterThanksgivingDay,
		us.ChristmasDay,
	)
}

// HolidayName returns the name of the holiday on t, actual or observed.
func HolidayName(t time.Time) (string, bool) {
	actual, observed, h := calendar.IsHoliday(t)
	if (actual || observed) && h != nil {
		return h.Name, true
	}
	return "", false
}

// DayLabel formats a date and annotates holidays and weekends, e.g.
// "2024-12-25 Wed (Christmas Day)".
func DayLabel(t time.Time) string {
	label := t.Format("2006-01-02 Mon")
	if name, ok := HolidayName(t); ok {
		return fmt.Sprintf("%s (%s)", label, name)
	}
	if !calendar.IsWorkday(t) {
		return label + " (weekend)"
	}
	return label
}
