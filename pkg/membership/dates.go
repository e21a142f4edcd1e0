package membership

import (
	"fmt"
	"time"
)

// TimeZone is the organization's fixed timezone; membership dates are
// computed in it regardless of where the server runs.
const TimeZone = "America/Los_Angeles"

func orgLocation() *time.Location {
	loc, err := time.LoadLocation(TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// MembershipPeriod computes the start and end of a membership beginning now.
// The end date follows calendar semantics with end-of-month clamping: Jan 31
// plus one month lands on the last day of February, Feb 29 plus one year on
// Feb 28 when the target year is not a leap year.
func MembershipPeriod(now time.Time, term Term) (start, end time.Time) {
	start = now.In(orgLocation())
	if term == TermMonth {
		end = AddCalendarMonths(start, 1)
	} else {
		end = AddCalendarMonths(start, 12)
	}
	return start, end
}

// AddCalendarMonths adds months with end-of-month clamping. time.AddDate
// normalizes overflow days into the next month instead, which is wrong for
// membership terms.
func AddCalendarMonths(t time.Time, months int) time.Time {
	firstOfTarget := time.Date(t.Year(), t.Month(), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location()).AddDate(0, months, 0)

	day := t.Day()
	if last := daysInMonth(firstOfTarget.Year(), firstOfTarget.Month()); day > last {
		day = last
	}

	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// FormatDate serializes a date for CRM writes.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// OpportunityName derives the membership record name shown in the CRM.
func OpportunityName(firstName, lastName string, level Level, start time.Time) string {
	return fmt.Sprintf("%s %s - %s %s", firstName, lastName, level, start.Format("01/02/2006"))
}
