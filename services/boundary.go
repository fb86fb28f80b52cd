package services

import (
	"time"

	"github.com/possibull/possiblejourney-sub000/models"
)

// BoundaryResolver computes the absolute instant at which a program day
// closes, from the program's configured end-of-day time of day.
type BoundaryResolver struct {
	Hour   int
	Minute int
}

// NewBoundaryResolver creates a resolver for the given end-of-day time.
func NewBoundaryResolver(hour, minute int) BoundaryResolver {
	return BoundaryResolver{Hour: hour, Minute: minute}
}

// ResolverForProgram creates a resolver from a program's end-of-day settings.
func ResolverForProgram(p *models.Program) BoundaryResolver {
	return BoundaryResolver{Hour: p.EndOfDayHour, Minute: p.EndOfDayMinute}
}

// EndOfDay returns the closing instant of the app day whose calendar day
// contains day. End-of-day hours before noon are past-midnight end times and
// land on the following calendar day; hours at or after noon land on the same
// calendar day.
func (b BoundaryResolver) EndOfDay(day time.Time) time.Time {
	ref := StartOfDay(day)
	if b.Hour < 12 {
		ref = ref.AddDate(0, 0, 1)
	}
	return time.Date(ref.Year(), ref.Month(), ref.Day(), b.Hour, b.Minute, 0, 0, ref.Location())
}

// NextBoundaryAfter returns the instant after which the day following day can
// become active: the later of the day's end-of-day boundary and the following
// midnight. A very early (or zero) end-of-day setting cannot activate the next
// day before the calendar rolls over.
func (b BoundaryResolver) NextBoundaryAfter(day time.Time) time.Time {
	eod := b.EndOfDay(day)
	midnight := StartOfDay(day).AddDate(0, 0, 1)
	if eod.After(midnight) {
		return eod
	}
	return midnight
}

// AppDayStart returns the opening instant of the app day whose calendar day
// contains day: the previous day's end-of-day boundary.
func (b BoundaryResolver) AppDayStart(day time.Time) time.Time {
	return b.EndOfDay(StartOfDay(day).AddDate(0, 0, -1))
}

// StartOfDay truncates a timestamp to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
