/*
resolver.go - Effective status resolution

PURPOSE:
  The single place where "what is true for this date" is decided. Both the
  team aggregator and the schedule matcher call Resolve, so their views of a
  date can never diverge.

PRECEDENCE (highest first):
  weekend > holiday > explicit entry status > implicit wfh

  A stored office entry on a Saturday still resolves to weekend; a stored
  leave entry on a holiday still resolves to holiday. The stored record is
  only visible on working days.
*/
package presence

// Resolve derives the effective status for a date from the holiday facts
// and the raw entry, if any. Pure; no I/O.
func Resolve(date string, holidays HolidaySet, entry *Entry) EffectiveStatus {
	if IsWeekend(date) {
		return EffectiveWeekend
	}
	if holidays.Contains(date) {
		return EffectiveHoliday
	}
	if entry != nil {
		switch entry.Status {
		case StatusOffice:
			return EffectiveOffice
		case StatusLeave:
			return EffectiveLeave
		}
	}
	return EffectiveWFH
}

// ResolveFromMap is Resolve with a date-keyed entry map, the shape both the
// matcher and the aggregator hold their fetched entries in.
func ResolveFromMap(date string, holidays HolidaySet, entries map[string]Entry) EffectiveStatus {
	if e, ok := entries[date]; ok {
		return Resolve(date, holidays, &e)
	}
	return Resolve(date, holidays, nil)
}
