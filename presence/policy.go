/*
policy.go - Edit-window policy

PURPOSE:
  Decides whether a given date is mutable by a given actor. Admins have no
  date-range restriction (weekends and holidays are still refused at the
  data-entry layer, but that is the caller's job via the resolver). Members
  may only touch the inclusive planning window [today, today+90].

  This check runs before every mutating action for non-admin actors. It
  deliberately knows nothing about weekends or holidays.
*/
package presence

// PlanningWindowDays is how far ahead members may plan, inclusive.
const PlanningWindowDays = 90

// IsWithinPlanningWindow reports whether date falls in [today, today+90].
func IsWithinPlanningWindow(date, today string) bool {
	return date >= today && date <= AddDays(today, PlanningWindowDays)
}

// IsEditable reports whether the actor may mutate the given date.
// today is passed in so callers evaluate one consistent calendar per request.
func IsEditable(date string, role Role, today string) bool {
	if role == RoleAdmin {
		return true
	}
	return IsWithinPlanningWindow(date, today)
}
