package progress

import "errors"

// ErrBackdatedActivity is returned when activity is recorded for a day before
// the last recorded study day.
var ErrBackdatedActivity = errors.New("activity day is before the last study day")

// Streak tracks consecutive study days. A nil LastStudyDay means no history.
type Streak struct {
	Current      int   `json:"currentStreak"`
	Longest      int   `json:"longestStreak"`
	LastStudyDay *Date `json:"lastStudyDay"`
}

// HasHistory reports whether any study day was ever recorded.
func (s Streak) HasHistory() bool { return s.LastStudyDay != nil }

// Record applies one day of study activity and returns the new streak.
//
//	no history        -> current = 1
//	same day          -> unchanged
//	next day          -> current + 1
//	gap of 2+ days    -> current = 1
//	earlier day       -> ErrBackdatedActivity, s unchanged
//
// Longest never decreases.
func (s Streak) Record(day Date) (Streak, error) {
	next := s
	if s.LastStudyDay == nil {
		next.Current = 1
	} else {
		switch diff := day.DaysSince(*s.LastStudyDay); {
		case diff < 0:
			return s, ErrBackdatedActivity
		case diff == 0:
		case diff == 1:
			next.Current = s.Current + 1
		default:
			next.Current = 1
		}
	}
	if next.Current > next.Longest {
		next.Longest = next.Current
	}
	d := day
	next.LastStudyDay = &d
	return next, nil
}
