package rewards

import "github.com/clawearning/backend/internal/models"

// ResetDay zeroes each day-scoped counter whose stored date is not today and
// stamps today. It reports whether anything changed; a second call on the
// same day is a no-op.
func ResetDay(a *models.Account, today string) bool {
	changed := false
	if a.LastAdDate != today {
		a.AdsWatchedToday = 0
		a.LastAdDate = today
		changed = true
	}
	if a.LastSpinDate != today {
		a.DailySpinsUsed = 0
		a.LastSpinDate = today
		changed = true
	}
	return changed
}
