package service

import (
	"time"

	"github.com/draworld/draworld-backend/internal/models"
)

// Reward amounts, all in credits.
const (
	SignupBonusCredits        = 150
	DailyCheckInCredits       = 15
	ReferrerSignupCredits     = 30
	ReferredSignupCredits     = 50
	ReferrerFirstVideoCredits = 70
	VideoGenerationCost       = 60
)

// CheckInCooldown is a strict 24-hour window, not a calendar day. A check-in
// at 23h59m after the previous one is rejected.
const CheckInCooldown = 24 * time.Hour

// ShareRewardCredits maps share platforms to their reward.
var ShareRewardCredits = map[string]int{
	"tiktok":    100,
	"instagram": 100,
	"youtube":   100,
	"facebook":  50,
	"twitter":   50,
}

var validSpendSources = map[string]bool{
	models.SourceVideoGeneration: true,
}

// IsValidSpendSource reports whether a spend may be booked against source.
// Checked before any balance read.
func IsValidSpendSource(source string) bool {
	return validSpendSources[source]
}

// CanCheckIn reports whether a user may check in at now, and if not, when the
// next check-in becomes available.
func CanCheckIn(lastCheckinAt *time.Time, now time.Time) (bool, time.Time) {
	if lastCheckinAt == nil {
		return true, now
	}
	next := lastCheckinAt.Add(CheckInCooldown)
	return !now.Before(next), next
}
