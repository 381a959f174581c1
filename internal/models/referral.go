package models

import "time"

// Referral links a referrer to the user they brought in. The unique index on
// ReferredUserID guarantees at most one referral per referred account even
// under concurrent signup processing.
type Referral struct {
	ID                     uint      `json:"id" gorm:"primaryKey"`
	ReferrerID             uint      `json:"referrer_id" gorm:"index;not null"`
	ReferredUserID         uint      `json:"referred_user_id" gorm:"uniqueIndex;not null"`
	SignupBonusAwarded     bool      `json:"signup_bonus_awarded" gorm:"not null;default:false"`
	FirstVideoBonusAwarded bool      `json:"first_video_bonus_awarded" gorm:"not null;default:false"`
	CreatedAt              time.Time `json:"created_at"`
}

type ProcessReferralRequest struct {
	ReferralCode string `json:"referral_code" validate:"required"`
}

type ReferralSignupResult struct {
	FriendBonus   int `json:"friend_bonus"`
	ReferrerBonus int `json:"referrer_bonus"`
}

type ReferralEntry struct {
	ID             uint      `json:"id"`
	ReferredUserID uint      `json:"referred_user_id"`
	FullName       string    `json:"full_name"`
	Completed      bool      `json:"completed"`
	CreatedAt      time.Time `json:"created_at"`
}

type ReferralStats struct {
	ReferralCode       string          `json:"referral_code"`
	TotalReferrals     int64           `json:"total_referrals"`
	CompletedReferrals int64           `json:"completed_referrals"`
	TotalEarnings      int             `json:"total_earnings"`
	Referrals          []ReferralEntry `json:"referrals"`
}
