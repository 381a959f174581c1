package models

import "time"

// Transaction types
const (
	TransactionTypeEarned = "earned"
	TransactionTypeSpent  = "spent"
	TransactionTypeBonus  = "bonus"
)

// Transaction sources
const (
	SourceSignup          = "signup"
	SourceCheckin         = "checkin"
	SourceReferral        = "referral"
	SourcePurchase        = "purchase"
	SourceVideoGeneration = "video_generation"
	SourceAdminAward      = "admin_award"
	SourceSocialShare     = "social_share"
)

// CreditTransaction is one immutable ledger entry. Amount is signed:
// positive for earned/bonus, negative for spent, never zero.
type CreditTransaction struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UserID      uint      `json:"user_id" gorm:"index;not null"`
	Type        string    `json:"type" gorm:"not null"`
	Amount      int       `json:"amount" gorm:"not null"`
	Description string    `json:"description" gorm:"not null"`
	Source      string    `json:"source" gorm:"index;not null"`
	RelatedID   *string   `json:"related_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ShareClaim records one social-share reward claim. The composite unique
// index is the dedup: concurrent claims for the same video and platform
// collide at the constraint, not in application code.
type ShareClaim struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"uniqueIndex:idx_share_claims_user_platform_video;not null"`
	Platform  string    `json:"platform" gorm:"uniqueIndex:idx_share_claims_user_platform_video;not null"`
	VideoID   uint      `json:"video_id" gorm:"uniqueIndex:idx_share_claims_user_platform_video;not null"`
	CreatedAt time.Time `json:"created_at"`
}

type SpendCreditsRequest struct {
	Amount      int     `json:"amount" validate:"required,gt=0"`
	Description string  `json:"description" validate:"required"`
	Source      string  `json:"source" validate:"required"`
	RelatedID   *string `json:"related_id"`
}

type AwardCreditsRequest struct {
	UserID      uint    `json:"user_id" validate:"required"`
	Amount      int     `json:"amount" validate:"required,gt=0"`
	Description string  `json:"description" validate:"required"`
	Type        string  `json:"type" validate:"omitempty,oneof=earned spent"`
	Source      string  `json:"source"`
	RelatedID   *string `json:"related_id"`
}

type CheckInResult struct {
	CreditsEarned int `json:"credits_earned"`
	NewBalance    int `json:"new_balance"`
}

type SpendResult struct {
	CreditsSpent int `json:"credits_spent"`
	NewBalance   int `json:"new_balance"`
}

type AwardResult struct {
	CreditsAwarded int `json:"credits_awarded"`
	NewBalance     int `json:"new_balance"`
}

type CreditHistory struct {
	Transactions []CreditTransaction `json:"transactions"`
	HasMore      bool                `json:"has_more"`
	LastID       uint                `json:"last_id"`
}
