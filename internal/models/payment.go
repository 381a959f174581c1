package models

import "time"

// Payment statuses
const (
	PaymentStatusPending   = "pending"
	PaymentStatusSucceeded = "succeeded"
	PaymentStatusFailed    = "failed"
	PaymentStatusCanceled  = "canceled"
)

type CreditPackage struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"not null"`
	Description  string    `json:"description"`
	Credits      int       `json:"credits" gorm:"not null"`
	BonusCredits int       `json:"bonus_credits" gorm:"not null;default:0"`
	Price        float64   `json:"price" gorm:"not null"`
	IsActive     bool      `json:"is_active" gorm:"default:true"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Payment tracks one purchase attempt, keyed by the Stripe PaymentIntent id.
type Payment struct {
	ID           string    `json:"id" gorm:"primaryKey"`
	UserID       uint      `json:"user_id" gorm:"index;not null"`
	PackageID    uint      `json:"package_id" gorm:"not null"`
	Amount       int64     `json:"amount" gorm:"not null"` // cents
	Credits      int       `json:"credits" gorm:"not null"`
	BonusCredits int       `json:"bonus_credits" gorm:"not null;default:0"`
	Status       string    `json:"status" gorm:"not null;default:'pending'"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type CheckoutResult struct {
	PaymentIntentID string `json:"payment_intent_id"`
	ClientSecret    string `json:"client_secret"`
	Amount          int64  `json:"amount"`
	Credits         int    `json:"credits"`
	BonusCredits    int    `json:"bonus_credits"`
}
