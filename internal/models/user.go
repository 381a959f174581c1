package models

import (
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID                  uint       `json:"id" gorm:"primaryKey"`
	FullName            string     `json:"full_name" gorm:"not null"`
	Email               string     `json:"email" gorm:"unique;not null"`
	Password            string     `json:"-" gorm:"not null"`
	Credits             int        `json:"credits" gorm:"not null;default:0"`
	ReferralCode        string     `json:"referral_code" gorm:"uniqueIndex;not null"`
	ReferredBy          *uint      `json:"referred_by,omitempty" gorm:"index"`
	LastCheckinAt       *time.Time `json:"last_checkin_at,omitempty"`
	FirstVideoGenerated bool       `json:"first_video_generated" gorm:"not null;default:false"`
	Role                string     `json:"role" gorm:"not null;default:'user'"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
