package repository

import (
	"github.com/draworld/draworld-backend/internal/models"
	"gorm.io/gorm"
)

type ReferralRepository struct {
	db *gorm.DB
}

func NewReferralRepository(db *gorm.DB) *ReferralRepository {
	return &ReferralRepository{
		db: db,
	}
}

func (r *ReferralRepository) GetByReferredUser(userID uint) (*models.Referral, error) {
	var referral models.Referral
	err := r.db.Where("referred_user_id = ?", userID).First(&referral).Error
	return &referral, err
}

func (r *ReferralRepository) GetByReferrer(referrerID uint) ([]models.Referral, error) {
	var referrals []models.Referral
	err := r.db.Where("referrer_id = ?", referrerID).
		Order("created_at DESC").
		Find(&referrals).Error
	return referrals, err
}

// ReferralWithName is a referral row joined with the referred user's name.
type ReferralWithName struct {
	models.Referral
	ReferredName string
}

// GetByReferrerWithNames fetches a referrer's rows with the referred users'
// names in a single joined query.
func (r *ReferralRepository) GetByReferrerWithNames(referrerID uint) ([]ReferralWithName, error) {
	var rows []ReferralWithName
	err := r.db.Model(&models.Referral{}).
		Select("referrals.*, users.full_name AS referred_name").
		Joins("JOIN users ON users.id = referrals.referred_user_id").
		Where("referrals.referrer_id = ?", referrerID).
		Order("referrals.created_at DESC").
		Scan(&rows).Error
	return rows, err
}

func (r *ReferralRepository) CountByReferrer(referrerID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Referral{}).
		Where("referrer_id = ?", referrerID).
		Count(&count).Error
	return count, err
}

func (r *ReferralRepository) CountCompletedByReferrer(referrerID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Referral{}).
		Where("referrer_id = ? AND first_video_bonus_awarded = ?", referrerID, true).
		Count(&count).Error
	return count, err
}
