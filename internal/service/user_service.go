package service

import (
	"errors"

	"github.com/draworld/draworld-backend/internal/models"
	"github.com/draworld/draworld-backend/internal/repository"
	"gorm.io/gorm"
)

type UserService struct {
	db       *gorm.DB
	userRepo *repository.UserRepository
}

func NewUserService(db *gorm.DB, userRepo *repository.UserRepository) *UserService {
	return &UserService{
		db:       db,
		userRepo: userRepo,
	}
}

func (s *UserService) GetUserByID(id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound("user not found")
		}
		return nil, err
	}
	return user, nil
}

// DeleteAccount removes the user and everything they own in one transaction:
// ledger entries, referral links, videos and payments.
func (s *UserService) DeleteAccount(userID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrNotFound("user not found")
			}
			return err
		}

		if err := tx.Where("user_id = ?", userID).Delete(&models.CreditTransaction{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.ShareClaim{}).Error; err != nil {
			return err
		}
		if err := tx.Where("referrer_id = ? OR referred_user_id = ?", userID, userID).Delete(&models.Referral{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.Video{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.Payment{}).Error; err != nil {
			return err
		}

		return tx.Delete(&user).Error
	})
}
