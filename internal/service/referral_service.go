package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/draworld/draworld-backend/internal/models"
	"github.com/draworld/draworld-backend/internal/repository"
	"gorm.io/gorm"
)

type ReferralService struct {
	db              *gorm.DB
	userRepo        *repository.UserRepository
	referralRepo    *repository.ReferralRepository
	transactionRepo *repository.TransactionRepository
	creditService   *CreditService
}

func NewReferralService(db *gorm.DB, userRepo *repository.UserRepository, referralRepo *repository.ReferralRepository, transactionRepo *repository.TransactionRepository, creditService *CreditService) *ReferralService {
	return &ReferralService{
		db:              db,
		userRepo:        userRepo,
		referralRepo:    referralRepo,
		transactionRepo: transactionRepo,
		creditService:   creditService,
	}
}

func isDuplicateErr(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}

// ProcessReferralSignup links a freshly signed-up user to the owner of the
// referral code and pays both sides. The unique index on referred_user_id
// makes the whole operation first-writer-wins under concurrent attempts.
func (s *ReferralService) ProcessReferralSignup(userID uint, code string) (*models.ReferralSignupResult, error) {
	var result models.ReferralSignupResult

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var referrer models.User
		if err := tx.Where("referral_code = ?", code).First(&referrer).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrNotFound("invalid referral code")
			}
			return err
		}
		if referrer.ID == userID {
			return models.ErrInvalidArgument("you cannot use your own referral code")
		}

		var referred models.User
		if err := tx.First(&referred, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrNotFound("user not found")
			}
			return err
		}
		if referred.ReferredBy != nil {
			return models.ErrAlreadyExists("account was already referred")
		}

		referral := &models.Referral{
			ReferrerID:         referrer.ID,
			ReferredUserID:     userID,
			SignupBonusAwarded: true,
		}
		if err := tx.Create(referral).Error; err != nil {
			if isDuplicateErr(err) {
				return models.ErrAlreadyExists("account was already referred")
			}
			return err
		}
		relatedID := fmt.Sprintf("referral:%d", referral.ID)

		// Friend side: bonus credits plus the referred_by link.
		res := tx.Model(&models.User{}).
			Where("id = ?", userID).
			Updates(map[string]interface{}{
				"credits":     gorm.Expr("credits + ?", ReferredSignupCredits),
				"referred_by": referrer.ID,
			})
		if res.Error != nil {
			return res.Error
		}
		if err := s.creditService.appendLedgerEntry(tx, userID, models.TransactionTypeBonus,
			ReferredSignupCredits, "Referral signup bonus", models.SourceReferral, &relatedID); err != nil {
			return err
		}

		// Referrer side.
		res = tx.Model(&models.User{}).
			Where("id = ?", referrer.ID).
			Update("credits", gorm.Expr("credits + ?", ReferrerSignupCredits))
		if res.Error != nil {
			return res.Error
		}
		if err := s.creditService.appendLedgerEntry(tx, referrer.ID, models.TransactionTypeEarned,
			ReferrerSignupCredits, fmt.Sprintf("Referral reward: %s signed up", referred.FullName),
			models.SourceReferral, &relatedID); err != nil {
			return err
		}

		result = models.ReferralSignupResult{
			FriendBonus:   ReferredSignupCredits,
			ReferrerBonus: ReferrerSignupCredits,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.creditService.recordLedger(models.SourceReferral, models.TransactionTypeBonus)
	s.creditService.recordLedger(models.SourceReferral, models.TransactionTypeEarned)
	return &result, nil
}

// AwardFirstVideoBonus pays the referrer when the referred user completes
// their first video. Must run inside the transaction that marks the video
// completed. Returns false when the user has no pending referral, which is
// the common case and not an error.
func (s *ReferralService) AwardFirstVideoBonus(tx *gorm.DB, userID uint) (bool, error) {
	res := tx.Model(&models.Referral{}).
		Where("referred_user_id = ? AND first_video_bonus_awarded = ?", userID, false).
		Update("first_video_bonus_awarded", true)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	var referral models.Referral
	if err := tx.Where("referred_user_id = ?", userID).First(&referral).Error; err != nil {
		return false, err
	}
	relatedID := fmt.Sprintf("referral:%d", referral.ID)

	if err := tx.Model(&models.User{}).
		Where("id = ?", referral.ReferrerID).
		Update("credits", gorm.Expr("credits + ?", ReferrerFirstVideoCredits)).Error; err != nil {
		return false, err
	}

	if err := s.creditService.appendLedgerEntry(tx, referral.ReferrerID, models.TransactionTypeEarned,
		ReferrerFirstVideoCredits, "Referral reward: friend created their first video",
		models.SourceReferral, &relatedID); err != nil {
		return false, err
	}

	return true, nil
}

// GetReferralStats aggregates a user's referral activity. Earnings come from
// the ledger, not from re-multiplying reward constants.
func (s *ReferralService) GetReferralStats(userID uint) (*models.ReferralStats, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound("user not found")
		}
		return nil, err
	}

	total, err := s.referralRepo.CountByReferrer(userID)
	if err != nil {
		return nil, err
	}
	completed, err := s.referralRepo.CountCompletedByReferrer(userID)
	if err != nil {
		return nil, err
	}
	earnings, err := s.transactionRepo.SumForUserBySource(userID, models.SourceReferral)
	if err != nil {
		return nil, err
	}

	referrals, err := s.referralRepo.GetByReferrerWithNames(userID)
	if err != nil {
		return nil, err
	}

	entries := make([]models.ReferralEntry, 0, len(referrals))
	for _, ref := range referrals {
		entries = append(entries, models.ReferralEntry{
			ID:             ref.ID,
			ReferredUserID: ref.ReferredUserID,
			FullName:       ref.ReferredName,
			Completed:      ref.FirstVideoBonusAwarded,
			CreatedAt:      ref.CreatedAt,
		})
	}

	return &models.ReferralStats{
		ReferralCode:       user.ReferralCode,
		TotalReferrals:     total,
		CompletedReferrals: completed,
		TotalEarnings:      earnings,
		Referrals:          entries,
	}, nil
}
