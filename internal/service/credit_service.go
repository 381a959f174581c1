package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/draworld/draworld-backend/internal/metrics"
	"github.com/draworld/draworld-backend/internal/models"
	"github.com/draworld/draworld-backend/internal/repository"
	"gorm.io/gorm"
)

// CreditService owns every mutation of a user's balance. Each operation runs
// as one DB transaction whose writes are guarded conditional updates, so the
// balance and the ledger can never diverge and concurrent callers cannot
// double-spend.
type CreditService struct {
	db              *gorm.DB
	transactionRepo *repository.TransactionRepository
	metrics         *metrics.Metrics
}

func NewCreditService(db *gorm.DB, transactionRepo *repository.TransactionRepository, m *metrics.Metrics) *CreditService {
	return &CreditService{
		db:              db,
		transactionRepo: transactionRepo,
		metrics:         m,
	}
}

// appendLedgerEntry writes one immutable ledger row inside tx.
func (s *CreditService) appendLedgerEntry(tx *gorm.DB, userID uint, txType string, amount int, description, source string, relatedID *string) error {
	if amount == 0 {
		return models.ErrInvalidArgument("ledger amount cannot be zero")
	}
	entry := &models.CreditTransaction{
		UserID:      userID,
		Type:        txType,
		Amount:      amount,
		Description: description,
		Source:      source,
		RelatedID:   relatedID,
	}
	return tx.Create(entry).Error
}

// recordLedger bumps the ledger counter. Call it only after the transaction
// that wrote the entry has committed, so rollbacks are never counted.
func (s *CreditService) recordLedger(source, txType string) {
	if s.metrics != nil {
		s.metrics.LedgerTransactions.WithLabelValues(source, txType).Inc()
	}
}

// GrantSignupBonus credits the initial balance. It must run inside the same
// transaction that creates the user, so an account can never exist without
// its grant.
func (s *CreditService) GrantSignupBonus(tx *gorm.DB, user *models.User) error {
	res := tx.Model(&models.User{}).
		Where("id = ?", user.ID).
		Update("credits", gorm.Expr("credits + ?", SignupBonusCredits))
	if res.Error != nil {
		return res.Error
	}
	user.Credits += SignupBonusCredits

	return s.appendLedgerEntry(tx, user.ID, models.TransactionTypeEarned, SignupBonusCredits,
		"Welcome bonus", models.SourceSignup, nil)
}

// DailyCheckIn awards the daily credits if at least 24 hours passed since the
// previous check-in. The cooldown check and the increment happen in one
// guarded UPDATE.
func (s *CreditService) DailyCheckIn(userID uint) (*models.CheckInResult, error) {
	var result models.CheckInResult

	err := s.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		cutoff := now.Add(-CheckInCooldown)

		res := tx.Model(&models.User{}).
			Where("id = ? AND (last_checkin_at IS NULL OR last_checkin_at <= ?)", userID, cutoff).
			Updates(map[string]interface{}{
				"credits":         gorm.Expr("credits + ?", DailyCheckInCredits),
				"last_checkin_at": now,
			})
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			var user models.User
			if err := tx.First(&user, userID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return models.ErrNotFound("user not found")
				}
				return err
			}
			_, next := CanCheckIn(user.LastCheckinAt, now)
			return models.ErrFailedPrecondition("already checked in today").
				WithDetail("next_checkin_at", next.Format(time.RFC3339))
		}

		if err := s.appendLedgerEntry(tx, userID, models.TransactionTypeEarned, DailyCheckInCredits,
			"Daily check-in reward", models.SourceCheckin, nil); err != nil {
			return err
		}

		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			return err
		}
		result = models.CheckInResult{
			CreditsEarned: DailyCheckInCredits,
			NewBalance:    user.Credits,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recordLedger(models.SourceCheckin, models.TransactionTypeEarned)
	return &result, nil
}

// SpendCredits deducts a positive amount from the balance. Input validation
// runs before any read; the sufficiency check and the decrement are one
// guarded UPDATE, so the balance can never go negative.
func (s *CreditService) SpendCredits(userID uint, req models.SpendCreditsRequest) (*models.SpendResult, error) {
	if req.Amount <= 0 {
		return nil, models.ErrInvalidArgument("amount must be positive")
	}
	if !IsValidSpendSource(req.Source) {
		return nil, models.ErrInvalidArgument(fmt.Sprintf("invalid spend source: %s", req.Source))
	}

	var result models.SpendResult

	err := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).
			Where("id = ? AND credits >= ?", userID, req.Amount).
			Update("credits", gorm.Expr("credits - ?", req.Amount))
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			var user models.User
			if err := tx.First(&user, userID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return models.ErrNotFound("user not found")
				}
				return err
			}
			return models.ErrFailedPrecondition("insufficient credits").
				WithDetail("balance", user.Credits).
				WithDetail("shortfall", req.Amount-user.Credits)
		}

		if err := s.appendLedgerEntry(tx, userID, models.TransactionTypeSpent, -req.Amount,
			req.Description, req.Source, req.RelatedID); err != nil {
			return err
		}

		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			return err
		}
		result = models.SpendResult{
			CreditsSpent: req.Amount,
			NewBalance:   user.Credits,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recordLedger(req.Source, models.TransactionTypeSpent)
	return &result, nil
}

// AwardCredits lets an admin award or deduct credits for any user. The caller
// role is checked against the users table, not just the token claim.
func (s *CreditService) AwardCredits(callerID uint, req models.AwardCreditsRequest) (*models.AwardResult, error) {
	if req.Amount <= 0 {
		return nil, models.ErrInvalidArgument("amount must be positive")
	}

	txType := req.Type
	if txType == "" {
		txType = models.TransactionTypeEarned
	}
	source := req.Source
	if source == "" {
		source = models.SourceAdminAward
	}

	var result models.AwardResult

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var caller models.User
		if err := tx.First(&caller, callerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrPermissionDenied("caller account not found")
			}
			return err
		}
		if !caller.IsAdmin() {
			return models.ErrPermissionDenied("admin role required")
		}

		delta := req.Amount
		ledgerAmount := req.Amount
		query := tx.Model(&models.User{}).Where("id = ?", req.UserID)
		if txType == models.TransactionTypeSpent {
			delta = -req.Amount
			ledgerAmount = -req.Amount
			// Deductions honor the non-negativity invariant as well.
			query = query.Where("credits >= ?", req.Amount)
		}

		res := query.Update("credits", gorm.Expr("credits + ?", delta))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var target models.User
			if err := tx.First(&target, req.UserID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return models.ErrNotFound("target user not found")
				}
				return err
			}
			return models.ErrFailedPrecondition("insufficient credits for deduction").
				WithDetail("balance", target.Credits)
		}

		if err := s.appendLedgerEntry(tx, req.UserID, txType, ledgerAmount,
			req.Description, source, req.RelatedID); err != nil {
			return err
		}

		var target models.User
		if err := tx.First(&target, req.UserID).Error; err != nil {
			return err
		}
		result = models.AwardResult{
			CreditsAwarded: delta,
			NewBalance:     target.Credits,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recordLedger(source, txType)
	return &result, nil
}

// AwardShareReward grants the social-share task reward, once per user,
// platform and video. Only the owner of a completed video can claim; the
// ShareClaim unique index makes concurrent duplicate claims first-writer-wins.
func (s *CreditService) AwardShareReward(userID uint, platform string, videoID uint) (*models.AwardResult, error) {
	reward, ok := ShareRewardCredits[platform]
	if !ok {
		return nil, models.ErrInvalidArgument(fmt.Sprintf("unsupported share platform: %s", platform))
	}

	relatedID := fmt.Sprintf("share:%s:%d", platform, videoID)
	var result models.AwardResult

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var video models.Video
		if err := tx.Where("id = ? AND user_id = ?", videoID, userID).First(&video).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrNotFound("video not found")
			}
			return err
		}
		if video.Status != models.VideoStatusCompleted {
			return models.ErrFailedPrecondition("video is not completed yet")
		}

		claim := &models.ShareClaim{
			UserID:   userID,
			Platform: platform,
			VideoID:  videoID,
		}
		if err := tx.Create(claim).Error; err != nil {
			if isDuplicateErr(err) {
				return models.ErrAlreadyExists("share reward already claimed")
			}
			return err
		}

		res := tx.Model(&models.User{}).
			Where("id = ?", userID).
			Update("credits", gorm.Expr("credits + ?", reward))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.ErrNotFound("user not found")
		}

		if err := s.appendLedgerEntry(tx, userID, models.TransactionTypeBonus, reward,
			fmt.Sprintf("Shared video on %s", platform), models.SourceSocialShare, &relatedID); err != nil {
			return err
		}

		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			return err
		}
		result = models.AwardResult{
			CreditsAwarded: reward,
			NewBalance:     user.Credits,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recordLedger(models.SourceSocialShare, models.TransactionTypeBonus)
	return &result, nil
}

const defaultHistoryPageSize = 50

// GetCreditHistory returns one page of the ledger, newest first. has_more is
// inferred from a full page, which is an approximation good enough for the UI.
func (s *CreditService) GetCreditHistory(userID uint, limit int, startAfter uint) (*models.CreditHistory, error) {
	if limit <= 0 || limit > 100 {
		limit = defaultHistoryPageSize
	}

	transactions, err := s.transactionRepo.GetUserHistory(userID, limit, startAfter)
	if err != nil {
		return nil, err
	}

	history := &models.CreditHistory{
		Transactions: transactions,
		HasMore:      len(transactions) == limit,
	}
	if len(transactions) > 0 {
		history.LastID = transactions[len(transactions)-1].ID
	}
	return history, nil
}
