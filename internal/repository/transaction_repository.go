package repository

import (
	"github.com/draworld/draworld-backend/internal/models"
	"gorm.io/gorm"
)

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{
		db: db,
	}
}

// GetUserHistory returns up to limit entries, newest first. startAfter is the
// id of the last entry from the previous page; zero means start from the top.
// Ledger ids are monotonically increasing, so id ordering matches created_at.
func (r *TransactionRepository) GetUserHistory(userID uint, limit int, startAfter uint) ([]models.CreditTransaction, error) {
	query := r.db.Where("user_id = ?", userID)
	if startAfter > 0 {
		query = query.Where("id < ?", startAfter)
	}

	var transactions []models.CreditTransaction
	err := query.Order("id DESC").Limit(limit).Find(&transactions).Error
	return transactions, err
}

// SumForUser recomputes the balance from the ledger.
func (r *TransactionRepository) SumForUser(userID uint) (int, error) {
	var total int64
	err := r.db.Model(&models.CreditTransaction{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return int(total), err
}

// SumForUserBySource totals ledger entries from one source, e.g. referral
// earnings for the stats endpoint.
func (r *TransactionRepository) SumForUserBySource(userID uint, source string) (int, error) {
	var total int64
	err := r.db.Model(&models.CreditTransaction{}).
		Where("user_id = ? AND source = ?", userID, source).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return int(total), err
}
