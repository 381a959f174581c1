package service

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/draworld/draworld-backend/internal/metrics"
	"github.com/draworld/draworld-backend/internal/models"
	"github.com/draworld/draworld-backend/internal/repository"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	dbSeq   int64
	userSeq int64
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", atomic.AddInt64(&dbSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.CreditTransaction{},
		&models.ShareClaim{},
		&models.Referral{},
		&models.Video{},
		&models.CreditPackage{},
		&models.Payment{},
	)
	if err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	return db
}

func newTestCreditService(db *gorm.DB) *CreditService {
	return NewCreditService(db, repository.NewTransactionRepository(db), metrics.Registry("draworld"))
}

func newTestReferralService(db *gorm.DB) *ReferralService {
	creditService := newTestCreditService(db)
	return NewReferralService(
		db,
		repository.NewUserRepository(db),
		repository.NewReferralRepository(db),
		repository.NewTransactionRepository(db),
		creditService,
	)
}

// createTestUser inserts a user and, when credits are non-zero, a matching
// seed ledger entry so the balance invariant holds from the start.
func createTestUser(t *testing.T, db *gorm.DB, credits int) *models.User {
	t.Helper()

	n := atomic.AddInt64(&userSeq, 1)
	user := &models.User{
		FullName:     fmt.Sprintf("Test User %d", n),
		Email:        fmt.Sprintf("user%d@example.com", n),
		Password:     "hashed",
		Credits:      credits,
		ReferralCode: fmt.Sprintf("CODE%04d", n),
		Role:         models.RoleUser,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create test user: %v", err)
	}

	if credits != 0 {
		entry := &models.CreditTransaction{
			UserID:      user.ID,
			Type:        models.TransactionTypeEarned,
			Amount:      credits,
			Description: "Welcome bonus",
			Source:      models.SourceSignup,
		}
		if err := db.Create(entry).Error; err != nil {
			t.Fatalf("create seed ledger entry: %v", err)
		}
	}

	return user
}

func reloadUser(t *testing.T, db *gorm.DB, id uint) *models.User {
	t.Helper()
	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		t.Fatalf("reload user %d: %v", id, err)
	}
	return &user
}

// assertBalanceMatchesLedger checks the core invariant: cached credits equal
// the signed sum of all ledger entries for the user.
func assertBalanceMatchesLedger(t *testing.T, db *gorm.DB, userID uint) {
	t.Helper()

	user := reloadUser(t, db, userID)

	var sum int64
	err := db.Model(&models.CreditTransaction{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sum).Error
	if err != nil {
		t.Fatalf("sum ledger: %v", err)
	}

	if int(sum) != user.Credits {
		t.Fatalf("balance %d does not match ledger sum %d for user %d", user.Credits, sum, userID)
	}
}

func countLedgerEntries(t *testing.T, db *gorm.DB, userID uint, source string) int64 {
	t.Helper()

	var count int64
	err := db.Model(&models.CreditTransaction{}).
		Where("user_id = ? AND source = ?", userID, source).
		Count(&count).Error
	if err != nil {
		t.Fatalf("count ledger entries: %v", err)
	}
	return count
}

func appCode(t *testing.T, err error) string {
	t.Helper()

	appErr, ok := err.(*models.AppError)
	if !ok {
		t.Fatalf("expected AppError, got %T: %v", err, err)
	}
	return appErr.Code
}
