package service

import (
	"testing"

	"github.com/draworld/draworld-backend/internal/models"
	"github.com/draworld/draworld-backend/internal/repository"
	"gorm.io/gorm"
)

func newTestUserService(db *gorm.DB) *UserService {
	return NewUserService(db, repository.NewUserRepository(db))
}

func TestGetUserByID(t *testing.T) {
	db := newTestDB(t)
	svc := newTestUserService(db)

	user := createTestUser(t, db, 150)

	got, err := svc.GetUserByID(user.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if got.Email != user.Email || got.Credits != 150 {
		t.Errorf("got %+v", got)
	}

	_, err = svc.GetUserByID(99999)
	if err == nil {
		t.Fatal("expected error for unknown user")
	}
	if code := appCode(t, err); code != models.CodeNotFound {
		t.Errorf("code = %s, want %s", code, models.CodeNotFound)
	}
}

func TestDeleteAccount(t *testing.T) {
	db := newTestDB(t)
	svc := newTestUserService(db)
	referralSvc := newTestReferralService(db)

	referrer := createTestUser(t, db, 0)
	user := createTestUser(t, db, 100)

	if _, err := referralSvc.ProcessReferralSignup(user.ID, referrer.ReferralCode); err != nil {
		t.Fatalf("referral: %v", err)
	}
	video := &models.Video{UserID: user.ID, Title: "Doodle", Status: models.VideoStatusCompleted}
	if err := db.Create(video).Error; err != nil {
		t.Fatalf("seed video: %v", err)
	}
	claim := &models.ShareClaim{UserID: user.ID, Platform: "tiktok", VideoID: video.ID}
	if err := db.Create(claim).Error; err != nil {
		t.Fatalf("seed share claim: %v", err)
	}
	seedPendingPayment(t, db, user.ID, 100, 0)

	if err := svc.DeleteAccount(user.ID); err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}

	if err := db.First(&models.User{}, user.ID).Error; err != gorm.ErrRecordNotFound {
		t.Errorf("user still present: %v", err)
	}
	for name, count := range map[string]int64{
		"transactions": tableCount(t, db, &models.CreditTransaction{}, "user_id = ?", user.ID),
		"share claims": tableCount(t, db, &models.ShareClaim{}, "user_id = ?", user.ID),
		"referrals":    tableCount(t, db, &models.Referral{}, "referred_user_id = ?", user.ID),
		"videos":       tableCount(t, db, &models.Video{}, "user_id = ?", user.ID),
		"payments":     tableCount(t, db, &models.Payment{}, "user_id = ?", user.ID),
	} {
		if count != 0 {
			t.Errorf("%s not cleaned up: %d rows remain", name, count)
		}
	}

	// The referrer's own rows are untouched.
	if _, err := svc.GetUserByID(referrer.ID); err != nil {
		t.Errorf("referrer account affected: %v", err)
	}
}

func tableCount(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var count int64
	if err := db.Model(model).Where(query, args...).Count(&count).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return count
}
