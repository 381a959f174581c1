package service

import (
	"testing"
	"time"

	"github.com/draworld/draworld-backend/internal/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"gorm.io/gorm"
)

func TestGrantSignupBonus(t *testing.T) {
	db := newTestDB(t)
	svc := newTestCreditService(db)

	user := createTestUser(t, db, 0)
	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.GrantSignupBonus(tx, user)
	})
	if err != nil {
		t.Fatalf("GrantSignupBonus: %v", err)
	}

	fresh := reloadUser(t, db, user.ID)
	if fresh.Credits != SignupBonusCredits {
		t.Errorf("credits = %d, want %d", fresh.Credits, SignupBonusCredits)
	}
	if n := countLedgerEntries(t, db, user.ID, models.SourceSignup); n != 1 {
		t.Errorf("signup ledger entries = %d, want 1", n)
	}
	assertBalanceMatchesLedger(t, db, user.ID)
}

func TestDailyCheckIn(t *testing.T) {
	db := newTestDB(t)
	svc := newTestCreditService(db)
	user := createTestUser(t, db, 100)

	result, err := svc.DailyCheckIn(user.ID)
	if err != nil {
		t.Fatalf("first check-in: %v", err)
	}
	if result.CreditsEarned != DailyCheckInCredits {
		t.Errorf("credits earned = %d, want %d", result.CreditsEarned, DailyCheckInCredits)
	}
	if result.NewBalance != 100+DailyCheckInCredits {
		t.Errorf("new balance = %d, want %d", result.NewBalance, 100+DailyCheckInCredits)
	}

	fresh := reloadUser(t, db, user.ID)
	if fresh.LastCheckinAt == nil {
		t.Fatal("last_checkin_at not set")
	}
	assertBalanceMatchesLedger(t, db, user.ID)

	// Second check-in inside the 24h window must be rejected with the next
	// eligible time and leave no trace in the ledger.
	_, err = svc.DailyCheckIn(user.ID)
	if err == nil {
		t.Fatal("second check-in should fail")
	}
	if code := appCode(t, err); code != models.CodeFailedPrecondition {
		t.Errorf("code = %s, want %s", code, models.CodeFailedPrecondition)
	}
	appErr := err.(*models.AppError)
	if _, ok := appErr.Details["next_checkin_at"]; !ok {
		t.Error("expected next_checkin_at detail")
	}
	if n := countLedgerEntries(t, db, user.ID, models.SourceCheckin); n != 1 {
		t.Errorf("checkin ledger entries = %d, want 1", n)
	}
}

func TestDailyCheckInAfterCooldown(t *testing.T) {
	db := newTestDB(t)
	svc := newTestCreditService(db)
	user := createTestUser(t, db, 0)

	past := time.Now().UTC().Add(-CheckInCooldown)
	if err := db.Model(&models.User{}).Where("id = ?", user.ID).
		Update("last_checkin_at", past).Error; err != nil {
		t.Fatalf("seed last checkin: %v", err)
	}

	if _, err := svc.DailyCheckIn(user.ID); err != nil {
		t.Fatalf("check-in at cooldown boundary should succeed: %v", err)
	}
	assertBalanceMatchesLedger(t, db, user.ID)
}

func TestDailyCheckInUnknownUser(t *testing.T) {
	db := newTestDB(t)
	svc := newTestCreditService(db)

	_, err := svc.DailyCheckIn(99999)
	if err == nil {
		t.Fatal("expected error")
	}
	if code := appCode(t, err); code != models.CodeNotFound {
		t.Errorf("code = %s, want %s", code, models.CodeNotFound)
	}
}

func TestSpendCredits(t *testing.T) {
	db := newTestDB(t)
	svc := newTestCreditService(db)
	user := createTestUser(t, db, 100)

	result, err := svc.SpendCredits(user.ID, models.SpendCreditsRequest{
		Amount:      VideoGenerationCost,
		Description: "Video generation",
		Source:      models.SourceVideoGeneration,
	})
	if err != nil {
		t.Fatalf("SpendCredits: %v", err)
	}
	if result.NewBalance != 100-VideoGenerationCost {
		t.Errorf("new balance = %d, want %d", result.NewBalance, 100-VideoGenerationCost)
	}
	assertBalanceMatchesLedger(t, db, user.ID)
}

func TestSpendCreditsInsufficient(t *testing.T) {
	db := newTestDB(t)
	svc := newTestCreditService(db)
	user := createTestUser(t, db, 100)

	_, err := svc.SpendCredits(user.ID, models.SpendCreditsRequest{
		Amount:      200,
		Description: "too expensive",
		Source:      models.SourceVideoGeneration,
	})
	if err == nil {
		t.Fatal("expected insufficient credits error")
	}
	if code := appCode(t, err); code != models.CodeFailedPrecondition {
		t.Errorf("code = %s, want %s", code, models.CodeFailedPrecondition)
	}

	appErr := err.(*models.AppError)
	if appErr.Details["shortfall"] != 100 {
		t.Errorf("shortfall = %v, want 100", appErr.Details["shortfall"])
	}

	// No write may have happened.
	fresh := reloadUser(t, db, user.ID)
	if fresh.Credits != 100 {
		t.Errorf("balance changed to %d on a failed spend", fresh.Credits)
	}
	if n := countLedgerEntries(t, db, user.ID, models.SourceVideoGeneration); n != 0 {
		t.Errorf("ledger entries = %d, want 0", n)
	}
}

func TestSpendCreditsValidation(t *testing.T) {
	db := newTestDB(t)
	svc := newTestCreditService(db)
	user := createTestUser(t, db, 100)

	tests := []struct {
		name string
		req  models.SpendCreditsRequest
	}{
		{"zero amount", models.SpendCreditsRequest{Amount: 0, Description: "x", Source: models.SourceVideoGeneration}},
		{"negative amount", models.SpendCreditsRequest{Amount: -5, Description: "x", Source: models.SourceVideoGeneration}},
		{"bad source", models.SpendCreditsRequest{Amount: 10, Description: "x", Source: models.SourceSignup}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SpendCredits(user.ID, tt.req)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if code := appCode(t, err); code != models.CodeInvalidArgument {
				t.Errorf("code = %s, want %s", code, models.CodeInvalidArgument)
			}
		})
	}
}

func TestAwardCredits(t *testing.T) {
	db := newTestDB(t)
	svc := newTestCreditService(db)

	admin := createTestUser(t, db, 0)
	if err := db.Model(&models.User{}).Where("id = ?", admin.ID).
		Update("role", models.RoleAdmin).Error; err != nil {
		t.Fatalf("promote admin: %v", err)
	}
	target := createTestUser(t, db, 50)

	result, err := svc.AwardCredits(admin.ID, models.AwardCreditsRequest{
		UserID:      target.ID,
		Amount:      100,
		Description: "task",
	})
	if err != nil {
		t.Fatalf("AwardCredits: %v", err)
	}
	if result.NewBalance != 150 {
		t.Errorf("new balance = %d, want 150", result.NewBalance)
	}
	if n := countLedgerEntries(t, db, target.ID, models.SourceAdminAward); n != 1 {
		t.Errorf("admin_award ledger entries = %d, want 1", n)
	}
	assertBalanceMatchesLedger(t, db, target.ID)
}

func TestAwardCreditsNonAdmin(t *testing.T) {
	db := newTestDB(t)
	svc := newTestCreditService(db)

	caller := createTestUser(t, db, 0)
	target := createTestUser(t, db, 50)

	_, err := svc.AwardCredits(caller.ID, models.AwardCreditsRequest{
		UserID:      target.ID,
		Amount:      100,
		Description: "task",
	})
	if err == nil {
		t.Fatal("expected permission error")
	}
	if code := appCode(t, err); code != models.CodePermissionDenied {
		t.Errorf("code = %s, want %s", code, models.CodePermissionDenied)
	}

	fresh := reloadUser(t, db, target.ID)
	if fresh.Credits != 50 {
		t.Errorf("balance changed to %d after denied award", fresh.Credits)
	}
}

func TestAwardCreditsDeduction(t *testing.T) {
	db := newTestDB(t)
	svc := newTestCreditService(db)

	admin := createTestUser(t, db, 0)
	if err := db.Model(&models.User{}).Where("id = ?", admin.ID).
		Update("role", models.RoleAdmin).Error; err != nil {
		t.Fatalf("promote admin: %v", err)
	}
	target := createTestUser(t, db, 50)

	// Deducting more than the balance must fail.
	_, err := svc.AwardCredits(admin.ID, models.AwardCreditsRequest{
		UserID:      target.ID,
		Amount:      80,
		Description: "correction",
		Type:        models.TransactionTypeSpent,
	})
	if err == nil {
		t.Fatal("expected failed precondition")
	}
	if code := appCode(t, err); code != models.CodeFailedPrecondition {
		t.Errorf("code = %s, want %s", code, models.CodeFailedPrecondition)
	}

	result, err := svc.AwardCredits(admin.ID, models.AwardCreditsRequest{
		UserID:      target.ID,
		Amount:      30,
		Description: "correction",
		Type:        models.TransactionTypeSpent,
	})
	if err != nil {
		t.Fatalf("deduction: %v", err)
	}
	if result.NewBalance != 20 {
		t.Errorf("new balance = %d, want 20", result.NewBalance)
	}
	assertBalanceMatchesLedger(t, db, target.ID)
}

func createCompletedVideo(t *testing.T, db *gorm.DB, userID uint) *models.Video {
	t.Helper()
	video := &models.Video{
		UserID: userID,
		Title:  "Doodle",
		Status: models.VideoStatusCompleted,
	}
	if err := db.Create(video).Error; err != nil {
		t.Fatalf("create test video: %v", err)
	}
	return video
}

func TestAwardShareReward(t *testing.T) {
	db := newTestDB(t)
	svc := newTestCreditService(db)
	user := createTestUser(t, db, 0)
	video := createCompletedVideo(t, db, user.ID)

	result, err := svc.AwardShareReward(user.ID, "tiktok", video.ID)
	if err != nil {
		t.Fatalf("AwardShareReward: %v", err)
	}
	if result.CreditsAwarded != ShareRewardCredits["tiktok"] {
		t.Errorf("awarded = %d, want %d", result.CreditsAwarded, ShareRewardCredits["tiktok"])
	}

	// Same platform + video cannot be claimed twice. The second attempt hits
	// the share_claims unique index, so concurrent claims collide the same way.
	_, err = svc.AwardShareReward(user.ID, "tiktok", video.ID)
	if err == nil {
		t.Fatal("expected duplicate claim rejection")
	}
	if code := appCode(t, err); code != models.CodeAlreadyExists {
		t.Errorf("code = %s, want %s", code, models.CodeAlreadyExists)
	}
	if n := tableCount(t, db, &models.ShareClaim{}, "user_id = ? AND platform = ?", user.ID, "tiktok"); n != 1 {
		t.Errorf("tiktok claim rows = %d, want 1", n)
	}

	// A different platform is fine.
	if _, err := svc.AwardShareReward(user.ID, "facebook", video.ID); err != nil {
		t.Fatalf("second platform: %v", err)
	}
	assertBalanceMatchesLedger(t, db, user.ID)

	if _, err := svc.AwardShareReward(user.ID, "myspace", video.ID); err == nil {
		t.Fatal("expected unsupported platform rejection")
	}
}

func TestAwardShareRewardRequiresOwnedVideo(t *testing.T) {
	db := newTestDB(t)
	svc := newTestCreditService(db)
	user := createTestUser(t, db, 0)
	other := createTestUser(t, db, 0)
	othersVideo := createCompletedVideo(t, db, other.ID)

	// Claims against video ids the caller does not own never pay out, no
	// matter how many platforms or ids are tried.
	for _, platform := range []string{"tiktok", "instagram", "youtube", "facebook", "twitter"} {
		_, err := svc.AwardShareReward(user.ID, platform, 99999)
		if err == nil {
			t.Fatalf("claim on nonexistent video via %s should fail", platform)
		}
		if code := appCode(t, err); code != models.CodeNotFound {
			t.Errorf("code = %s, want %s", code, models.CodeNotFound)
		}
	}
	_, err := svc.AwardShareReward(user.ID, "tiktok", othersVideo.ID)
	if err == nil {
		t.Fatal("claim on someone else's video should fail")
	}
	if code := appCode(t, err); code != models.CodeNotFound {
		t.Errorf("code = %s, want %s", code, models.CodeNotFound)
	}

	if fresh := reloadUser(t, db, user.ID); fresh.Credits != 0 {
		t.Errorf("credits = %d, want 0 after rejected claims", fresh.Credits)
	}
	if n := countLedgerEntries(t, db, user.ID, models.SourceSocialShare); n != 0 {
		t.Errorf("share ledger entries = %d, want 0", n)
	}
}

func TestAwardShareRewardRequiresCompletedVideo(t *testing.T) {
	db := newTestDB(t)
	svc := newTestCreditService(db)
	user := createTestUser(t, db, 0)

	video := &models.Video{UserID: user.ID, Title: "Doodle", Status: models.VideoStatusProcessing}
	if err := db.Create(video).Error; err != nil {
		t.Fatalf("create test video: %v", err)
	}

	_, err := svc.AwardShareReward(user.ID, "tiktok", video.ID)
	if err == nil {
		t.Fatal("claim on an unfinished video should fail")
	}
	if code := appCode(t, err); code != models.CodeFailedPrecondition {
		t.Errorf("code = %s, want %s", code, models.CodeFailedPrecondition)
	}
	if fresh := reloadUser(t, db, user.ID); fresh.Credits != 0 {
		t.Errorf("credits = %d, want 0", fresh.Credits)
	}
}

func TestLedgerMetricCountsCommittedWritesOnly(t *testing.T) {
	db := newTestDB(t)
	svc := newTestCreditService(db)
	user := createTestUser(t, db, 100)

	counter := svc.metrics.LedgerTransactions.WithLabelValues(
		models.SourceVideoGeneration, models.TransactionTypeSpent)
	before := testutil.ToFloat64(counter)

	// A rejected spend writes nothing and must not count.
	_, err := svc.SpendCredits(user.ID, models.SpendCreditsRequest{
		Amount:      200,
		Description: "too expensive",
		Source:      models.SourceVideoGeneration,
	})
	if err == nil {
		t.Fatal("expected insufficient credits error")
	}
	if got := testutil.ToFloat64(counter); got != before {
		t.Errorf("counter moved to %v on a rolled-back spend", got)
	}

	if _, err := svc.SpendCredits(user.ID, models.SpendCreditsRequest{
		Amount:      VideoGenerationCost,
		Description: "Video generation",
		Source:      models.SourceVideoGeneration,
	}); err != nil {
		t.Fatalf("SpendCredits: %v", err)
	}
	if diff := testutil.ToFloat64(counter) - before; diff != 1 {
		t.Errorf("counter moved by %v on a committed spend, want 1", diff)
	}
}

func TestGetCreditHistoryPagination(t *testing.T) {
	db := newTestDB(t)
	svc := newTestCreditService(db)
	user := createTestUser(t, db, 0)

	for i := 0; i < 5; i++ {
		entry := &models.CreditTransaction{
			UserID:      user.ID,
			Type:        models.TransactionTypeEarned,
			Amount:      10,
			Description: "seed",
			Source:      models.SourceCheckin,
		}
		if err := db.Create(entry).Error; err != nil {
			t.Fatalf("seed entry: %v", err)
		}
	}

	page1, err := svc.GetCreditHistory(user.ID, 2, 0)
	if err != nil {
		t.Fatalf("page 1: %v", err)
	}
	if len(page1.Transactions) != 2 || !page1.HasMore {
		t.Fatalf("page 1: %d entries, hasMore=%v", len(page1.Transactions), page1.HasMore)
	}
	if page1.Transactions[0].ID < page1.Transactions[1].ID {
		t.Error("page 1 not in descending order")
	}

	page2, err := svc.GetCreditHistory(user.ID, 2, page1.LastID)
	if err != nil {
		t.Fatalf("page 2: %v", err)
	}
	if len(page2.Transactions) != 2 || !page2.HasMore {
		t.Fatalf("page 2: %d entries, hasMore=%v", len(page2.Transactions), page2.HasMore)
	}
	if page2.Transactions[0].ID >= page1.LastID {
		t.Error("page 2 overlaps page 1")
	}

	page3, err := svc.GetCreditHistory(user.ID, 2, page2.LastID)
	if err != nil {
		t.Fatalf("page 3: %v", err)
	}
	if len(page3.Transactions) != 1 || page3.HasMore {
		t.Fatalf("page 3: %d entries, hasMore=%v", len(page3.Transactions), page3.HasMore)
	}
}
