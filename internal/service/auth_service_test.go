package service

import (
	"testing"

	"github.com/draworld/draworld-backend/internal/models"
	"github.com/draworld/draworld-backend/internal/repository"
	jwtPkg "github.com/draworld/draworld-backend/pkg/jwt"
	"gorm.io/gorm"
)

func newTestAuthService(db *gorm.DB) *AuthService {
	creditService := newTestCreditService(db)
	referralService := newTestReferralService(db)
	return NewAuthService(db, repository.NewUserRepository(db), creditService, referralService, nil)
}

func TestRegister(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	db := newTestDB(t)
	svc := newTestAuthService(db)

	resp, err := svc.Register(models.RegisterRequest{
		FullName: "Ada Painter",
		Email:    "ada@example.com",
		Password: "hunter22",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if resp.Token == "" {
		t.Error("empty token")
	}
	if resp.User.Credits != SignupBonusCredits {
		t.Errorf("credits = %d, want %d", resp.User.Credits, SignupBonusCredits)
	}
	if len(resp.User.ReferralCode) != referralCodeLength {
		t.Errorf("referral code = %q, want %d characters", resp.User.ReferralCode, referralCodeLength)
	}
	if resp.User.Password == "hunter22" {
		t.Error("password stored in plain text")
	}

	// The signup grant commits with the user: exactly one ledger row.
	if n := countLedgerEntries(t, db, resp.User.ID, models.SourceSignup); n != 1 {
		t.Errorf("signup ledger entries = %d, want 1", n)
	}
	assertBalanceMatchesLedger(t, db, resp.User.ID)

	claims, err := jwtPkg.ValidateToken(resp.Token)
	if err != nil {
		t.Fatalf("token does not validate: %v", err)
	}
	if uint(claims["user_id"].(float64)) != resp.User.ID {
		t.Error("token user_id mismatch")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	db := newTestDB(t)
	svc := newTestAuthService(db)

	req := models.RegisterRequest{FullName: "Ada", Email: "dup@example.com", Password: "hunter22"}
	if _, err := svc.Register(req); err != nil {
		t.Fatalf("first register: %v", err)
	}

	_, err := svc.Register(req)
	if err == nil {
		t.Fatal("expected duplicate email rejection")
	}
	if code := appCode(t, err); code != models.CodeAlreadyExists {
		t.Errorf("code = %s, want %s", code, models.CodeAlreadyExists)
	}
}

func TestRegisterWithReferralCode(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	db := newTestDB(t)
	svc := newTestAuthService(db)

	referrer := createTestUser(t, db, 0)

	resp, err := svc.Register(models.RegisterRequest{
		FullName:     "Referred Friend",
		Email:        "friend@example.com",
		Password:     "hunter22",
		ReferralCode: referrer.ReferralCode,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if resp.User.Credits != SignupBonusCredits+ReferredSignupCredits {
		t.Errorf("credits = %d, want signup + referral = %d",
			resp.User.Credits, SignupBonusCredits+ReferredSignupCredits)
	}
	freshReferrer := reloadUser(t, db, referrer.ID)
	if freshReferrer.Credits != ReferrerSignupCredits {
		t.Errorf("referrer credits = %d, want %d", freshReferrer.Credits, ReferrerSignupCredits)
	}
}

func TestRegisterWithBadReferralCode(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	db := newTestDB(t)
	svc := newTestAuthService(db)

	// A bad code never blocks signup; the account just gets no referral bonus.
	resp, err := svc.Register(models.RegisterRequest{
		FullName:     "Hopeful Friend",
		Email:        "hopeful@example.com",
		Password:     "hunter22",
		ReferralCode: "BOGUS123",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if resp.User.Credits != SignupBonusCredits {
		t.Errorf("credits = %d, want %d", resp.User.Credits, SignupBonusCredits)
	}
}

func TestLogin(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	db := newTestDB(t)
	svc := newTestAuthService(db)

	if _, err := svc.Register(models.RegisterRequest{
		FullName: "Ada", Email: "login@example.com", Password: "hunter22",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	resp, err := svc.Login(models.LoginRequest{Email: "login@example.com", Password: "hunter22"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.Token == "" {
		t.Error("empty token")
	}

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", "login@example.com", "wrong"},
		{"unknown email", "nobody@example.com", "hunter22"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(models.LoginRequest{Email: tt.email, Password: tt.password})
			if err == nil {
				t.Fatal("expected authentication failure")
			}
			if code := appCode(t, err); code != models.CodeUnauthenticated {
				t.Errorf("code = %s, want %s", code, models.CodeUnauthenticated)
			}
		})
	}
}
