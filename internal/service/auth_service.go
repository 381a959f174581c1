package service

import (
	"errors"

	"github.com/draworld/draworld-backend/internal/models"
	"github.com/draworld/draworld-backend/internal/repository"
	"github.com/draworld/draworld-backend/pkg/bcrypt"
	"github.com/draworld/draworld-backend/pkg/email"
	jwtPkg "github.com/draworld/draworld-backend/pkg/jwt"
	"github.com/draworld/draworld-backend/pkg/logger"
	"github.com/draworld/draworld-backend/pkg/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const referralCodeLength = 8

type AuthService struct {
	db              *gorm.DB
	userRepo        *repository.UserRepository
	creditService   *CreditService
	referralService *ReferralService
	emailService    *email.EmailService
}

func NewAuthService(db *gorm.DB, userRepo *repository.UserRepository, creditService *CreditService, referralService *ReferralService, emailService *email.EmailService) *AuthService {
	return &AuthService{
		db:              db,
		userRepo:        userRepo,
		creditService:   creditService,
		referralService: referralService,
		emailService:    emailService,
	}
}

// Register creates the account and its signup grant in one transaction, so a
// user row can never exist without the welcome credits and their ledger
// entry. A referral code, if given, is applied after commit; a bad code never
// blocks signup.
func (s *AuthService) Register(req models.RegisterRequest) (*models.AuthResponse, error) {
	exists, err := s.userRepo.EmailExists(req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, models.ErrAlreadyExists("email already registered")
	}

	hashedPassword, err := bcrypt.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	code, err := s.newReferralCode()
	if err != nil {
		return nil, err
	}

	user := &models.User{
		FullName:     req.FullName,
		Email:        req.Email,
		Password:     hashedPassword,
		ReferralCode: code,
		Role:         models.RoleUser,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		return s.creditService.GrantSignupBonus(tx, user)
	})
	if err != nil {
		return nil, err
	}
	s.creditService.recordLedger(models.SourceSignup, models.TransactionTypeEarned)

	if req.ReferralCode != "" {
		if _, err := s.referralService.ProcessReferralSignup(user.ID, req.ReferralCode); err != nil {
			logger.L().Warn("referral code not applied at signup",
				zap.Uint("user_id", user.ID), zap.Error(err))
		} else {
			// Pick up the referral bonus for the response.
			if fresh, err := s.userRepo.GetByID(user.ID); err == nil {
				user = fresh
			}
		}
	}

	if s.emailService != nil {
		go s.emailService.SendWelcomeEmail(user.Email, user.FullName, SignupBonusCredits)
	}

	token, err := jwtPkg.GenerateToken(user.Email, user.ID, user.Role)
	if err != nil {
		return nil, err
	}

	return &models.AuthResponse{
		Token: token,
		User:  *user,
	}, nil
}

func (s *AuthService) Login(req models.LoginRequest) (*models.AuthResponse, error) {
	user, err := s.userRepo.GetByEmail(req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrUnauthenticated("invalid email or password")
		}
		return nil, err
	}

	if err := bcrypt.ComparePassword(user.Password, req.Password); err != nil {
		return nil, models.ErrUnauthenticated("invalid email or password")
	}

	token, err := jwtPkg.GenerateToken(user.Email, user.ID, user.Role)
	if err != nil {
		return nil, err
	}

	return &models.AuthResponse{
		Token: token,
		User:  *user,
	}, nil
}

func (s *AuthService) newReferralCode() (string, error) {
	for i := 0; i < 5; i++ {
		code := utils.GenerateReferralCode(referralCodeLength)
		exists, err := s.userRepo.ReferralCodeExists(code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", models.ErrInternal("could not allocate a referral code")
}
