package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/draworld/draworld-backend/internal/metrics"
	"github.com/draworld/draworld-backend/internal/models"
	"github.com/draworld/draworld-backend/internal/repository"
	"github.com/draworld/draworld-backend/pkg/email"
	"github.com/draworld/draworld-backend/pkg/logger"
	"github.com/draworld/draworld-backend/pkg/payment"
	"github.com/stripe/stripe-go/v74"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type PaymentService struct {
	db            *gorm.DB
	stripeService *payment.StripeService
	userRepo      *repository.UserRepository
	packageRepo   *repository.CreditPackageRepository
	paymentRepo   *repository.PaymentRepository
	creditService *CreditService
	emailService  *email.EmailService
	metrics       *metrics.Metrics
}

func NewPaymentService(db *gorm.DB, stripeService *payment.StripeService, userRepo *repository.UserRepository, packageRepo *repository.CreditPackageRepository, paymentRepo *repository.PaymentRepository, creditService *CreditService, emailService *email.EmailService, m *metrics.Metrics) *PaymentService {
	return &PaymentService{
		db:            db,
		stripeService: stripeService,
		userRepo:      userRepo,
		packageRepo:   packageRepo,
		paymentRepo:   paymentRepo,
		creditService: creditService,
		emailService:  emailService,
		metrics:       m,
	}
}

// CreateCheckout creates a Stripe PaymentIntent for a credit package and a
// pending Payment row keyed by the intent id.
func (s *PaymentService) CreateCheckout(userID uint, packageID uint) (*models.CheckoutResult, error) {
	creditPackage, err := s.packageRepo.GetByID(packageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound("credit package not found")
		}
		return nil, err
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound("user not found")
		}
		return nil, err
	}

	amountCents := int64(creditPackage.Price * 100)
	intent, err := s.stripeService.CreatePaymentIntent(amountCents, user.Email, map[string]string{
		"user_id":       fmt.Sprintf("%d", userID),
		"package_id":    fmt.Sprintf("%d", packageID),
		"credits":       fmt.Sprintf("%d", creditPackage.Credits),
		"bonus_credits": fmt.Sprintf("%d", creditPackage.BonusCredits),
	})
	if err != nil {
		return nil, err
	}

	p := &models.Payment{
		ID:           intent.ID,
		UserID:       userID,
		PackageID:    packageID,
		Amount:       amountCents,
		Credits:      creditPackage.Credits,
		BonusCredits: creditPackage.BonusCredits,
		Status:       models.PaymentStatusPending,
	}
	if err := s.paymentRepo.Create(p); err != nil {
		return nil, err
	}

	return &models.CheckoutResult{
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
		Amount:          amountCents,
		Credits:         creditPackage.Credits,
		BonusCredits:    creditPackage.BonusCredits,
	}, nil
}

// HandleStripeWebhook processes a verified Stripe event. Errors returned here
// are logged by the handler, which still acknowledges the delivery; Stripe
// retries are pointless for malformed events and harmless for fulfilled ones.
func (s *PaymentService) HandleStripeWebhook(event *stripe.Event) error {
	result := "ok"
	err := s.handleEvent(event)
	if err != nil {
		result = "error"
	}
	if s.metrics != nil {
		s.metrics.WebhookEvents.WithLabelValues(string(event.Type), result).Inc()
	}
	return err
}

func (s *PaymentService) handleEvent(event *stripe.Event) error {
	switch event.Type {
	case "payment_intent.succeeded":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return err
		}
		return s.fulfillPurchase(&intent)

	case "payment_intent.payment_failed":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return err
		}
		return s.markPayment(intent.ID, models.PaymentStatusFailed)

	case "payment_intent.canceled":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return err
		}
		return s.markPayment(intent.ID, models.PaymentStatusCanceled)
	}

	return nil
}

// fulfillPurchase credits the buyer exactly once. The pending→succeeded
// status transition is the idempotency gate: a redelivered webhook finds the
// payment already succeeded and does nothing.
func (s *PaymentService) fulfillPurchase(intent *stripe.PaymentIntent) error {
	userIDStr := intent.Metadata["user_id"]
	packageIDStr := intent.Metadata["package_id"]
	creditsStr := intent.Metadata["credits"]
	bonusStr := intent.Metadata["bonus_credits"]
	if userIDStr == "" || packageIDStr == "" || creditsStr == "" || bonusStr == "" {
		return models.ErrInvalidArgument("payment intent is missing fulfillment metadata")
	}

	userID, err := strconv.ParseUint(userIDStr, 10, 32)
	if err != nil {
		return models.ErrInvalidArgument("invalid user_id in payment metadata")
	}
	credits, err := strconv.Atoi(creditsStr)
	if err != nil {
		return models.ErrInvalidArgument("invalid credits in payment metadata")
	}
	bonusCredits, err := strconv.Atoi(bonusStr)
	if err != nil {
		return models.ErrInvalidArgument("invalid bonus_credits in payment metadata")
	}
	total := credits + bonusCredits

	var fulfilled bool
	err = s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Payment{}).
			Where("id = ? AND status = ?", intent.ID, models.PaymentStatusPending).
			Update("status", models.PaymentStatusSucceeded)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Already fulfilled or unknown intent; either way, nothing to do.
			return nil
		}

		if err := tx.Model(&models.User{}).
			Where("id = ?", uint(userID)).
			Update("credits", gorm.Expr("credits + ?", total)).Error; err != nil {
			return err
		}

		relatedID := intent.ID
		if err := s.creditService.appendLedgerEntry(tx, uint(userID), models.TransactionTypeEarned,
			total, "Credit purchase", models.SourcePurchase, &relatedID); err != nil {
			return err
		}

		fulfilled = true
		return nil
	})
	if err != nil {
		return err
	}

	if fulfilled {
		s.creditService.recordLedger(models.SourcePurchase, models.TransactionTypeEarned)
		go s.sendReceipt(uint(userID), packageIDStr, total)
	}
	return nil
}

func (s *PaymentService) sendReceipt(userID uint, packageIDStr string, total int) {
	if s.emailService == nil {
		return
	}
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		logger.L().Warn("receipt email skipped, user lookup failed",
			zap.Uint("user_id", userID), zap.Error(err))
		return
	}

	packageName := "Credit package"
	if packageID, err := strconv.ParseUint(packageIDStr, 10, 32); err == nil {
		if pkg, err := s.packageRepo.GetByID(uint(packageID)); err == nil {
			packageName = pkg.Name
		}
	}

	if err := s.emailService.SendPurchaseReceiptEmail(user.Email, user.FullName, packageName, total); err != nil {
		logger.L().Warn("receipt email failed", zap.Uint("user_id", userID), zap.Error(err))
	}
}

// markPayment transitions a pending payment to a terminal failure state.
func (s *PaymentService) markPayment(intentID, status string) error {
	return s.db.Model(&models.Payment{}).
		Where("id = ? AND status = ?", intentID, models.PaymentStatusPending).
		Update("status", status).Error
}

func (s *PaymentService) GetCreditPackages() ([]models.CreditPackage, error) {
	return s.packageRepo.GetAll()
}

func (s *PaymentService) GetUserPaymentHistory(userID uint) ([]models.Payment, error) {
	return s.paymentRepo.GetUserPaymentHistory(userID)
}
