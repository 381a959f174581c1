package handler

import (
	"os"
	"strconv"

	"github.com/draworld/draworld-backend/internal/models"
	"github.com/draworld/draworld-backend/internal/service"
	"github.com/draworld/draworld-backend/pkg/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/stripe/stripe-go/v74/webhook"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	paymentService *service.PaymentService
}

func NewPaymentHandler(paymentService *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

func (h *PaymentHandler) CreateCheckout(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return serviceError(c, err)
	}

	packageID, err := strconv.ParseUint(c.Params("packageId"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid package ID"))
	}

	result, err := h.paymentService.CreateCheckout(userID, uint(packageID))
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(models.SuccessResponse(result, ""))
}

// HandleStripeWebhook verifies the signature and always acknowledges the
// delivery afterwards. Processing failures are logged for reconciliation;
// returning an error would only trigger a redelivery storm.
func (h *PaymentHandler) HandleStripeWebhook(c *fiber.Ctx) error {
	webhookSecret := os.Getenv("STRIPE_WEBHOOK_SECRET")
	payload := c.Body()
	signatureHeader := c.Get("Stripe-Signature")

	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, webhookSecret,
		webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		})
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Webhook signature verification failed"))
	}

	if err := h.paymentService.HandleStripeWebhook(&event); err != nil {
		logger.L().Error("stripe webhook processing failed",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *PaymentHandler) GetCreditPackages(c *fiber.Ctx) error {
	packages, err := h.paymentService.GetCreditPackages()
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(models.SuccessResponse(packages, ""))
}

func (h *PaymentHandler) GetPaymentHistory(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return serviceError(c, err)
	}

	payments, err := h.paymentService.GetUserPaymentHistory(userID)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(models.SuccessResponse(payments, ""))
}
