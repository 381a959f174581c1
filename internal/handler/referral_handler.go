package handler

import (
	"github.com/draworld/draworld-backend/internal/models"
	"github.com/draworld/draworld-backend/internal/service"
	"github.com/draworld/draworld-backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type ReferralHandler struct {
	referralService *service.ReferralService
	validator       *utils.Validator
}

func NewReferralHandler(referralService *service.ReferralService, validator *utils.Validator) *ReferralHandler {
	return &ReferralHandler{
		referralService: referralService,
		validator:       validator,
	}
}

func (h *ReferralHandler) ProcessReferralSignup(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return serviceError(c, err)
	}

	var req models.ProcessReferralRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid request body"))
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse(err.Error()))
	}

	result, err := h.referralService.ProcessReferralSignup(userID, req.ReferralCode)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(models.SuccessResponse(result, "Referral applied"))
}

func (h *ReferralHandler) GetReferralStats(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return serviceError(c, err)
	}

	stats, err := h.referralService.GetReferralStats(userID)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(models.SuccessResponse(stats, ""))
}
