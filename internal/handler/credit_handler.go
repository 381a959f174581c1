package handler

import (
	"strconv"

	"github.com/draworld/draworld-backend/internal/models"
	"github.com/draworld/draworld-backend/internal/service"
	"github.com/draworld/draworld-backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type CreditHandler struct {
	creditService *service.CreditService
	validator     *utils.Validator
}

func NewCreditHandler(creditService *service.CreditService, validator *utils.Validator) *CreditHandler {
	return &CreditHandler{
		creditService: creditService,
		validator:     validator,
	}
}

func (h *CreditHandler) DailyCheckIn(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return serviceError(c, err)
	}

	result, err := h.creditService.DailyCheckIn(userID)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(models.SuccessResponse(result, "Check-in complete"))
}

func (h *CreditHandler) SpendCredits(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return serviceError(c, err)
	}

	var req models.SpendCreditsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid request body"))
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse(err.Error()))
	}

	result, err := h.creditService.SpendCredits(userID, req)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(models.SuccessResponse(result, "Credits spent"))
}

func (h *CreditHandler) AwardCredits(c *fiber.Ctx) error {
	callerID, err := currentUserID(c)
	if err != nil {
		return serviceError(c, err)
	}

	var req models.AwardCreditsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid request body"))
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse(err.Error()))
	}

	result, err := h.creditService.AwardCredits(callerID, req)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(models.SuccessResponse(result, "Credits awarded"))
}

type shareRequest struct {
	Platform string `json:"platform" validate:"required"`
	VideoID  uint   `json:"video_id" validate:"required"`
}

func (h *CreditHandler) ClaimShareReward(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return serviceError(c, err)
	}

	var req shareRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid request body"))
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse(err.Error()))
	}

	result, err := h.creditService.AwardShareReward(userID, req.Platform, req.VideoID)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(models.SuccessResponse(result, "Share reward claimed"))
}

func (h *CreditHandler) GetCreditHistory(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return serviceError(c, err)
	}

	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	startAfter, _ := strconv.ParseUint(c.Query("start_after", "0"), 10, 32)

	history, err := h.creditService.GetCreditHistory(userID, limit, uint(startAfter))
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(models.SuccessResponse(history, ""))
}
