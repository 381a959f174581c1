package handler

import (
	"errors"

	"github.com/draworld/draworld-backend/internal/models"
	"github.com/gofiber/fiber/v2"
)

var statusForCode = map[string]int{
	models.CodeUnauthenticated:    fiber.StatusUnauthorized,
	models.CodeInvalidArgument:    fiber.StatusBadRequest,
	models.CodeFailedPrecondition: fiber.StatusPreconditionFailed,
	models.CodeNotFound:           fiber.StatusNotFound,
	models.CodePermissionDenied:   fiber.StatusForbidden,
	models.CodeAlreadyExists:      fiber.StatusConflict,
	models.CodeInternal:           fiber.StatusInternalServerError,
}

// serviceError maps a service error to an HTTP response with its stable code.
func serviceError(c *fiber.Ctx, err error) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		status, ok := statusForCode[appErr.Code]
		if !ok {
			status = fiber.StatusInternalServerError
		}
		resp := models.Response{
			Success: false,
			Error:   appErr.Message,
			Code:    appErr.Code,
		}
		if len(appErr.Details) > 0 {
			resp.Data = appErr.Details
		}
		return c.Status(status).JSON(resp)
	}

	return c.Status(fiber.StatusInternalServerError).JSON(models.Response{
		Success: false,
		Error:   "internal error",
		Code:    models.CodeInternal,
	})
}

// currentUserID pulls the authenticated user id set by the auth middleware.
func currentUserID(c *fiber.Ctx) (uint, error) {
	userIDRaw := c.Locals("userID")
	if userIDRaw == nil {
		return 0, models.ErrUnauthenticated("user not authenticated")
	}
	userID, ok := userIDRaw.(uint)
	if !ok {
		return 0, models.ErrInternal("invalid user ID format")
	}
	return userID, nil
}
