package handler

import (
	"github.com/draworld/draworld-backend/internal/models"
	"github.com/draworld/draworld-backend/internal/service"
	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

func (h *UserHandler) GetMyProfile(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return serviceError(c, err)
	}

	user, err := h.userService.GetUserByID(userID)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(models.SuccessResponse(user, ""))
}

func (h *UserHandler) DeleteAccount(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return serviceError(c, err)
	}

	if err := h.userService.DeleteAccount(userID); err != nil {
		return serviceError(c, err)
	}

	return c.JSON(models.SuccessResponse(nil, "Account deleted"))
}
