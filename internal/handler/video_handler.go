package handler

import (
	"strconv"

	"github.com/draworld/draworld-backend/internal/models"
	"github.com/draworld/draworld-backend/internal/service"
	"github.com/draworld/draworld-backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type VideoHandler struct {
	videoService *service.VideoService
	validator    *utils.Validator
}

func NewVideoHandler(videoService *service.VideoService, validator *utils.Validator) *VideoHandler {
	return &VideoHandler{
		videoService: videoService,
		validator:    validator,
	}
}

// CreateVideo accepts a multipart form: the drawing file plus title/prompt
// fields.
func (h *VideoHandler) CreateVideo(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return serviceError(c, err)
	}

	req := models.CreateVideoRequest{
		Title:  c.FormValue("title"),
		Prompt: c.FormValue("prompt"),
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse(err.Error()))
	}

	fileHeader, err := c.FormFile("drawing")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("A drawing file is required"))
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if err := h.validator.Var(contentType, "supported_image"); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Unsupported image type"))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Could not read uploaded file"))
	}
	defer file.Close()

	video, err := h.videoService.CreateVideo(userID, req, file, fileHeader.Filename, contentType)
	if err != nil {
		return serviceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(models.SuccessResponse(video, "Video generation started"))
}

func (h *VideoHandler) GetUserVideos(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return serviceError(c, err)
	}

	videos, err := h.videoService.GetUserVideos(userID)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(models.SuccessResponse(videos, ""))
}

func (h *VideoHandler) GetVideoStatus(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return serviceError(c, err)
	}

	videoID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid video ID"))
	}

	status, err := h.videoService.GetVideoStatus(userID, uint(videoID))
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(models.SuccessResponse(status, ""))
}

func (h *VideoHandler) DeleteVideo(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return serviceError(c, err)
	}

	videoID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid video ID"))
	}

	if err := h.videoService.DeleteVideo(userID, uint(videoID)); err != nil {
		return serviceError(c, err)
	}

	return c.JSON(models.SuccessResponse(nil, "Video deleted"))
}
