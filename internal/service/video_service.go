package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/draworld/draworld-backend/internal/metrics"
	"github.com/draworld/draworld-backend/internal/models"
	"github.com/draworld/draworld-backend/internal/repository"
	"github.com/draworld/draworld-backend/pkg/cache"
	"github.com/draworld/draworld-backend/pkg/logger"
	"github.com/draworld/draworld-backend/pkg/storage"
	"github.com/draworld/draworld-backend/pkg/videogen"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// providerStatusTTL bounds how often client polling reaches the provider.
const providerStatusTTL = 10 * time.Second

type VideoService struct {
	db              *gorm.DB
	videoRepo       *repository.VideoRepository
	creditService   *CreditService
	referralService *ReferralService
	storage         storage.StorageService
	generator       *videogen.Client
	cache           *cache.Cache
	metrics         *metrics.Metrics
}

func NewVideoService(db *gorm.DB, videoRepo *repository.VideoRepository, creditService *CreditService, referralService *ReferralService, store storage.StorageService, generator *videogen.Client, c *cache.Cache, m *metrics.Metrics) *VideoService {
	return &VideoService{
		db:              db,
		videoRepo:       videoRepo,
		creditService:   creditService,
		referralService: referralService,
		storage:         store,
		generator:       generator,
		cache:           c,
		metrics:         m,
	}
}

// CreateVideo uploads the drawing, charges the generation cost and submits
// the task to the provider. The video row and the spend commit together; the
// provider call happens after commit and a failed submission refunds the
// charge.
func (s *VideoService) CreateVideo(userID uint, req models.CreateVideoRequest, file io.Reader, filename, contentType string) (*models.Video, error) {
	key := fmt.Sprintf("drawings/%d/%s%s", userID, uuid.NewString(), filepath.Ext(filename))
	imageURL, err := s.storage.Upload(key, file, contentType)
	if err != nil {
		return nil, models.ErrInternal("failed to store drawing")
	}

	video := &models.Video{
		UserID:         userID,
		Title:          req.Title,
		Prompt:         req.Prompt,
		SourceImageURL: imageURL,
		StorageKey:     key,
		Status:         models.VideoStatusPending,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(video).Error; err != nil {
			return err
		}

		res := tx.Model(&models.User{}).
			Where("id = ? AND credits >= ?", userID, VideoGenerationCost).
			Update("credits", gorm.Expr("credits - ?", VideoGenerationCost))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var user models.User
			if err := tx.First(&user, userID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return models.ErrNotFound("user not found")
				}
				return err
			}
			return models.ErrFailedPrecondition("insufficient credits").
				WithDetail("balance", user.Credits).
				WithDetail("required", VideoGenerationCost)
		}

		relatedID := fmt.Sprintf("video:%d", video.ID)
		return s.creditService.appendLedgerEntry(tx, userID, models.TransactionTypeSpent,
			-VideoGenerationCost, "Video generation", models.SourceVideoGeneration, &relatedID)
	})
	if err != nil {
		return nil, err
	}
	s.creditService.recordLedger(models.SourceVideoGeneration, models.TransactionTypeSpent)

	task, err := s.generator.CreateTask(imageURL, req.Prompt)
	if err != nil {
		logger.L().Error("video task submission failed",
			zap.Uint("video_id", video.ID), zap.Error(err))
		if failErr := s.failVideo(video, "generation could not be started"); failErr != nil {
			logger.L().Error("video failure rollback failed",
				zap.Uint("video_id", video.ID), zap.Error(failErr))
		}
		return nil, models.ErrInternal("video generation could not be started")
	}

	video.ProviderTaskID = task.ID
	video.Status = models.VideoStatusProcessing
	if err := s.videoRepo.Update(video); err != nil {
		return nil, err
	}

	return video, nil
}

// GetVideoStatus reports the current state, refreshing from the provider when
// the task is still in flight. Provider responses are cached briefly so
// client polling cannot hammer the API.
func (s *VideoService) GetVideoStatus(userID, videoID uint) (*models.VideoStatusResult, error) {
	video, err := s.getOwnedVideo(userID, videoID)
	if err != nil {
		return nil, err
	}

	if video.Status == models.VideoStatusProcessing && video.ProviderTaskID != "" {
		task, err := s.fetchTask(video.ProviderTaskID)
		if err != nil {
			logger.L().Warn("provider status check failed",
				zap.Uint("video_id", video.ID), zap.Error(err))
		} else {
			switch task.Status {
			case videogen.TaskStatusCompleted:
				if err := s.completeVideo(video, task); err != nil {
					return nil, err
				}
			case videogen.TaskStatusFailed:
				if err := s.failVideo(video, task.Error); err != nil {
					return nil, err
				}
			}
		}
	}

	return &models.VideoStatusResult{
		ID:           video.ID,
		Status:       video.Status,
		VideoURL:     video.VideoURL,
		ThumbnailURL: video.ThumbnailURL,
		ErrorMessage: video.ErrorMessage,
	}, nil
}

func (s *VideoService) fetchTask(taskID string) (*videogen.Task, error) {
	ctx := context.Background()
	cacheKey := "videogen:task:" + taskID

	if raw, ok := s.cache.Get(ctx, cacheKey); ok {
		var task videogen.Task
		if err := json.Unmarshal([]byte(raw), &task); err == nil {
			return &task, nil
		}
	}

	task, err := s.generator.GetTask(taskID)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(task); err == nil {
		s.cache.Set(ctx, cacheKey, string(raw), providerStatusTTL)
	}
	return task, nil
}

// completeVideo marks the video done and, when it is the user's first
// completed video, flips the first-video flag and pays the referrer bonus.
// All of it commits atomically.
func (s *VideoService) completeVideo(video *models.Video, task *videogen.Task) error {
	var bonusAwarded bool
	err := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Video{}).
			Where("id = ? AND status = ?", video.ID, models.VideoStatusProcessing).
			Updates(map[string]interface{}{
				"status":        models.VideoStatusCompleted,
				"video_url":     task.VideoURL,
				"thumbnail_url": task.ThumbnailURL,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Another poll already completed it.
			return nil
		}

		var completedCount int64
		if err := tx.Model(&models.Video{}).
			Where("user_id = ? AND status = ?", video.UserID, models.VideoStatusCompleted).
			Count(&completedCount).Error; err != nil {
			return err
		}
		if completedCount != 1 {
			return nil
		}

		if err := tx.Model(&models.User{}).
			Where("id = ?", video.UserID).
			Update("first_video_generated", true).Error; err != nil {
			return err
		}

		var err error
		bonusAwarded, err = s.referralService.AwardFirstVideoBonus(tx, video.UserID)
		return err
	})
	if err != nil {
		return err
	}
	if bonusAwarded {
		s.creditService.recordLedger(models.SourceReferral, models.TransactionTypeEarned)
	}

	video.Status = models.VideoStatusCompleted
	video.VideoURL = task.VideoURL
	video.ThumbnailURL = task.ThumbnailURL
	if s.metrics != nil {
		s.metrics.VideoTasks.WithLabelValues(models.VideoStatusCompleted).Inc()
	}
	return nil
}

// failVideo marks the video failed and refunds the generation cost.
func (s *VideoService) failVideo(video *models.Video, reason string) error {
	var refunded bool
	err := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Video{}).
			Where("id = ? AND status IN ?", video.ID, []string{models.VideoStatusPending, models.VideoStatusProcessing}).
			Updates(map[string]interface{}{
				"status":        models.VideoStatusFailed,
				"error_message": reason,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		if err := tx.Model(&models.User{}).
			Where("id = ?", video.UserID).
			Update("credits", gorm.Expr("credits + ?", VideoGenerationCost)).Error; err != nil {
			return err
		}

		relatedID := fmt.Sprintf("video:%d", video.ID)
		if err := s.creditService.appendLedgerEntry(tx, video.UserID, models.TransactionTypeEarned,
			VideoGenerationCost, "Refund: video generation failed", models.SourceVideoGeneration, &relatedID); err != nil {
			return err
		}
		refunded = true
		return nil
	})
	if err != nil {
		return err
	}
	if refunded {
		s.creditService.recordLedger(models.SourceVideoGeneration, models.TransactionTypeEarned)
	}

	video.Status = models.VideoStatusFailed
	video.ErrorMessage = reason
	if s.metrics != nil {
		s.metrics.VideoTasks.WithLabelValues(models.VideoStatusFailed).Inc()
	}
	return nil
}

func (s *VideoService) GetUserVideos(userID uint) ([]models.Video, error) {
	return s.videoRepo.GetUserVideos(userID)
}

func (s *VideoService) DeleteVideo(userID, videoID uint) error {
	video, err := s.getOwnedVideo(userID, videoID)
	if err != nil {
		return err
	}

	if video.StorageKey != "" {
		if err := s.storage.Delete(video.StorageKey); err != nil {
			logger.L().Warn("drawing cleanup failed",
				zap.Uint("video_id", video.ID), zap.Error(err))
		}
	}

	return s.videoRepo.Delete(video.ID)
}

func (s *VideoService) getOwnedVideo(userID, videoID uint) (*models.Video, error) {
	video, err := s.videoRepo.GetByID(videoID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound("video not found")
		}
		return nil, err
	}
	if video.UserID != userID {
		return nil, models.ErrNotFound("video not found")
	}
	return video, nil
}
