package repository

import (
	"github.com/draworld/draworld-backend/internal/models"
	"gorm.io/gorm"
)

type VideoRepository struct {
	db *gorm.DB
}

func NewVideoRepository(db *gorm.DB) *VideoRepository {
	return &VideoRepository{
		db: db,
	}
}

func (r *VideoRepository) Create(video *models.Video) error {
	return r.db.Create(video).Error
}

func (r *VideoRepository) GetByID(id uint) (*models.Video, error) {
	var video models.Video
	err := r.db.First(&video, id).Error
	return &video, err
}

func (r *VideoRepository) GetUserVideos(userID uint) ([]models.Video, error) {
	var videos []models.Video
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&videos).Error
	return videos, err
}

func (r *VideoRepository) CountCompletedForUser(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Video{}).
		Where("user_id = ? AND status = ?", userID, models.VideoStatusCompleted).
		Count(&count).Error
	return count, err
}

func (r *VideoRepository) Update(video *models.Video) error {
	return r.db.Save(video).Error
}

func (r *VideoRepository) Delete(id uint) error {
	return r.db.Delete(&models.Video{}, id).Error
}
