package models

import "time"

// Video statuses
const (
	VideoStatusPending    = "pending"
	VideoStatusProcessing = "processing"
	VideoStatusCompleted  = "completed"
	VideoStatusFailed     = "failed"
)

// Video is one animation generated from an uploaded drawing.
type Video struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	UserID         uint      `json:"user_id" gorm:"index;not null"`
	Title          string    `json:"title" gorm:"not null"`
	Prompt         string    `json:"prompt"`
	SourceImageURL string    `json:"source_image_url" gorm:"not null"`
	StorageKey     string    `json:"-"`
	ProviderTaskID string    `json:"-" gorm:"index"`
	VideoURL       string    `json:"video_url"`
	ThumbnailURL   string    `json:"thumbnail_url"`
	Status         string    `json:"status" gorm:"index;not null;default:'pending'"`
	ErrorMessage   string    `json:"error_message,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type CreateVideoRequest struct {
	Title  string `json:"title" validate:"required"`
	Prompt string `json:"prompt" validate:"max=500"`
}

type VideoStatusResult struct {
	ID           uint   `json:"id"`
	Status       string `json:"status"`
	VideoURL     string `json:"video_url,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}
