package model

import (
	"time"

	"gorm.io/datatypes"
)

// Generation represents the database model for a history entry
type Generation struct {
	ID            string         `gorm:"primaryKey;size:36"`
	UserID        string         `gorm:"not null;size:64;index:idx_generations_user_status_created,priority:1"`
	Prompt        string         `gorm:"type:text;not null"`
	TaskID        string         `gorm:"uniqueIndex;not null;size:128"`
	Images        datatypes.JSON `gorm:"not null"` // Ordered list of image URLs
	Status        string         `gorm:"not null;size:16;index:idx_generations_user_status_created,priority:2;index:idx_generations_status_created,priority:1"`
	CreditsUsed   int64          `gorm:"not null"`
	FailureReason string         `gorm:"type:text"`
	CreatedAt     time.Time      `gorm:"not null;index:idx_generations_user_status_created,priority:3,sort:desc;index:idx_generations_status_created,priority:2"`
	UpdatedAt     time.Time      `gorm:"not null"`
	FinishedAt    *time.Time
}

// TableName specifies the table name for Generation
func (Generation) TableName() string {
	return "generations"
}
