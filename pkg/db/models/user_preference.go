package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/journeyos/backend/pkg/db/types"
)

// UserPreference stores per-user settings documents, notification channel
// preferences among them.
type UserPreference struct {
	UserID                  uuid.UUID     `gorm:"type:uuid;primaryKey" json:"user_id"`
	NotificationPreferences types.JSONMap `gorm:"type:jsonb" json:"notification_preferences"`
	UpdatedAt               time.Time     `gorm:"type:timestamptz;default:now()" json:"updated_at"`
}
