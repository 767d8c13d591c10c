package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/journeyos/backend/pkg/db/types"
	"github.com/journeyos/backend/pkg/enums"
)

// Notification is an in-app notification row owned by a single user.
// Rows are immutable once created except for the read flags.
type Notification struct {
	ID            uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID        uuid.UUID              `gorm:"type:uuid;not null;index" json:"user_id"`
	Type          enums.NotificationType `gorm:"type:text;not null" json:"type"`
	Title         string                 `gorm:"type:text;not null" json:"title"`
	Body          *string                `gorm:"type:text" json:"body"`
	ActionURL     *string                `gorm:"type:text" json:"action_url"`
	ActionLabel   *string                `gorm:"type:text" json:"action_label"`
	IsRead        bool                   `gorm:"not null;default:false" json:"is_read"`
	ReadAt        *time.Time             `gorm:"type:timestamptz" json:"read_at"`
	CreatedAt     time.Time              `gorm:"type:timestamptz;default:now()" json:"created_at"`
	InstitutionID *uuid.UUID             `gorm:"type:uuid" json:"institution_id"`
	Metadata      types.JSONMap          `gorm:"type:jsonb" json:"metadata"`
}
