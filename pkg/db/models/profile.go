package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/journeyos/backend/pkg/enums"
)

// Profile is the user directory row. The identity subsystem owns writes;
// this service only reads it for recipient resolution.
type Profile struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Email         string         `gorm:"type:text;not null" json:"email"`
	Role          enums.UserRole `gorm:"type:text;not null;index" json:"role"`
	InstitutionID *uuid.UUID     `gorm:"type:uuid;index" json:"institution_id"`
	CreatedAt     time.Time      `gorm:"type:timestamptz;default:now()" json:"created_at"`
}
