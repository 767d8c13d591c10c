package preferences

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/journeyos/backend/pkg/db/models"
	"github.com/journeyos/backend/pkg/db/types"
	pkgerrors "github.com/journeyos/backend/pkg/errors"
)

// PreferenceType names a notification category users can tune per channel.
type PreferenceType string

const (
	PrefBatchComplete  PreferenceType = "batch_complete"
	PrefReviewRequest  PreferenceType = "review_request"
	PrefReviewDecision PreferenceType = "review_decision"
	PrefGapScan        PreferenceType = "gap_scan"
	PrefLintAlert      PreferenceType = "lint_alert"
	PrefSystem         PreferenceType = "system"
)

var validPreferenceTypes = []PreferenceType{
	PrefBatchComplete,
	PrefReviewRequest,
	PrefReviewDecision,
	PrefGapScan,
	PrefLintAlert,
	PrefSystem,
}

// ChannelPreference is the per-type delivery channel switch pair.
type ChannelPreference struct {
	InApp bool `json:"in_app"`
	Email bool `json:"email"`
}

// Matrix maps every preference type to its channel switches.
type Matrix map[PreferenceType]ChannelPreference

// ChannelPatch is a partial channel update; nil fields keep the current value.
type ChannelPatch struct {
	InApp *bool `json:"in_app"`
	Email *bool `json:"email"`
}

// DefaultMatrix returns the starting preferences: every type in-app, email off.
func DefaultMatrix() Matrix {
	matrix := make(Matrix, len(validPreferenceTypes))
	for _, t := range validPreferenceTypes {
		matrix[t] = ChannelPreference{InApp: true, Email: false}
	}
	return matrix
}

// Service manages per-user notification channel preferences.
type Service interface {
	GetForUser(ctx context.Context, userID uuid.UUID) (Matrix, error)
	UpdateForUser(ctx context.Context, userID uuid.UUID, patch map[PreferenceType]ChannelPatch) (Matrix, error)
	ResetForUser(ctx context.Context, userID uuid.UUID) (Matrix, error)
}

// Stored as a JSON document on user_preferences, queried directly without a
// repository layer.
type service struct {
	db *gorm.DB
}

// NewService wires the preference service.
func NewService(db *gorm.DB) (Service, error) {
	if db == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "database required")
	}
	return &service{db: db}, nil
}

// GetForUser reads the user's matrix, creating the default row on first read.
func (s *service) GetForUser(ctx context.Context, userID uuid.UUID) (Matrix, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	var row models.UserPreference
	err := s.db.WithContext(ctx).First(&row, "user_id = ?", userID).Error
	if err == nil && len(row.NotificationPreferences) > 0 {
		return matrixFromJSONMap(row.NotificationPreferences)
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load preferences")
	}

	return s.upsertMatrix(ctx, userID, DefaultMatrix())
}

// UpdateForUser deep-merges the patch into the current matrix. Unknown type
// names are rejected; omitted channels keep their current value.
func (s *service) UpdateForUser(ctx context.Context, userID uuid.UUID, patch map[PreferenceType]ChannelPatch) (Matrix, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if len(patch) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "preferences object required")
	}
	for prefType := range patch {
		if !isValidPreferenceType(prefType) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("unknown notification type %q", prefType))
		}
	}

	current, err := s.GetForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	merged := make(Matrix, len(current))
	for k, v := range current {
		merged[k] = v
	}
	for prefType, channels := range patch {
		existing := merged[prefType]
		if channels.InApp != nil {
			existing.InApp = *channels.InApp
		}
		if channels.Email != nil {
			existing.Email = *channels.Email
		}
		merged[prefType] = existing
	}

	return s.upsertMatrix(ctx, userID, merged)
}

// ResetForUser restores the default matrix.
func (s *service) ResetForUser(ctx context.Context, userID uuid.UUID) (Matrix, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	return s.upsertMatrix(ctx, userID, DefaultMatrix())
}

func (s *service) upsertMatrix(ctx context.Context, userID uuid.UUID, matrix Matrix) (Matrix, error) {
	doc, err := matrixToJSONMap(matrix)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode preferences")
	}

	row := models.UserPreference{
		UserID:                  userID,
		NotificationPreferences: doc,
		UpdatedAt:               time.Now().UTC(),
	}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"notification_preferences", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save preferences")
	}
	return matrix, nil
}

func isValidPreferenceType(t PreferenceType) bool {
	for _, candidate := range validPreferenceTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

func matrixToJSONMap(matrix Matrix) (types.JSONMap, error) {
	raw, err := json.Marshal(matrix)
	if err != nil {
		return nil, err
	}
	var doc types.JSONMap
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// matrixFromJSONMap decodes a stored document, backfilling any type added
// after the row was written with its default.
func matrixFromJSONMap(doc types.JSONMap) (Matrix, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode stored preferences")
	}
	var matrix Matrix
	if err := json.Unmarshal(raw, &matrix); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode stored preferences")
	}
	for _, t := range validPreferenceTypes {
		if _, ok := matrix[t]; !ok {
			matrix[t] = ChannelPreference{InApp: true, Email: false}
		}
	}
	return matrix, nil
}
