package notifications

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/journeyos/backend/pkg/db/models"
	"github.com/journeyos/backend/pkg/db/types"
	"github.com/journeyos/backend/pkg/enums"
	pkgerrors "github.com/journeyos/backend/pkg/errors"
	"github.com/journeyos/backend/pkg/pagination"
)

// Service defines notification create/list/read operations.
type Service interface {
	Create(ctx context.Context, params CreateParams) (*models.Notification, error)
	CreateBatch(ctx context.Context, userIDs []uuid.UUID, shared SharedFields) ([]models.Notification, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, notificationID, requestingUserID uuid.UUID) (*models.Notification, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	ExistsByEventID(ctx context.Context, eventID, triggerType string) (bool, error)
}

type service struct {
	repo Repository
}

// CreateParams carries the fields for a single notification insert.
type CreateParams struct {
	UserID        uuid.UUID
	Type          enums.NotificationType
	Title         string
	Body          *string
	ActionURL     *string
	ActionLabel   *string
	InstitutionID *uuid.UUID
	Metadata      types.JSONMap
}

// SharedFields is the content repeated across every row of a batch insert.
type SharedFields struct {
	Type          enums.NotificationType
	Title         string
	Body          *string
	ActionURL     *string
	ActionLabel   *string
	InstitutionID *uuid.UUID
	Metadata      types.JSONMap
}

// ListParams configures filtering and pagination for a user's notifications.
type ListParams struct {
	UserID     uuid.UUID
	Page       int
	Limit      int
	UnreadOnly bool
	Type       *enums.NotificationType
}

// ListResult wraps one page of notifications plus pagination metadata.
type ListResult struct {
	Items []models.Notification `json:"items"`
	Meta  pagination.Meta       `json:"meta"`
}

// NewService wires notifications dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, params CreateParams) (*models.Notification, error) {
	if err := validateCreate(params.UserID, params.Type, params.Title); err != nil {
		return nil, err
	}

	notification := &models.Notification{
		UserID:        params.UserID,
		Type:          params.Type,
		Title:         strings.TrimSpace(params.Title),
		Body:          params.Body,
		ActionURL:     params.ActionURL,
		ActionLabel:   params.ActionLabel,
		InstitutionID: params.InstitutionID,
		Metadata:      params.Metadata,
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create notification")
	}
	return notification, nil
}

func (s *service) CreateBatch(ctx context.Context, userIDs []uuid.UUID, shared SharedFields) ([]models.Notification, error) {
	if len(userIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one recipient required")
	}
	for _, id := range userIDs {
		if err := validateCreate(id, shared.Type, shared.Title); err != nil {
			return nil, err
		}
	}

	title := strings.TrimSpace(shared.Title)
	rows := make([]models.Notification, 0, len(userIDs))
	for _, id := range userIDs {
		rows = append(rows, models.Notification{
			UserID:        id,
			Type:          shared.Type,
			Title:         title,
			Body:          shared.Body,
			ActionURL:     shared.ActionURL,
			ActionLabel:   shared.ActionLabel,
			InstitutionID: shared.InstitutionID,
			Metadata:      shared.Metadata,
		})
	}
	if err := s.repo.CreateBatch(ctx, rows); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create notification batch")
	}
	return rows, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if params.Type != nil && !params.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid notification type filter")
	}

	rows, meta, err := s.repo.List(ctx, listNotificationsParams{
		UserID:     params.UserID,
		Page:       params.Page,
		Limit:      params.Limit,
		UnreadOnly: params.UnreadOnly,
		Type:       params.Type,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}
	return &ListResult{Items: rows, Meta: meta}, nil
}

func (s *service) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	count, err := s.repo.UnreadCount(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unread notifications")
	}
	return count, nil
}

// MarkRead enforces ownership before flipping the read flags. Repeat calls on
// an already-read notification succeed without touching the row.
func (s *service) MarkRead(ctx context.Context, notificationID, requestingUserID uuid.UUID) (*models.Notification, error) {
	if notificationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}
	if requestingUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	notification, err := s.repo.FindByID(ctx, notificationID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find notification")
	}
	if notification == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	if notification.UserID != requestingUserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "notification belongs to another user")
	}

	if !notification.IsRead {
		now := time.Now().UTC()
		if err := s.repo.MarkRead(ctx, notificationID, now); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
		}
		notification.IsRead = true
		notification.ReadAt = &now
	}
	return notification, nil
}

func (s *service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	count, err := s.repo.MarkAllRead(ctx, userID, time.Now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return count, nil
}

func (s *service) ExistsByEventID(ctx context.Context, eventID, triggerType string) (bool, error) {
	if strings.TrimSpace(eventID) == "" || strings.TrimSpace(triggerType) == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "event id and trigger type required")
	}
	exists, err := s.repo.ExistsByEventID(ctx, eventID, triggerType)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check event dedup")
	}
	return exists, nil
}

func validateCreate(userID uuid.UUID, notificationType enums.NotificationType, title string) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if strings.TrimSpace(title) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "title required")
	}
	if !notificationType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid notification type")
	}
	return nil
}
