package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/journeyos/backend/pkg/db/models"
	"github.com/journeyos/backend/pkg/db/types"
	"github.com/journeyos/backend/pkg/enums"
	pkgerrors "github.com/journeyos/backend/pkg/errors"
	"github.com/journeyos/backend/pkg/logger"
)

// EventNotificationNew is the websocket event name for freshly pushed notifications.
const EventNotificationNew = "notification:new"

// RealtimeChannel is the slice of the websocket gateway the push path needs.
type RealtimeChannel interface {
	IsOnline(userID uuid.UUID) bool
	EmitToUser(userID uuid.UUID, event string, payload any) error
}

// PushPayload is the wire shape emitted to online recipients.
type PushPayload struct {
	ID        uuid.UUID              `json:"id"`
	Type      enums.NotificationType `json:"type"`
	Title     string                 `json:"title"`
	Body      *string                `json:"body"`
	Metadata  types.JSONMap          `json:"metadata"`
	CreatedAt time.Time              `json:"created_at"`
}

// Pusher persists a notification and then best-effort pushes it to the
// recipient's websocket channel. Persistence failures are fatal; push
// failures never are.
type Pusher struct {
	svc     Service
	channel RealtimeChannel
	logg    *logger.Logger
}

// NewPusher wires the push orchestrator.
func NewPusher(svc Service, channel RealtimeChannel, logg *logger.Logger) (*Pusher, error) {
	if svc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications service required")
	}
	if channel == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "realtime channel required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &Pusher{svc: svc, channel: channel, logg: logg}, nil
}

// Push persists the notification and emits it when the recipient is online.
func (p *Pusher) Push(ctx context.Context, params CreateParams) (*models.Notification, error) {
	notification, err := p.svc.Create(ctx, params)
	if err != nil {
		if appErr := pkgerrors.As(err); appErr != nil && appErr.Code() == pkgerrors.CodeValidation {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist notification for push")
	}

	p.emit(ctx, notification)
	return notification, nil
}

// PushBatch persists one row per recipient and emits to each online recipient.
func (p *Pusher) PushBatch(ctx context.Context, userIDs []uuid.UUID, shared SharedFields) ([]models.Notification, error) {
	rows, err := p.svc.CreateBatch(ctx, userIDs, shared)
	if err != nil {
		if appErr := pkgerrors.As(err); appErr != nil && appErr.Code() == pkgerrors.CodeValidation {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist notification batch for push")
	}

	for i := range rows {
		p.emit(ctx, &rows[i])
	}
	return rows, nil
}

// MarkRead is a thin pass-through so realtime clients have a single façade.
func (p *Pusher) MarkRead(ctx context.Context, notificationID, requestingUserID uuid.UUID) (*models.Notification, error) {
	return p.svc.MarkRead(ctx, notificationID, requestingUserID)
}

// GetUnread lists the caller's unread notifications.
func (p *Pusher) GetUnread(ctx context.Context, userID uuid.UUID, page, limit int) (*ListResult, error) {
	return p.svc.List(ctx, ListParams{
		UserID:     userID,
		Page:       page,
		Limit:      limit,
		UnreadOnly: true,
	})
}

func (p *Pusher) emit(ctx context.Context, notification *models.Notification) {
	if !p.channel.IsOnline(notification.UserID) {
		return
	}

	payload := PushPayload{
		ID:        notification.ID,
		Type:      notification.Type,
		Title:     notification.Title,
		Body:      notification.Body,
		Metadata:  notification.Metadata,
		CreatedAt: notification.CreatedAt,
	}
	if err := p.channel.EmitToUser(notification.UserID, EventNotificationNew, payload); err != nil {
		logCtx := p.logg.WithFields(ctx, map[string]any{
			"notification_id": notification.ID.String(),
			"user_id":         notification.UserID.String(),
		})
		p.logg.Warn(logCtx, "websocket push failed")
	}
}
