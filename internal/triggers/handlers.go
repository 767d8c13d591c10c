package triggers

import (
	"context"

	"github.com/google/uuid"

	"github.com/journeyos/backend/internal/notifications"
	"github.com/journeyos/backend/pkg/db/types"
	pkgerrors "github.com/journeyos/backend/pkg/errors"
	"github.com/journeyos/backend/pkg/logger"
)

// Skip reasons surfaced in handler results.
const (
	ReasonDuplicate          = "duplicate"
	ReasonNoCriticalFindings = "no_critical_findings"
)

// Result reports what a trigger handler did with an event.
type Result struct {
	Skipped  bool   `json:"skipped,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Notified int    `json:"notified,omitempty"`
}

// Handler runs the idempotent step sequence for every trigger kind:
// dedup check, recipient resolution, notification creation with the
// (event_id, trigger_type) pair embedded for future dedup lookups.
type Handler struct {
	svc      notifications.Service
	pusher   *notifications.Pusher
	resolver *Resolver
	logg     *logger.Logger
}

// NewHandler wires the trigger handler.
func NewHandler(svc notifications.Service, pusher *notifications.Pusher, resolver *Resolver, logg *logger.Logger) (*Handler, error) {
	if svc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications service required")
	}
	if pusher == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "push orchestrator required")
	}
	if resolver == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "trigger resolver required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &Handler{svc: svc, pusher: pusher, resolver: resolver, logg: logg}, nil
}

// Handle processes one trigger event end to end.
func (h *Handler) Handle(ctx context.Context, payload TriggerPayload) (*Result, error) {
	triggerType := payload.Kind()
	eventID := payload.DedupEventID()
	logCtx := h.logg.WithTriggerType(ctx, string(triggerType))
	logCtx = h.logg.WithField(logCtx, "event_id", eventID)

	// Noise suppression for clean lint runs happens before any other step,
	// including dedup, so suppressed events never consume a dedup slot.
	if lint, ok := payload.(KaizenLintPayload); ok && lint.CriticalFindings == 0 {
		h.logg.Info(logCtx, "lint run clean, skipping notification")
		return &Result{Skipped: true, Reason: ReasonNoCriticalFindings}, nil
	}

	exists, err := h.svc.ExistsByEventID(ctx, eventID, string(triggerType))
	if err != nil {
		return nil, err
	}
	if exists {
		h.logg.Info(logCtx, "event already notified, skipping")
		return &Result{Skipped: true, Reason: ReasonDuplicate}, nil
	}

	resolved, err := h.resolver.Resolve(ctx, payload)
	if err != nil {
		return nil, err
	}

	metadata := types.JSONMap{
		"event_id":     eventID,
		"trigger_type": string(triggerType),
	}

	if len(resolved.UserIDs) == 1 {
		if _, err := h.pusher.Push(ctx, notifications.CreateParams{
			UserID:    resolved.UserIDs[0],
			Type:      resolved.Type,
			Title:     resolved.Title,
			Body:      &resolved.Body,
			ActionURL: resolved.ActionURL,
			Metadata:  metadata,
		}); err != nil {
			return nil, err
		}
		return &Result{Notified: 1}, nil
	}

	if _, err := h.pusher.PushBatch(ctx, append([]uuid.UUID(nil), resolved.UserIDs...), notifications.SharedFields{
		Type:      resolved.Type,
		Title:     resolved.Title,
		Body:      &resolved.Body,
		ActionURL: resolved.ActionURL,
		Metadata:  metadata,
	}); err != nil {
		return nil, err
	}
	return &Result{Notified: len(resolved.UserIDs)}, nil
}
