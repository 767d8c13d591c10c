package triggers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/journeyos/backend/internal/directory"
	"github.com/journeyos/backend/pkg/enums"
	pkgerrors "github.com/journeyos/backend/pkg/errors"
)

// ResolvedRecipients is the output of recipient resolution: who to notify
// and with what content.
type ResolvedRecipients struct {
	UserIDs   []uuid.UUID
	Type      enums.NotificationType
	Title     string
	Body      string
	ActionURL *string
}

// Resolver maps trigger payloads to notification recipients and content.
type Resolver struct {
	directory directory.AdminDirectory
}

// NewResolver wires the resolver with the admin directory it needs for
// institution-wide fan-out events.
func NewResolver(dir directory.AdminDirectory) (*Resolver, error) {
	if dir == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "admin directory required")
	}
	return &Resolver{directory: dir}, nil
}

// Resolve is exhaustive over the sealed payload union.
func (r *Resolver) Resolve(ctx context.Context, payload TriggerPayload) (*ResolvedRecipients, error) {
	switch p := payload.(type) {
	case BatchCompletePayload:
		return resolveBatchComplete(p), nil
	case ReviewRequestPayload:
		return resolveReviewRequest(p), nil
	case ReviewDecisionPayload:
		return resolveReviewDecision(p), nil
	case GapScanCompletePayload:
		return resolveGapScan(p), nil
	case KaizenDriftPayload:
		return r.resolveKaizenDrift(ctx, p)
	case KaizenLintPayload:
		return r.resolveKaizenLint(ctx, p)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown trigger payload %T", payload))
	}
}

func resolveBatchComplete(p BatchCompletePayload) *ResolvedRecipients {
	failedText := ""
	if p.Failed > 0 {
		failedText = fmt.Sprintf(" (%d failed)", p.Failed)
	}
	return &ResolvedRecipients{
		UserIDs: []uuid.UUID{p.OwnerID},
		Type:    enums.NotificationTypeAlert,
		Title:   "Batch generation complete",
		Body:    fmt.Sprintf("%q finished: %d/%d succeeded%s.", p.BatchName, p.Succeeded, p.TotalItems, failedText),
	}
}

func resolveReviewRequest(p ReviewRequestPayload) *ResolvedRecipients {
	return &ResolvedRecipients{
		UserIDs: append([]uuid.UUID(nil), p.AssignedReviewerIDs...),
		Type:    enums.NotificationTypeAlert,
		Title:   "Review requested",
		Body:    fmt.Sprintf("You have been asked to review %q.", p.QuestionTitle),
	}
}

func resolveReviewDecision(p ReviewDecisionPayload) *ResolvedRecipients {
	decisionLabel := strings.ReplaceAll(string(p.Decision), "_", " ")
	commentText := ""
	if len(p.Comment) > 0 {
		commentText = ": " + p.Comment
	}
	return &ResolvedRecipients{
		UserIDs: []uuid.UUID{p.GeneratorID},
		Type:    enums.NotificationTypeAlert,
		Title:   "Review " + decisionLabel,
		Body:    fmt.Sprintf("%q was %s%s.", p.QuestionTitle, decisionLabel, commentText),
	}
}

func resolveGapScan(p GapScanCompletePayload) *ResolvedRecipients {
	return &ResolvedRecipients{
		UserIDs: []uuid.UUID{p.CourseOwnerID},
		Type:    enums.NotificationTypeCourse,
		Title:   "Gap scan complete",
		Body:    fmt.Sprintf("%q scan found %d gaps (%d critical).", p.CourseName, p.GapsFound, p.CriticalGaps),
	}
}

func (r *Resolver) resolveKaizenDrift(ctx context.Context, p KaizenDriftPayload) (*ResolvedRecipients, error) {
	adminIDs, err := r.directory.InstitutionalAdminIDs(ctx, p.InstitutionID)
	if err != nil {
		return nil, err
	}
	return &ResolvedRecipients{
		UserIDs: adminIDs,
		Type:    enums.NotificationTypeAlert,
		Title:   fmt.Sprintf("Kaizen drift detected (%s)", p.Severity),
		Body: fmt.Sprintf("Metric %q at %s is below threshold %s.",
			p.MetricName, formatNumber(p.CurrentValue), formatNumber(p.Threshold)),
	}, nil
}

func (r *Resolver) resolveKaizenLint(ctx context.Context, p KaizenLintPayload) (*ResolvedRecipients, error) {
	adminIDs, err := r.directory.InstitutionalAdminIDs(ctx, p.InstitutionID)
	if err != nil {
		return nil, err
	}
	return &ResolvedRecipients{
		UserIDs: adminIDs,
		Type:    enums.NotificationTypeAlert,
		Title:   "Kaizen lint complete",
		Body: fmt.Sprintf("Lint run found %d findings (%d critical, %d warnings).",
			p.TotalFindings, p.CriticalFindings, p.WarningFindings),
	}, nil
}

// formatNumber renders metric values without a forced decimal point, so whole
// numbers read as "3" and fractions as "3.5".
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
