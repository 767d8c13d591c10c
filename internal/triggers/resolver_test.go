package triggers

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/journeyos/backend/pkg/enums"
	pkgerrors "github.com/journeyos/backend/pkg/errors"
)

type fakeDirectory struct {
	adminIDs []uuid.UUID
	err      error
}

func (f *fakeDirectory) InstitutionalAdminIDs(ctx context.Context, institutionID uuid.UUID) ([]uuid.UUID, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.adminIDs, nil
}

func newResolverWithAdmins(admins ...uuid.UUID) *Resolver {
	r, _ := NewResolver(&fakeDirectory{adminIDs: admins})
	return r
}

func TestResolve_BatchComplete(t *testing.T) {
	ownerID := uuid.New()
	resolved, err := newResolverWithAdmins().Resolve(context.Background(), BatchCompletePayload{
		BasePayload: BasePayload{EventID: "evt-1"},
		OwnerID:     ownerID,
		TotalItems:  25,
		Succeeded:   23,
		Failed:      2,
		BatchName:   "Cardiology Question Set",
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(resolved.UserIDs) != 1 || resolved.UserIDs[0] != ownerID {
		t.Fatalf("expected only the batch owner, got %v", resolved.UserIDs)
	}
	if resolved.Title != "Batch generation complete" {
		t.Fatalf("unexpected title %q", resolved.Title)
	}
	if !strings.Contains(resolved.Body, "23/25 succeeded (2 failed)") {
		t.Fatalf("unexpected body %q", resolved.Body)
	}
	if resolved.Type != enums.NotificationTypeAlert {
		t.Fatalf("unexpected type %q", resolved.Type)
	}
}

func TestResolve_BatchCompleteOmitsZeroFailures(t *testing.T) {
	resolved, err := newResolverWithAdmins().Resolve(context.Background(), BatchCompletePayload{
		BasePayload: BasePayload{EventID: "evt-2"},
		OwnerID:     uuid.New(),
		TotalItems:  10,
		Succeeded:   10,
		BatchName:   "Renal Set",
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if strings.Contains(resolved.Body, "failed") {
		t.Fatalf("clean batch should not mention failures, got %q", resolved.Body)
	}
}

func TestResolve_ReviewRequestFansOutToAllReviewers(t *testing.T) {
	reviewers := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	resolved, err := newResolverWithAdmins().Resolve(context.Background(), ReviewRequestPayload{
		BasePayload:         BasePayload{EventID: "evt-3"},
		AssignedReviewerIDs: reviewers,
		QuestionTitle:       "Beta blocker mechanism",
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(resolved.UserIDs) != 3 {
		t.Fatalf("expected 3 reviewers, got %d", len(resolved.UserIDs))
	}
	if resolved.Title != "Review requested" {
		t.Fatalf("unexpected title %q", resolved.Title)
	}
	if !strings.Contains(resolved.Body, "Beta blocker mechanism") {
		t.Fatalf("body missing question title: %q", resolved.Body)
	}
}

func TestResolve_ReviewDecision(t *testing.T) {
	generatorID := uuid.New()
	resolved, err := newResolverWithAdmins().Resolve(context.Background(), ReviewDecisionPayload{
		BasePayload:   BasePayload{EventID: "evt-4"},
		GeneratorID:   generatorID,
		Decision:      enums.DecisionRejected,
		Comment:       "Stem is ambiguous",
		QuestionTitle: "Beta blocker mechanism",
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Title != "Review rejected" {
		t.Fatalf("unexpected title %q", resolved.Title)
	}
	if !strings.Contains(resolved.Body, ": Stem is ambiguous") {
		t.Fatalf("body missing comment: %q", resolved.Body)
	}
	if resolved.UserIDs[0] != generatorID {
		t.Fatal("expected generator to be the recipient")
	}
}

func TestResolve_ReviewDecisionMultiWordLabel(t *testing.T) {
	resolved, err := newResolverWithAdmins().Resolve(context.Background(), ReviewDecisionPayload{
		BasePayload:   BasePayload{EventID: "evt-5"},
		GeneratorID:   uuid.New(),
		Decision:      enums.DecisionRevisionRequested,
		QuestionTitle: "ACE inhibitors",
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Title != "Review revision requested" {
		t.Fatalf("expected underscores swapped for spaces, got %q", resolved.Title)
	}
	if strings.Contains(resolved.Body, ":") {
		t.Fatalf("empty comment must not append a colon, got %q", resolved.Body)
	}
}

func TestResolve_GapScanComplete(t *testing.T) {
	ownerID := uuid.New()
	resolved, err := newResolverWithAdmins().Resolve(context.Background(), GapScanCompletePayload{
		BasePayload:   BasePayload{EventID: "evt-6"},
		CourseOwnerID: ownerID,
		CourseName:    "Pharmacology 101",
		GapsFound:     7,
		CriticalGaps:  2,
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Type != enums.NotificationTypeCourse {
		t.Fatalf("expected course type, got %q", resolved.Type)
	}
	if !strings.Contains(resolved.Body, "7 gaps (2 critical)") {
		t.Fatalf("unexpected body %q", resolved.Body)
	}
}

func TestResolve_KaizenDriftNotifiesAllAdmins(t *testing.T) {
	admins := []uuid.UUID{uuid.New(), uuid.New()}
	resolver := newResolverWithAdmins(admins...)

	resolved, err := resolver.Resolve(context.Background(), KaizenDriftPayload{
		BasePayload:   BasePayload{EventID: "evt-7"},
		InstitutionID: uuid.New(),
		MetricName:    "question_quality_score",
		CurrentValue:  3.5,
		Threshold:     4,
		Severity:      enums.SeverityCritical,
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(resolved.UserIDs) != 2 {
		t.Fatalf("expected both admins, got %d", len(resolved.UserIDs))
	}
	if resolved.Title != "Kaizen drift detected (critical)" {
		t.Fatalf("unexpected title %q", resolved.Title)
	}
	if !strings.Contains(resolved.Body, "at 3.5 is below threshold 4.") {
		t.Fatalf("unexpected body %q", resolved.Body)
	}
}

func TestResolve_KaizenDriftPropagatesResolutionFailure(t *testing.T) {
	resolver, _ := NewResolver(&fakeDirectory{
		err: pkgerrors.New(pkgerrors.CodeDependency, "no institutional admins found for institution"),
	})

	_, err := resolver.Resolve(context.Background(), KaizenDriftPayload{
		BasePayload:   BasePayload{EventID: "evt-8"},
		InstitutionID: uuid.New(),
	})
	if err == nil {
		t.Fatal("expected resolution failure to propagate")
	}
	if !pkgerrors.Retryable(err) {
		t.Fatal("expected resolution failure to be retryable")
	}
}

func TestResolve_KaizenLint(t *testing.T) {
	resolved, err := newResolverWithAdmins(uuid.New()).Resolve(context.Background(), KaizenLintPayload{
		BasePayload:      BasePayload{EventID: "evt-9"},
		InstitutionID:    uuid.New(),
		TotalFindings:    12,
		CriticalFindings: 3,
		WarningFindings:  9,
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Title != "Kaizen lint complete" {
		t.Fatalf("unexpected title %q", resolved.Title)
	}
	if !strings.Contains(resolved.Body, "12 findings (3 critical, 9 warnings)") {
		t.Fatalf("unexpected body %q", resolved.Body)
	}
}
