package triggers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/journeyos/backend/pkg/enums"
)

// TriggerPayload is the sealed union of event payloads the consumer accepts.
// Every payload carries the event id that forms half of the dedup key.
type TriggerPayload interface {
	Kind() enums.TriggerType
	DedupEventID() string
	isTriggerPayload()
}

// BasePayload holds the fields shared by every trigger event.
type BasePayload struct {
	EventID   string    `json:"event_id"`
	Timestamp time.Time `json:"timestamp"`
}

func (b BasePayload) DedupEventID() string { return b.EventID }
func (b BasePayload) isTriggerPayload()    {}

// BatchCompletePayload reports a finished question generation batch.
type BatchCompletePayload struct {
	BasePayload
	BatchID    uuid.UUID `json:"batch_id"`
	OwnerID    uuid.UUID `json:"owner_id"`
	TotalItems int       `json:"total_items"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
	BatchName  string    `json:"batch_name"`
}

func (BatchCompletePayload) Kind() enums.TriggerType { return enums.TriggerBatchComplete }

// ReviewRequestPayload asks one or more reviewers to look at a question.
type ReviewRequestPayload struct {
	BasePayload
	ReviewID            uuid.UUID   `json:"review_id"`
	QuestionID          uuid.UUID   `json:"question_id"`
	RequesterID         uuid.UUID   `json:"requester_id"`
	AssignedReviewerIDs []uuid.UUID `json:"assigned_reviewer_ids"`
	QuestionTitle       string      `json:"question_title"`
}

func (ReviewRequestPayload) Kind() enums.TriggerType { return enums.TriggerReviewRequest }

// ReviewDecisionPayload reports a review outcome back to the generator.
type ReviewDecisionPayload struct {
	BasePayload
	ReviewID      uuid.UUID            `json:"review_id"`
	QuestionID    uuid.UUID            `json:"question_id"`
	ReviewerID    uuid.UUID            `json:"reviewer_id"`
	GeneratorID   uuid.UUID            `json:"generator_id"`
	Decision      enums.ReviewDecision `json:"decision"`
	Comment       string               `json:"comment"`
	QuestionTitle string               `json:"question_title"`
}

func (ReviewDecisionPayload) Kind() enums.TriggerType { return enums.TriggerReviewDecision }

// GapScanCompletePayload reports a finished curriculum gap scan.
type GapScanCompletePayload struct {
	BasePayload
	ScanID        uuid.UUID `json:"scan_id"`
	CourseID      uuid.UUID `json:"course_id"`
	CourseOwnerID uuid.UUID `json:"course_owner_id"`
	GapsFound     int       `json:"gaps_found"`
	CriticalGaps  int       `json:"critical_gaps"`
	CourseName    string    `json:"course_name"`
}

func (GapScanCompletePayload) Kind() enums.TriggerType { return enums.TriggerGapScanComplete }

// KaizenDriftPayload alerts institutional admins about a drifting metric.
type KaizenDriftPayload struct {
	BasePayload
	DriftID       uuid.UUID           `json:"drift_id"`
	InstitutionID uuid.UUID           `json:"institution_id"`
	MetricName    string              `json:"metric_name"`
	CurrentValue  float64             `json:"current_value"`
	Threshold     float64             `json:"threshold"`
	Severity      enums.DriftSeverity `json:"severity"`
}

func (KaizenDriftPayload) Kind() enums.TriggerType { return enums.TriggerKaizenDrift }

// KaizenLintPayload summarizes a lint run for institutional admins.
type KaizenLintPayload struct {
	BasePayload
	LintRunID        uuid.UUID `json:"lint_run_id"`
	InstitutionID    uuid.UUID `json:"institution_id"`
	TotalFindings    int       `json:"total_findings"`
	CriticalFindings int       `json:"critical_findings"`
	WarningFindings  int       `json:"warning_findings"`
}

func (KaizenLintPayload) Kind() enums.TriggerType { return enums.TriggerKaizenLint }

// DecodePayload parses the envelope data for the given trigger type.
func DecodePayload(triggerType enums.TriggerType, data []byte) (TriggerPayload, error) {
	var (
		payload TriggerPayload
		err     error
	)
	switch triggerType {
	case enums.TriggerBatchComplete:
		var p BatchCompletePayload
		err = json.Unmarshal(data, &p)
		payload = p
	case enums.TriggerReviewRequest:
		var p ReviewRequestPayload
		err = json.Unmarshal(data, &p)
		payload = p
	case enums.TriggerReviewDecision:
		var p ReviewDecisionPayload
		err = json.Unmarshal(data, &p)
		payload = p
	case enums.TriggerGapScanComplete:
		var p GapScanCompletePayload
		err = json.Unmarshal(data, &p)
		payload = p
	case enums.TriggerKaizenDrift:
		var p KaizenDriftPayload
		err = json.Unmarshal(data, &p)
		payload = p
	case enums.TriggerKaizenLint:
		var p KaizenLintPayload
		err = json.Unmarshal(data, &p)
		payload = p
	default:
		return nil, fmt.Errorf("unknown trigger type %q", triggerType)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", triggerType, err)
	}
	return payload, nil
}
