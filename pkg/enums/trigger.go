package enums

import "fmt"

// TriggerType names the domain events that fan out into notifications.
// The value doubles as half of the (event_id, trigger_type) dedup key.
type TriggerType string

const (
	TriggerBatchComplete   TriggerType = "batch.complete"
	TriggerReviewRequest   TriggerType = "review.request"
	TriggerReviewDecision  TriggerType = "review.decision"
	TriggerGapScanComplete TriggerType = "gap.scan.complete"
	TriggerKaizenDrift     TriggerType = "kaizen.drift.detected"
	TriggerKaizenLint      TriggerType = "kaizen.lint.complete"
)

var validTriggerTypes = []TriggerType{
	TriggerBatchComplete,
	TriggerReviewRequest,
	TriggerReviewDecision,
	TriggerGapScanComplete,
	TriggerKaizenDrift,
	TriggerKaizenLint,
}

func (t TriggerType) IsValid() bool {
	for _, candidate := range validTriggerTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTriggerType converts raw strings into TriggerType.
func ParseTriggerType(value string) (TriggerType, error) {
	for _, candidate := range validTriggerTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid trigger type %q", value)
}
