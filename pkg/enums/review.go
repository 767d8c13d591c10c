package enums

// ReviewDecision is the outcome of a question review.
type ReviewDecision string

const (
	DecisionApproved          ReviewDecision = "approved"
	DecisionRejected          ReviewDecision = "rejected"
	DecisionRevisionRequested ReviewDecision = "revision_requested"
)

// DriftSeverity labels a metric drift alert.
type DriftSeverity string

const (
	SeverityWarning  DriftSeverity = "warning"
	SeverityCritical DriftSeverity = "critical"
)
