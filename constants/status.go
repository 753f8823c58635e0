package constants

// EvaluationResult is the tri-state label stored in submissions.evaluation_result.
type EvaluationResult string

// Stable values (store these exact strings in DB).
const (
	ResultPass       EvaluationResult = "Pass"
	ResultCanImprove EvaluationResult = "Can Improve"
	ResultRework     EvaluationResult = "Rework"
)

// Score band lower bounds (inclusive).
const (
	PassThreshold       = 6.0
	CanImproveThreshold = 4.0
	MaxScore            = 10.0
)

// AllResults lists labels in display order.
var AllResults = []EvaluationResult{ResultPass, ResultCanImprove, ResultRework}
