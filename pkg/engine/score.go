package engine

const (
	maxScore        = 100
	criticalPenalty = 15
	warningPenalty  = 5
)

// Score computes the security score of a device from its violations:
// 100 minus 15 per critical and 5 per warning, never below zero.
func Score(violations []Violation) int {
	score := maxScore
	for _, v := range violations {
		switch v.Severity {
		case SeverityCritical:
			score -= criticalPenalty
		case SeverityWarning:
			score -= warningPenalty
		}
	}
	if score < 0 {
		return 0
	}
	return score
}

// CountSeverity returns the number of critical and warning violations
func CountSeverity(violations []Violation) (critical, warning int) {
	for _, v := range violations {
		switch v.Severity {
		case SeverityCritical:
			critical++
		case SeverityWarning:
			warning++
		}
	}
	return critical, warning
}
