package engine

import "time"

// Severity is the weight a rule carries when a device violates it
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
)

// Valid reports whether s is one of the known severities
func (s Severity) Valid() bool {
	return s == SeverityCritical || s == SeverityWarning
}

// Violation is a single detected deviation from a baseline rule
type Violation struct {
	Device      string   `json:"device"`
	Category    string   `json:"category"`
	Rule        string   `json:"rule"`
	Severity    Severity `json:"severity"`
	Parameter   string   `json:"parameter"`
	Expected    string   `json:"expected"`
	Actual      string   `json:"actual"`
	Remediation string   `json:"remediation"`
}

// CategorySummary records how many rules of a category were evaluated on a
// device and how many of them were violated. Rules == 0 means the category
// had nothing to check, as opposed to every check passing.
type CategorySummary struct {
	Category   string `json:"category"`
	Rules      int    `json:"rules"`
	Violations int    `json:"violations"`
}

// AuditResult is the outcome of auditing one device in one run
type AuditResult struct {
	RunID              string            `json:"run_id"`
	Device             string            `json:"device"`
	IP                 string            `json:"ip"`
	Timestamp          time.Time         `json:"timestamp"`
	SecurityScore      int               `json:"security_score"`
	TotalViolations    int               `json:"total_violations"`
	CriticalViolations int               `json:"critical_violations"`
	WarningViolations  int               `json:"warning_violations"`
	Categories         []CategorySummary `json:"categories"`
	Violations         []Violation       `json:"violations"`
}

// BySeverity returns the violations of the given severity, in report order
func (r AuditResult) BySeverity(sev Severity) []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Severity == sev {
			out = append(out, v)
		}
	}
	return out
}
