package wrappers

import (
	"context"
	"fmt"
	"strings"

	"github.com/user/netaudit/pkg/adk"
	"github.com/user/netaudit/pkg/engine"
	"github.com/user/netaudit/pkg/report"
)

const noAuditYet = "No audit has been run in this session yet. Run RunComplianceAudit first."

// ReportWrapper implements the Tool interface for showing the latest results
type ReportWrapper struct {
	Results *ResultStore
}

func (r *ReportWrapper) Name() string {
	return "ShowAuditReport"
}

func (r *ReportWrapper) Description() string {
	return "Shows the full results of the latest audit: scores, violations, expected and actual values and remediation steps."
}

func (r *ReportWrapper) Parameters() []adk.Parameter {
	return []adk.Parameter{
		{Name: "device", Description: "Hostname to show. If omitted, all audited devices are shown."},
	}
}

func (r *ReportWrapper) Execute(ctx context.Context, args map[string]interface{}, progress func(string)) (string, error) {
	if r.Results == nil {
		return "Error: Result store not initialized.", nil
	}
	results, generated, _, ok := r.Results.Latest()
	if !ok {
		return noAuditYet, nil
	}

	if name, _ := args["device"].(string); name != "" {
		var filtered []engine.AuditResult
		for _, res := range results {
			if strings.EqualFold(res.Device, name) {
				filtered = append(filtered, res)
			}
		}
		if len(filtered) == 0 {
			return fmt.Sprintf("Device '%s' was not part of the latest audit.", name), nil
		}
		results = filtered
	}

	var sb strings.Builder
	if err := report.Render(&sb, results, generated); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// CompareWrapper implements the Tool interface for comparing the latest
// audit against a saved report
type CompareWrapper struct {
	Results *ResultStore
}

func (c *CompareWrapper) Name() string {
	return "CompareWithPreviousReport"
}

func (c *CompareWrapper) Description() string {
	return "Compares the latest audit with a previously saved JSON report to identify new, fixed and unchanged violations."
}

func (c *CompareWrapper) Parameters() []adk.Parameter {
	return []adk.Parameter{
		{Name: "filename", Description: "Path of the saved audit report to compare against.", Required: true},
	}
}

func (c *CompareWrapper) Execute(ctx context.Context, args map[string]interface{}, progress func(string)) (string, error) {
	if c.Results == nil {
		return "Error: Result store not initialized.", nil
	}
	filename, _ := args["filename"].(string)
	if filename == "" {
		return "Error: filename argument is required.", nil
	}
	current, _, path, ok := c.Results.Latest()
	if !ok {
		return noAuditYet, nil
	}

	previous, err := report.Load(filename)
	if err != nil {
		return fmt.Sprintf("Error loading report '%s': %v", filename, err), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Comparison of %s against %s:\n", path, filename))
	sb.WriteString(strings.Repeat("-", 50) + "\n")
	sb.WriteString(report.Compare(previous, current).String())
	return sb.String(), nil
}
