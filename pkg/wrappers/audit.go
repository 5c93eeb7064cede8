package wrappers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/user/netaudit/pkg/adk"
	"github.com/user/netaudit/pkg/auditor"
	"github.com/user/netaudit/pkg/inventory"
	"github.com/user/netaudit/pkg/report"
)

// AuditWrapper implements the Tool interface for running a compliance audit
type AuditWrapper struct {
	Auditor    *auditor.Auditor
	Devices    []inventory.Device
	ReportsDir string
	Results    *ResultStore
	// Now defaults to time.Now
	Now func() time.Time
}

func (a *AuditWrapper) Name() string {
	return "RunComplianceAudit"
}

func (a *AuditWrapper) Description() string {
	return "Connects to the inventory devices over SSH, checks SSH settings, user accounts and firewall rules against the baselines, saves a JSON report and returns a score summary."
}

func (a *AuditWrapper) Parameters() []adk.Parameter {
	return []adk.Parameter{
		{Name: "device", Description: "Hostname of a single device to audit. If omitted, all devices are audited."},
	}
}

func (a *AuditWrapper) Execute(ctx context.Context, args map[string]interface{}, progress func(string)) (string, error) {
	if a.Auditor == nil {
		return "Error: Auditor not initialized.", nil
	}

	devices := a.Devices
	if name, _ := args["device"].(string); name != "" {
		d, ok := inventory.Find(a.Devices, name)
		if !ok {
			return fmt.Sprintf("Device '%s' is not in the inventory.", name), nil
		}
		devices = []inventory.Device{d}
	}
	if len(devices) == 0 {
		return "The inventory has no devices.", nil
	}

	if progress != nil {
		progress(fmt.Sprintf("Auditing %d device(s)...", len(devices)))
	}
	results, err := a.Auditor.Run(ctx, devices)
	if err != nil {
		return "", err
	}

	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	generated := now()
	path, err := report.Save(a.ReportsDir, results, generated)
	if err != nil {
		return "", err
	}
	if a.Results != nil {
		a.Results.Set(results, generated, path)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Audited %d of %d device(s). Report saved to %s\n", len(results), len(devices), path))
	for _, r := range results {
		sb.WriteString(fmt.Sprintf("- %s (%s): score %d/100, %d critical, %d warning\n",
			r.Device, r.IP, r.SecurityScore, r.CriticalViolations, r.WarningViolations))
	}
	if skipped := len(devices) - len(results); skipped > 0 {
		sb.WriteString(fmt.Sprintf("%d device(s) could not be audited (connection or command failure).\n", skipped))
	}
	return sb.String(), nil
}
