// Package report renders audit results for people and persists them as
// JSON artifacts.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/user/netaudit/pkg/engine"
)

// DefaultDir is where reports are written when no directory is configured
const DefaultDir = "reports"

const (
	fileTimeLayout = "20060102_150405"
	width          = 60
)

// FileName returns the artifact name for a run generated at t
func FileName(t time.Time) string {
	return fmt.Sprintf("audit_report_%s.json", t.Format(fileTimeLayout))
}

// Save writes results as indented JSON into dir, creating it if needed, and
// returns the path of the file.
func Save(dir string, results []engine.AuditResult, generated time.Time) (string, error) {
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create reports dir: %w", err)
	}
	if results == nil {
		results = []engine.AuditResult{}
	}
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}
	path := filepath.Join(dir, FileName(generated))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

// Load reads a report written by Save
func Load(path string) ([]engine.AuditResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report %s: %w", path, err)
	}
	var results []engine.AuditResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("parse report %s: %w", path, err)
	}
	return results, nil
}

// Render writes the human-readable summary of a run
func Render(w io.Writer, results []engine.AuditResult, generated time.Time) error {
	var sb strings.Builder
	rule := strings.Repeat("#", width)
	sb.WriteString(rule + "\n")
	sb.WriteString("# NETWORK SECURITY AUDIT REPORT\n")
	sb.WriteString(fmt.Sprintf("# Generated: %s\n", generated.Format("2006-01-02 15:04:05")))
	sb.WriteString(rule + "\n")

	if len(results) == 0 {
		sb.WriteString("\nNo devices were audited.\n")
	}
	for _, r := range results {
		writeResult(&sb, r)
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// RenderResult writes the summary of a single device
func RenderResult(w io.Writer, r engine.AuditResult) error {
	var sb strings.Builder
	writeResult(&sb, r)
	_, err := io.WriteString(w, sb.String())
	return err
}

func writeResult(sb *strings.Builder, r engine.AuditResult) {
	line := strings.Repeat("-", width)
	sb.WriteString(fmt.Sprintf("\nDevice: %s (%s)\n", r.Device, r.IP))
	sb.WriteString(line + "\n")
	sb.WriteString(fmt.Sprintf("Security Score: %d/100\n", r.SecurityScore))
	sb.WriteString(fmt.Sprintf("Total Violations: %d\n", r.TotalViolations))
	sb.WriteString(fmt.Sprintf("  - Critical: %d\n", r.CriticalViolations))
	sb.WriteString(fmt.Sprintf("  - Warnings: %d\n", r.WarningViolations))

	for _, c := range r.Categories {
		status := "PASS"
		switch {
		case c.Rules == 0:
			status = "N/A"
		case c.Violations > 0:
			status = "FAIL"
		}
		sb.WriteString(fmt.Sprintf("  [%s] %s (%d rules, %d violations)\n", status, c.Category, c.Rules, c.Violations))
	}

	if len(r.Violations) == 0 {
		return
	}
	writeSection(sb, "CRITICAL VIOLATIONS", "✗", r.BySeverity(engine.SeverityCritical))
	writeSection(sb, "WARNING VIOLATIONS", "⚠", r.BySeverity(engine.SeverityWarning))
}

func writeSection(sb *strings.Builder, title, mark string, vs []engine.Violation) {
	sb.WriteString(fmt.Sprintf("\n%s\n", center(title, width)))
	sb.WriteString(strings.Repeat("-", width) + "\n")
	if len(vs) == 0 {
		sb.WriteString("  None\n")
		return
	}
	for _, v := range vs {
		sb.WriteString(fmt.Sprintf("\n%s %s\n", mark, v.Rule))
		sb.WriteString(fmt.Sprintf("  Category: %s\n", v.Category))
		sb.WriteString(fmt.Sprintf("  Expected: %s\n", v.Expected))
		sb.WriteString(fmt.Sprintf("  Actual: %s\n", v.Actual))
		sb.WriteString(fmt.Sprintf("  Remediation: %s\n", v.Remediation))
	}
}

func center(s string, n int) string {
	if len(s) >= n {
		return s
	}
	pad := (n - len(s)) / 2
	return strings.Repeat(" ", pad) + s
}
