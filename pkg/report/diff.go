package report

import (
	"fmt"
	"strings"

	"github.com/user/netaudit/pkg/engine"
)

// Diff classifies violations between two runs
type Diff struct {
	New       []engine.Violation
	Fixed     []engine.Violation
	Unchanged []engine.Violation
}

type violationKey struct {
	device, category, parameter, expected, actual string
}

func keyOf(v engine.Violation) violationKey {
	return violationKey{v.Device, v.Category, v.Parameter, v.Expected, v.Actual}
}

// Compare reports which violations of current are new relative to
// previous, which disappeared, and which persisted. Devices absent from
// current are not counted as fixed.
func Compare(previous, current []engine.AuditResult) Diff {
	audited := make(map[string]bool, len(current))
	seen := make(map[violationKey]int)
	for _, r := range current {
		audited[r.Device] = true
	}
	for _, r := range previous {
		for _, v := range r.Violations {
			seen[keyOf(v)]++
		}
	}

	var d Diff
	for _, r := range current {
		for _, v := range r.Violations {
			k := keyOf(v)
			if seen[k] > 0 {
				seen[k]--
				d.Unchanged = append(d.Unchanged, v)
			} else {
				d.New = append(d.New, v)
			}
		}
	}
	for _, r := range previous {
		if !audited[r.Device] {
			continue
		}
		for _, v := range r.Violations {
			k := keyOf(v)
			if seen[k] > 0 {
				seen[k]--
				d.Fixed = append(d.Fixed, v)
			}
		}
	}
	return d
}

// String renders the diff as text, listing at most ten unchanged items
func (d Diff) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("NEW VIOLATIONS: %d\n", len(d.New)))
	for _, v := range d.New {
		sb.WriteString(fmt.Sprintf("  [+] [%s] %s %s - %s (actual: %s)\n", v.Severity, v.Device, v.Category, v.Rule, v.Actual))
	}
	sb.WriteString(fmt.Sprintf("\nFIXED VIOLATIONS: %d\n", len(d.Fixed)))
	for _, v := range d.Fixed {
		sb.WriteString(fmt.Sprintf("  [-] [%s] %s %s - %s\n", v.Severity, v.Device, v.Category, v.Rule))
	}
	sb.WriteString(fmt.Sprintf("\nUNCHANGED VIOLATIONS: %d\n", len(d.Unchanged)))
	for i, v := range d.Unchanged {
		if i == 10 {
			sb.WriteString(fmt.Sprintf("  ... and %d more.\n", len(d.Unchanged)-10))
			break
		}
		sb.WriteString(fmt.Sprintf("  [=] [%s] %s %s - %s\n", v.Severity, v.Device, v.Category, v.Rule))
	}
	return sb.String()
}
