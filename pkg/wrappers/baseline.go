package wrappers

import (
	"context"
	"fmt"
	"strings"

	"github.com/user/netaudit/pkg/adk"
	"github.com/user/netaudit/pkg/engine"
)

// BaselineWrapper implements the Tool interface for listing baseline rules
type BaselineWrapper struct {
	Baseline *engine.Baseline
}

func (b *BaselineWrapper) Name() string {
	return "ListBaselineRules"
}

func (b *BaselineWrapper) Description() string {
	return "Lists the compliance rules devices are audited against, with their expected values and severities."
}

func (b *BaselineWrapper) Parameters() []adk.Parameter {
	return []adk.Parameter{
		{Name: "category", Description: "Category to list (ssh, users or firewall). If omitted, all categories are listed."},
	}
}

func (b *BaselineWrapper) Execute(ctx context.Context, args map[string]interface{}, progress func(string)) (string, error) {
	if b.Baseline == nil {
		return "Error: Baseline not loaded.", nil
	}

	sets := b.Baseline.Sets
	if name, _ := args["category"].(string); name != "" {
		set, ok := b.Baseline.Set(name)
		if !ok {
			var names []string
			for _, s := range b.Baseline.Sets {
				names = append(names, s.Category.Name)
			}
			return fmt.Sprintf("Category '%s' not found. Available: %s", name, strings.Join(names, ", ")), nil
		}
		sets = []engine.RuleSet{set}
	}

	var sb strings.Builder
	WriteRuleSets(&sb, sets)
	return sb.String(), nil
}

// WriteRuleSets renders rule sets as an indented list
func WriteRuleSets(sb *strings.Builder, sets []engine.RuleSet) {
	for _, set := range sets {
		sb.WriteString(fmt.Sprintf("%s (%s): %d rules\n", set.Category.Label, set.Category.File, len(set.Rules)))
		for _, r := range set.Rules {
			sb.WriteString(fmt.Sprintf("  [%s] %s\n", r.Severity, r.Description))
			switch r.Kind {
			case engine.KindSetting:
				sb.WriteString(fmt.Sprintf("      %s must be %q\n", r.Subject, r.Expected))
			case engine.KindRequiredUser:
				sb.WriteString(fmt.Sprintf("      user %s must exist\n", r.Subject))
			case engine.KindProhibitedUser:
				sb.WriteString(fmt.Sprintf("      user %s must not exist\n", r.Subject))
			case engine.KindBlockedPort:
				sb.WriteString(fmt.Sprintf("      port %s/%s must not be allowed\n", r.Subject, r.Protocol))
			}
		}
	}
}
