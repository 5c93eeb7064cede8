package engine

import (
	"slices"
	"strconv"
	"strings"
)

// NotSet is reported as the actual value of a setting missing from the device
const NotSet = "not set"

// FactSet is the configuration state observed on a device
type FactSet struct {
	SSH      map[string]string `json:"ssh"`
	Users    []string          `json:"users"`
	Firewall []string          `json:"firewall"`
}

// deviation is what a check reports for each failed expectation
type deviation struct {
	Parameter string
	Expected  string
	Actual    string
}

type check func(rule Rule, facts FactSet) []deviation

var checks = map[Kind]check{
	KindSetting:        checkSetting,
	KindRequiredUser:   checkRequiredUser,
	KindProhibitedUser: checkProhibitedUser,
	KindBlockedPort:    checkBlockedPort,
}

func checkSetting(rule Rule, facts FactSet) []deviation {
	actual, ok := facts.SSH[rule.Subject]
	if !ok {
		actual = NotSet
	}
	if strings.EqualFold(actual, rule.Expected) {
		return nil
	}
	return []deviation{{Parameter: rule.Subject, Expected: rule.Expected, Actual: actual}}
}

func checkRequiredUser(rule Rule, facts FactSet) []deviation {
	if slices.Contains(facts.Users, rule.Subject) {
		return nil
	}
	return []deviation{{Parameter: string(KindRequiredUser), Expected: rule.Subject, Actual: "not found"}}
}

func checkProhibitedUser(rule Rule, facts FactSet) []deviation {
	if !slices.Contains(facts.Users, rule.Subject) {
		return nil
	}
	return []deviation{{Parameter: string(KindProhibitedUser), Expected: "should not exist", Actual: rule.Subject}}
}

func checkBlockedPort(rule Rule, facts FactSet) []deviation {
	var out []deviation
	for _, line := range facts.Firewall {
		if strings.Contains(line, "ALLOW") && containsPort(line, rule.Subject) {
			out = append(out, deviation{Parameter: "port_" + rule.Subject, Expected: "blocked", Actual: "allowed"})
		}
	}
	return out
}

// containsPort reports whether the "To" column of a ufw rule line covers
// port. The column is every field before the action, after the "[ n]"
// index of `ufw status numbered`. Port lists ("80,443/tcp") and ranges
// ("6000:6007/tcp") are expanded; addresses and the "(v6)" marker never
// match.
func containsPort(line, port string) bool {
	if strings.HasPrefix(line, "[") {
		if k := strings.Index(line, "]"); k >= 0 {
			line = line[k+1:]
		}
	}
	want, err := strconv.Atoi(port)
	if err != nil {
		return false
	}
	for _, field := range strings.Fields(line) {
		if ufwActions[field] {
			return false
		}
		spec, _, _ := strings.Cut(field, "/")
		for _, p := range strings.Split(spec, ",") {
			if portInSpec(p, want) {
				return true
			}
		}
	}
	return false
}

var ufwActions = map[string]bool{"ALLOW": true, "DENY": true, "REJECT": true, "LIMIT": true}

func portInSpec(spec string, want int) bool {
	lo, hi, isRange := strings.Cut(spec, ":")
	if !isRange {
		hi = lo
	}
	from, err := strconv.Atoi(lo)
	if err != nil {
		return false
	}
	to, err := strconv.Atoi(hi)
	if err != nil {
		return false
	}
	return from <= want && want <= to
}

// Evaluate compares facts against every rule set and returns the
// violations in category order, then rule order, plus a per-category
// summary.
func (b *Baseline) Evaluate(device string, facts FactSet) ([]Violation, []CategorySummary, error) {
	var violations []Violation
	summaries := make([]CategorySummary, 0, len(b.Sets))

	for _, set := range b.Sets {
		summary := CategorySummary{Category: set.Category.Label, Rules: len(set.Rules)}
		for _, rule := range set.Rules {
			fn, ok := checks[rule.Kind]
			if !ok {
				continue
			}
			for _, d := range fn(rule, facts) {
				remediation, err := rule.Remediation(RemediationVars{
					Device:    device,
					Parameter: rule.Subject,
					Username:  rule.Subject,
					Port:      rule.Subject,
					Protocol:  rule.Protocol,
					Expected:  rule.Expected,
					Actual:    d.Actual,
				})
				if err != nil {
					return nil, nil, err
				}
				violations = append(violations, Violation{
					Device:      device,
					Category:    set.Category.Label,
					Rule:        rule.Description,
					Severity:    rule.Severity,
					Parameter:   d.Parameter,
					Expected:    d.Expected,
					Actual:      d.Actual,
					Remediation: remediation,
				})
				summary.Violations++
			}
		}
		summaries = append(summaries, summary)
	}
	return violations, summaries, nil
}
