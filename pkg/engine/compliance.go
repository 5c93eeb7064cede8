package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

// Kind identifies how a rule is checked against a device's facts
type Kind string

const (
	KindSetting        Kind = "setting"
	KindRequiredUser   Kind = "required_user"
	KindProhibitedUser Kind = "prohibited_user"
	KindBlockedPort    Kind = "blocked_port"
)

// Category is one baseline document and the label its violations carry
type Category struct {
	Name  string
	Label string
	File  string
}

// Categories lists the baseline documents in evaluation order
var Categories = []Category{
	{Name: "ssh", Label: "SSH Configuration", File: "ssh_baseline.yaml"},
	{Name: "users", Label: "User Accounts", File: "users_baseline.yaml"},
	{Name: "firewall", Label: "Firewall Rules", File: "firewall_baseline.yaml"},
}

// sections maps the list keys a baseline document may declare to the kind
// of rule each entry in that list describes. Order within a document
// follows this table.
var sections = []struct {
	Key  string
	Kind Kind
}{
	{Key: "compliance_rules", Kind: KindSetting},
	{Key: "required_users", Kind: KindRequiredUser},
	{Key: "prohibited_users", Kind: KindProhibitedUser},
	{Key: "blocked_rules", Kind: KindBlockedPort},
}

// Rule is a single baseline expectation
type Rule struct {
	Kind        Kind
	Subject     string // setting name, username or port
	Expected    string
	Protocol    string
	Severity    Severity
	Description string

	remediation *template.Template
}

// RuleSet is the read-only collection of rules loaded from one document
type RuleSet struct {
	Category Category
	Rules    []Rule
}

// Baseline holds every rule set, in category order
type Baseline struct {
	Sets []RuleSet
}

// ruleEntry is the on-disk shape of a rule. SSH rules carry their text in
// `rule`, user and firewall rules in `description`.
type ruleEntry struct {
	Parameter   string `yaml:"parameter"`
	Username    string `yaml:"username"`
	Port        string `yaml:"port"`
	Protocol    string `yaml:"protocol"`
	Expected    string `yaml:"expected"`
	Severity    string `yaml:"severity"`
	Rule        string `yaml:"rule"`
	Description string `yaml:"description"`
	Remediation string `yaml:"remediation"`
}

// LoadBaseline reads every category document from dir. Any missing or
// malformed document is an error.
func LoadBaseline(dir string) (*Baseline, error) {
	b := &Baseline{}
	for _, cat := range Categories {
		set, err := LoadRuleSet(filepath.Join(dir, cat.File), cat)
		if err != nil {
			return nil, err
		}
		b.Sets = append(b.Sets, set)
	}
	return b, nil
}

// LoadRuleSet reads a single baseline document
func LoadRuleSet(path string, cat Category) (RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RuleSet{}, fmt.Errorf("read baseline %s: %w", path, err)
	}
	set, err := ParseRuleSet(data, cat)
	if err != nil {
		return RuleSet{}, fmt.Errorf("parse baseline %s: %w", path, err)
	}
	return set, nil
}

// ParseRuleSet decodes a baseline document into a rule set for cat
func ParseRuleSet(data []byte, cat Category) (RuleSet, error) {
	var doc map[string]yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return RuleSet{}, err
	}
	if doc == nil {
		return RuleSet{}, fmt.Errorf("document is empty")
	}
	for key := range doc {
		if !knownKey(key) {
			return RuleSet{}, fmt.Errorf("unknown section %q", key)
		}
	}

	set := RuleSet{Category: cat}
	for _, sec := range sections {
		node, ok := doc[sec.Key]
		if !ok {
			continue
		}
		var entries []ruleEntry
		if err := node.Decode(&entries); err != nil {
			return RuleSet{}, fmt.Errorf("%s: %w", sec.Key, err)
		}
		for i, e := range entries {
			rule, err := e.toRule(sec.Kind)
			if err != nil {
				return RuleSet{}, fmt.Errorf("%s[%d]: %w", sec.Key, i, err)
			}
			set.Rules = append(set.Rules, rule)
		}
	}
	return set, nil
}

// knownKey reports whether key may appear at the top of a baseline document
func knownKey(key string) bool {
	if key == "name" {
		return true
	}
	for _, sec := range sections {
		if sec.Key == key {
			return true
		}
	}
	return false
}

func (e ruleEntry) toRule(kind Kind) (Rule, error) {
	r := Rule{
		Kind:        kind,
		Expected:    e.Expected,
		Severity:    Severity(strings.ToLower(strings.TrimSpace(e.Severity))),
		Description: e.Description,
	}
	if e.Rule != "" {
		r.Description = e.Rule
	}
	if !r.Severity.Valid() {
		return Rule{}, fmt.Errorf("unknown severity %q", e.Severity)
	}

	switch kind {
	case KindSetting:
		r.Subject = e.Parameter
	case KindRequiredUser, KindProhibitedUser:
		r.Subject = e.Username
	case KindBlockedPort:
		r.Subject = strings.TrimSpace(e.Port)
		if _, err := strconv.Atoi(r.Subject); err != nil {
			return Rule{}, fmt.Errorf("port %q is not a number", e.Port)
		}
		r.Protocol = e.Protocol
		if r.Protocol == "" {
			r.Protocol = "tcp"
		}
	}
	if r.Subject == "" {
		return Rule{}, fmt.Errorf("%s rule has no subject", kind)
	}

	tmpl, err := parseRemediation(kind, e.Remediation)
	if err != nil {
		return Rule{}, err
	}
	r.remediation = tmpl
	return r, nil
}

// Set returns the rule set of the named category
func (b *Baseline) Set(name string) (RuleSet, bool) {
	for _, s := range b.Sets {
		if strings.EqualFold(s.Category.Name, name) {
			return s, true
		}
	}
	return RuleSet{}, false
}

// RuleCount returns the number of rules across all categories
func (b *Baseline) RuleCount() int {
	n := 0
	for _, s := range b.Sets {
		n += len(s.Rules)
	}
	return n
}
