package engine

import (
	"bytes"
	"fmt"
	"text/template"
)

// defaultRemediation holds the remediation template used when a rule does
// not declare its own.
var defaultRemediation = map[Kind]string{
	KindSetting:        "Set {{.Parameter}} to {{.Expected}} in /etc/ssh/sshd_config",
	KindRequiredUser:   "Create user account: {{.Username}}",
	KindProhibitedUser: "Remove user account: sudo userdel {{.Username}}",
	KindBlockedPort:    "Block port {{.Port}}: sudo ufw deny {{.Port}}/{{.Protocol}}",
}

// RemediationVars are the fields a remediation template may reference
type RemediationVars struct {
	Device    string
	Parameter string
	Username  string
	Port      string
	Protocol  string
	Expected  string
	Actual    string
}

func parseRemediation(kind Kind, text string) (*template.Template, error) {
	if text == "" {
		text = defaultRemediation[kind]
	}
	t, err := template.New(string(kind)).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse remediation template: %w", err)
	}
	// Execute once so references to unknown fields fail at load time.
	if err := t.Execute(&bytes.Buffer{}, RemediationVars{}); err != nil {
		return nil, fmt.Errorf("invalid remediation template: %w", err)
	}
	return t, nil
}

// Remediation renders the rule's remediation text for the given values
func (r Rule) Remediation(vars RemediationVars) (string, error) {
	tmpl := r.remediation
	if tmpl == nil {
		var err error
		if tmpl, err = parseRemediation(r.Kind, ""); err != nil {
			return "", err
		}
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("failed to render remediation for %s: %w", r.Subject, err)
	}
	return buf.String(), nil
}
