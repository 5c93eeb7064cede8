package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sshYAML = `
name: ssh
compliance_rules:
  - parameter: PermitRootLogin
    expected: "no"
    severity: critical
    rule: Root login over SSH must be disabled
  - parameter: PasswordAuthentication
    expected: "no"
    severity: warning
    rule: Password authentication should be disabled
  - parameter: MaxAuthTries
    expected: 3
    severity: warning
    rule: Limit authentication attempts
`

const usersYAML = `
required_users:
  - username: netadmin
    description: Network admin account must exist
    severity: critical
prohibited_users:
  - username: guest
    description: Guest account must not exist
    severity: critical
`

const firewallYAML = `
blocked_rules:
  - port: 23
    protocol: tcp
    description: Telnet must be blocked
    severity: critical
  - port: 21
    description: FTP should be blocked
    severity: warning
`

func writeBaseline(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0600))
	}
	return dir
}

func loadTestBaseline(t *testing.T) *Baseline {
	t.Helper()
	dir := writeBaseline(t, map[string]string{
		"ssh_baseline.yaml":      sshYAML,
		"users_baseline.yaml":    usersYAML,
		"firewall_baseline.yaml": firewallYAML,
	})
	b, err := LoadBaseline(dir)
	require.NoError(t, err)
	return b
}

func TestLoadBaseline(t *testing.T) {
	b := loadTestBaseline(t)

	require.Len(t, b.Sets, 3)
	assert.Equal(t, "ssh", b.Sets[0].Category.Name)
	assert.Equal(t, "users", b.Sets[1].Category.Name)
	assert.Equal(t, "firewall", b.Sets[2].Category.Name)
	assert.Equal(t, 7, b.RuleCount())

	ssh := b.Sets[0].Rules
	assert.Equal(t, "MaxAuthTries", ssh[2].Subject)
	assert.Equal(t, "3", ssh[2].Expected)
	assert.Equal(t, "Root login over SSH must be disabled", ssh[0].Description)

	fw, ok := b.Set("FIREWALL")
	require.True(t, ok)
	assert.Equal(t, "tcp", fw.Rules[1].Protocol)
}

func TestLoadBaselineMissingFile(t *testing.T) {
	dir := writeBaseline(t, map[string]string{
		"ssh_baseline.yaml":   sshYAML,
		"users_baseline.yaml": usersYAML,
	})
	_, err := LoadBaseline(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "firewall_baseline.yaml")
}

func TestParseRuleSetRejectsMalformedRules(t *testing.T) {
	cat := Categories[0]
	cases := map[string]string{
		"empty":          "",
		"not a mapping":  "- a\n- b\n",
		"bad severity":   "compliance_rules:\n  - parameter: X\n    expected: y\n    severity: high\n",
		"no subject":     "compliance_rules:\n  - expected: y\n    severity: warning\n",
		"bad port":       "blocked_rules:\n  - port: telnet\n    severity: warning\n",
		"bad template":   "compliance_rules:\n  - parameter: X\n    severity: warning\n    remediation: \"{{.Parameter\"\n",
		"unknown field":  "compliance_rules:\n  - parameter: X\n    severity: warning\n    remediation: \"{{.Nope}}\"\n",
		"wrong sections": "compliance_rules: nope\n",
		"misspelled key": "compliance_rule:\n  - parameter: X\n    expected: y\n    severity: warning\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseRuleSet([]byte(body), cat)
			assert.Error(t, err)
		})
	}
}

func TestEvaluateSSHMatchYieldsNoViolations(t *testing.T) {
	b := loadTestBaseline(t)
	facts := FactSet{
		SSH:   map[string]string{"PermitRootLogin": "No", "PasswordAuthentication": "NO", "MaxAuthTries": "3"},
		Users: []string{"netadmin"},
	}

	violations, summaries, err := b.Evaluate("r1", facts)
	require.NoError(t, err)
	assert.Empty(t, violations)
	assert.Equal(t, CategorySummary{Category: "SSH Configuration", Rules: 3}, summaries[0])
}

func TestEvaluateSingleSettingMatch(t *testing.T) {
	set, err := ParseRuleSet([]byte(`
compliance_rules:
  - parameter: PermitRootLogin
    expected: "no"
    severity: critical
    rule: Root login disabled
`), Categories[0])
	require.NoError(t, err)
	b := &Baseline{Sets: []RuleSet{set}}

	violations, _, err := b.Evaluate("r1", FactSet{SSH: map[string]string{"PermitRootLogin": "no"}})
	require.NoError(t, err)
	assert.Empty(t, violations)
}

func TestEvaluateSSHMismatchAndMissing(t *testing.T) {
	b := loadTestBaseline(t)
	facts := FactSet{
		SSH:   map[string]string{"PermitRootLogin": "yes", "MaxAuthTries": "3"},
		Users: []string{"netadmin"},
	}

	violations, _, err := b.Evaluate("r1", facts)
	require.NoError(t, err)
	require.Len(t, violations, 2)

	assert.Equal(t, Violation{
		Device:      "r1",
		Category:    "SSH Configuration",
		Rule:        "Root login over SSH must be disabled",
		Severity:    SeverityCritical,
		Parameter:   "PermitRootLogin",
		Expected:    "no",
		Actual:      "yes",
		Remediation: "Set PermitRootLogin to no in /etc/ssh/sshd_config",
	}, violations[0])
	assert.Equal(t, "PasswordAuthentication", violations[1].Parameter)
	assert.Equal(t, NotSet, violations[1].Actual)
}

func TestEvaluateUsers(t *testing.T) {
	b := loadTestBaseline(t)
	ssh := map[string]string{"PermitRootLogin": "no", "PasswordAuthentication": "no", "MaxAuthTries": "3"}

	violations, _, err := b.Evaluate("r1", FactSet{SSH: ssh, Users: []string{"alice", "guest"}})
	require.NoError(t, err)
	require.Len(t, violations, 2)

	assert.Equal(t, "required_user", violations[0].Parameter)
	assert.Equal(t, "netadmin", violations[0].Expected)
	assert.Equal(t, "not found", violations[0].Actual)
	assert.Equal(t, "Create user account: netadmin", violations[0].Remediation)

	assert.Equal(t, "prohibited_user", violations[1].Parameter)
	assert.Equal(t, "should not exist", violations[1].Expected)
	assert.Equal(t, "guest", violations[1].Actual)
	assert.Equal(t, "Remove user account: sudo userdel guest", violations[1].Remediation)
}

func TestEvaluateFirewall(t *testing.T) {
	b := loadTestBaseline(t)
	ssh := map[string]string{"PermitRootLogin": "no", "PasswordAuthentication": "no", "MaxAuthTries": "3"}
	facts := FactSet{
		SSH:   ssh,
		Users: []string{"netadmin"},
		Firewall: []string{
			"[ 1] 23/tcp                     ALLOW IN    Anywhere",
			"[ 2] 23/tcp (v6)                ALLOW IN    Anywhere (v6)",
			"[ 3] 21/tcp                     DENY IN     Anywhere",
			"[21] 2323/tcp                   ALLOW IN    Anywhere",
		},
	}

	violations, summaries, err := b.Evaluate("r1", facts)
	require.NoError(t, err)
	require.Len(t, violations, 2)
	for _, v := range violations {
		assert.Equal(t, "port_23", v.Parameter)
		assert.Equal(t, "blocked", v.Expected)
		assert.Equal(t, "allowed", v.Actual)
		assert.Equal(t, "Block port 23: sudo ufw deny 23/tcp", v.Remediation)
	}
	assert.Equal(t, CategorySummary{Category: "Firewall Rules", Rules: 2, Violations: 2}, summaries[2])
}

func TestEvaluateOrderAndCustomRemediation(t *testing.T) {
	set, err := ParseRuleSet([]byte(`
blocked_rules:
  - port: 3389
    severity: warning
    description: RDP
    remediation: "close {{.Port}}/{{.Protocol}} on {{.Device}}"
`), Categories[2])
	require.NoError(t, err)
	b := loadTestBaseline(t)
	b.Sets[2] = set

	violations, _, err := b.Evaluate("edge-1", FactSet{
		SSH:      map[string]string{},
		Firewall: []string{"3389 ALLOW Anywhere"},
	})
	require.NoError(t, err)

	var categories []string
	for _, v := range violations {
		categories = append(categories, v.Category)
	}
	assert.Equal(t, []string{
		"SSH Configuration", "SSH Configuration", "SSH Configuration",
		"User Accounts",
		"Firewall Rules",
	}, categories)
	assert.Equal(t, "close 3389/tcp on edge-1", violations[4].Remediation)
}

func TestEvaluateRemediationRenderError(t *testing.T) {
	set, err := ParseRuleSet([]byte(`
blocked_rules:
  - port: 23
    severity: critical
    remediation: "{{if .Actual}}{{index .Actual 99}}{{end}}"
`), Categories[2])
	require.NoError(t, err)
	b := &Baseline{Sets: []RuleSet{set}}

	_, _, err = b.Evaluate("r1", FactSet{Firewall: []string{"[ 1] 23/tcp ALLOW IN Anywhere"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to render remediation for 23")
}

func TestContainsPort(t *testing.T) {
	assert.True(t, containsPort("22/tcp ALLOW IN Anywhere", "22"))
	assert.True(t, containsPort("[ 4] 22 ALLOW IN Anywhere", "22"))
	assert.False(t, containsPort("2222/tcp ALLOW IN Anywhere", "22"))
	assert.False(t, containsPort("[ 2] 80/tcp ALLOW IN Anywhere", "2"))
	assert.True(t, containsPort("80,443/tcp ALLOW IN Anywhere", "443"))
	assert.True(t, containsPort("[ 3] 6000:6007/tcp ALLOW IN Anywhere", "6003"))
	assert.False(t, containsPort("[ 3] 6000:6007/tcp ALLOW IN Anywhere", "6008"))
	assert.True(t, containsPort("[ 5] 10.0.0.5 23/tcp ALLOW IN Anywhere", "23"))

	// only the "To" column counts
	assert.False(t, containsPort("[ 1] 22/tcp ALLOW IN 10.0.0.23", "23"))
	assert.False(t, containsPort("[ 1] 22/tcp ALLOW IN 10.0.0.0/23", "23"))
	assert.False(t, containsPort("80/tcp (v6) ALLOW IN Anywhere (v6)", "6"))
	assert.False(t, containsPort("[ 6] Anywhere ALLOW IN 23", "23"))
	assert.False(t, containsPort("[ 7] OpenSSH ALLOW IN Anywhere", "22"))
}

func TestScore(t *testing.T) {
	crit := Violation{Severity: SeverityCritical}
	warn := Violation{Severity: SeverityWarning}

	assert.Equal(t, 100, Score(nil))
	assert.Equal(t, 85, Score([]Violation{crit}))
	assert.Equal(t, 80, Score([]Violation{crit, warn}))
	assert.Equal(t, 0, Score([]Violation{crit, crit, crit, crit, crit, crit, crit}))

	for c := 0; c < 10; c++ {
		for w := 0; w < 25; w++ {
			var vs []Violation
			for i := 0; i < c; i++ {
				vs = append(vs, crit)
			}
			for i := 0; i < w; i++ {
				vs = append(vs, warn)
			}
			assert.Equal(t, max(0, 100-15*c-5*w), Score(vs))
			gotC, gotW := CountSeverity(vs)
			assert.Equal(t, c, gotC)
			assert.Equal(t, w, gotW)
		}
	}
}
