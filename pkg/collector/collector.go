// Package collector extracts configuration facts from a device over a
// remote session.
package collector

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/user/netaudit/pkg/engine"
	"go.uber.org/zap"
)

// DefaultMinUID is the lowest UID treated as a regular user account
const DefaultMinUID = 1000

// Commands are the shell commands issued to each device. UserID is a
// format string taking the username.
type Commands struct {
	SSHConfig string
	Passwd    string
	UserID    string
	Firewall  string
}

// DefaultCommands target a Linux host running OpenSSH and ufw
var DefaultCommands = Commands{
	SSHConfig: "sudo cat /etc/ssh/sshd_config",
	Passwd:    "cat /etc/passwd",
	UserID:    "id -u %s",
	Firewall:  "sudo ufw status numbered",
}

// Runner executes one command and returns its stdout
type Runner interface {
	Run(ctx context.Context, command string) (string, error)
}

// Collector gathers a FactSet from a device
type Collector struct {
	commands Commands
	minUID   int
	logger   *zap.Logger
}

// New creates a collector using DefaultCommands
func New(minUID int, logger *zap.Logger) *Collector {
	if minUID <= 0 {
		minUID = DefaultMinUID
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{commands: DefaultCommands, minUID: minUID, logger: logger}
}

// Collect runs every extraction against r. Any command failure aborts the
// collection; unparseable output is skipped.
func (c *Collector) Collect(ctx context.Context, r Runner) (engine.FactSet, error) {
	var facts engine.FactSet
	var err error

	c.logger.Debug("extracting SSH configuration")
	if facts.SSH, err = c.SSHConfig(ctx, r); err != nil {
		return engine.FactSet{}, err
	}

	c.logger.Debug("extracting user accounts")
	if facts.Users, err = c.Users(ctx, r); err != nil {
		return engine.FactSet{}, err
	}

	c.logger.Debug("extracting firewall rules")
	if facts.Firewall, err = c.FirewallRules(ctx, r); err != nil {
		return engine.FactSet{}, err
	}
	return facts, nil
}

// SSHConfig reads sshd_config into a key/value map
func (c *Collector) SSHConfig(ctx context.Context, r Runner) (map[string]string, error) {
	out, err := r.Run(ctx, c.commands.SSHConfig)
	if err != nil {
		return nil, fmt.Errorf("read sshd config: %w", err)
	}
	return ParseSSHConfig(out), nil
}

// Users returns the accounts whose UID is at least the configured minimum,
// in passwd order.
func (c *Collector) Users(ctx context.Context, r Runner) ([]string, error) {
	out, err := r.Run(ctx, c.commands.Passwd)
	if err != nil {
		return nil, fmt.Errorf("read passwd: %w", err)
	}

	var users []string
	for _, name := range ParsePasswd(out) {
		idOut, err := r.Run(ctx, fmt.Sprintf(c.commands.UserID, name))
		if err != nil {
			return nil, fmt.Errorf("look up uid of %s: %w", name, err)
		}
		uid, ok := ParseUID(idOut)
		if !ok {
			c.logger.Debug("skipping user with unreadable uid", zap.String("user", name))
			continue
		}
		if uid >= c.minUID {
			users = append(users, name)
		}
	}
	return users, nil
}

// FirewallRules returns the ufw rule lines
func (c *Collector) FirewallRules(ctx context.Context, r Runner) ([]string, error) {
	out, err := r.Run(ctx, c.commands.Firewall)
	if err != nil {
		return nil, fmt.Errorf("list firewall rules: %w", err)
	}
	return ParseFirewall(out), nil
}

var settingLine = regexp.MustCompile(`^(\w+)\s+(.+)$`)

// ParseSSHConfig parses "Key value" lines, skipping blanks and comments.
// A repeated key keeps its last value.
func ParseSSHConfig(text string) map[string]string {
	config := make(map[string]string)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		m := settingLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		config[m[1]] = strings.TrimSpace(m[2])
	}
	return config
}

var accountName = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_.-]*\$?$`)

// ParsePasswd returns the account names listed in an /etc/passwd dump.
// Names that are not valid account names are dropped so they never reach a
// shell command.
func ParsePasswd(text string) []string {
	var names []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		name, _, _ := strings.Cut(line, ":")
		if !accountName.MatchString(name) {
			continue
		}
		names = append(names, name)
	}
	return names
}

// ParseUID reads the output of `id -u`
func ParseUID(text string) (int, bool) {
	uid, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, false
	}
	return uid, true
}

// ParseFirewall keeps the lines of `ufw status numbered` that hold a rule
func ParseFirewall(text string) []string {
	var rules []string
	for _, line := range strings.Split(text, "\n") {
		if strings.Contains(line, "ALLOW") || strings.Contains(line, "DENY") || strings.Contains(line, "REJECT") {
			rules = append(rules, strings.TrimSpace(line))
		}
	}
	return rules
}
