// Package remotetest provides in-memory sessions and dialers for tests.
package remotetest

import (
	"context"
	"fmt"
	"sync"

	"github.com/user/netaudit/pkg/inventory"
	"github.com/user/netaudit/pkg/remote"
)

// Session answers commands from a fixed table. Unknown commands return an
// empty string.
type Session struct {
	Outputs map[string]string
	Errors  map[string]error

	mu       sync.Mutex
	commands []string
	closed   bool
}

// Run records the command and returns its canned output
func (s *Session) Run(_ context.Context, command string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands = append(s.commands, command)
	if err, ok := s.Errors[command]; ok {
		return "", err
	}
	return s.Outputs[command], nil
}

// Close marks the session closed
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Closed reports whether Close was called
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Commands returns the commands run so far, in order
func (s *Session) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commands...)
}

// Dialer hands out sessions by hostname. Hostnames in Fail return that
// error; hostnames with no session are refused.
type Dialer struct {
	Sessions map[string]*Session
	Fail     map[string]error

	mu     sync.Mutex
	dialed []string
}

// Dial implements remote.Dialer
func (d *Dialer) Dial(_ context.Context, device inventory.Device) (remote.Session, error) {
	d.mu.Lock()
	d.dialed = append(d.dialed, device.Hostname)
	d.mu.Unlock()

	if err, ok := d.Fail[device.Hostname]; ok {
		return nil, err
	}
	s, ok := d.Sessions[device.Hostname]
	if !ok {
		return nil, fmt.Errorf("connect %s: connection refused", device.IP)
	}
	return s, nil
}

// Dialed returns the hostnames dialed so far, in order
func (d *Dialer) Dialed() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.dialed...)
}
