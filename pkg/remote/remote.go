// Package remote runs commands on audited devices over SSH.
package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/user/netaudit/pkg/inventory"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// DefaultTimeout bounds the TCP connect and SSH handshake
const DefaultTimeout = 10 * time.Second

// Session executes commands on a connected device and returns their stdout
type Session interface {
	Run(ctx context.Context, command string) (string, error)
	Close() error
}

// Dialer opens a session to a device
type Dialer interface {
	Dial(ctx context.Context, device inventory.Device) (Session, error)
}

// SSHDialer connects with password authentication
type SSHDialer struct {
	timeout         time.Duration
	hostKeyCallback ssh.HostKeyCallback
}

// NewSSHDialer creates a dialer. When knownHostsFile is empty every host key
// is accepted, otherwise keys are verified against that file.
func NewSSHDialer(timeout time.Duration, knownHostsFile string) (*SSHDialer, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	callback := ssh.InsecureIgnoreHostKey() // #nosec G106 -- opt in to verification with known_hosts
	if knownHostsFile != "" {
		cb, err := knownhosts.New(knownHostsFile)
		if err != nil {
			return nil, fmt.Errorf("load known_hosts %s: %w", knownHostsFile, err)
		}
		callback = cb
	}
	return &SSHDialer{timeout: timeout, hostKeyCallback: callback}, nil
}

// Dial connects to the device's ip and port
func (d *SSHDialer) Dial(ctx context.Context, device inventory.Device) (Session, error) {
	port := device.Port
	if port == 0 {
		port = inventory.DefaultSSHPort
	}
	addr := net.JoinHostPort(device.IP, strconv.Itoa(port))

	nd := net.Dialer{Timeout: d.timeout}
	conn, err := nd.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", addr, err)
	}

	config := &ssh.ClientConfig{
		User:            device.Username,
		Auth:            []ssh.AuthMethod{ssh.Password(device.Password)},
		HostKeyCallback: d.hostKeyCallback,
		Timeout:         d.timeout,
	}

	// NewClientConn has no timeout of its own.
	_ = conn.SetDeadline(time.Now().Add(d.timeout))
	c, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("ssh handshake with %s: %w", addr, err)
	}
	_ = conn.SetDeadline(time.Time{})

	return &sshSession{client: ssh.NewClient(c, chans, reqs)}, nil
}

type sshSession struct {
	client *ssh.Client
}

// Run executes command in a fresh channel. A non-zero exit status is not an
// error: whatever the command wrote to stdout is returned.
func (s *sshSession) Run(ctx context.Context, command string) (string, error) {
	sess, err := s.client.NewSession()
	if err != nil {
		return "", fmt.Errorf("open session: %w", err)
	}
	defer sess.Close()

	var stdout bytes.Buffer
	sess.Stdout = &stdout

	done := make(chan error, 1)
	go func() { done <- sess.Run(command) }()

	select {
	case <-ctx.Done():
		sess.Close()
		return "", ctx.Err()
	case err := <-done:
		var exitErr *ssh.ExitError
		if err != nil && !errors.As(err, &exitErr) {
			return "", fmt.Errorf("run %q: %w", command, err)
		}
		return stdout.String(), nil
	}
}

func (s *sshSession) Close() error {
	return s.client.Close()
}
