package cmd

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/netaudit/pkg/config"
	"go.uber.org/zap"
)

func TestApplyAuditFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "audit"}
	addAuditFlags(cmd)
	require.NoError(t, cmd.Flags().Parse([]string{"--inventory", "inv.yaml", "--min-uid", "500", "--timeout", "3s"}))

	a := config.Default().Audit
	applyAuditFlags(cmd, &a)

	assert.Equal(t, "inv.yaml", a.InventoryFile)
	assert.Equal(t, 500, a.MinUID)
	assert.Equal(t, 3*time.Second, a.SSHTimeout)
	// untouched flags keep the configured values
	assert.Equal(t, config.Default().Audit.BaselinesDir, a.BaselinesDir)
	assert.Equal(t, "reports", a.ReportsDir)
}

func TestNewAuditSetupWithSampleFiles(t *testing.T) {
	a := config.Default().Audit
	a.InventoryFile = filepath.Join("..", "configs", "device_inventory.yaml")
	a.BaselinesDir = filepath.Join("..", "configs", "baselines")

	setup, err := newAuditSetup(a, zap.NewNop())
	require.NoError(t, err)
	assert.Len(t, setup.Devices, 2)
	assert.Len(t, setup.Baseline.Sets, 3)
	assert.Equal(t, 11, setup.Baseline.RuleCount())
	assert.NotNil(t, setup.Auditor)
}

func TestNewAuditSetupMissingInventory(t *testing.T) {
	a := config.Default().Audit
	a.InventoryFile = filepath.Join(t.TempDir(), "missing.yaml")
	a.BaselinesDir = filepath.Join("..", "configs", "baselines")

	_, err := newAuditSetup(a, zap.NewNop())
	assert.Error(t, err)
}

func TestNewAuditSetupMissingBaselines(t *testing.T) {
	a := config.Default().Audit
	a.InventoryFile = filepath.Join("..", "configs", "device_inventory.yaml")
	a.BaselinesDir = t.TempDir()

	_, err := newAuditSetup(a, zap.NewNop())
	assert.Error(t, err)
}

func TestCommandTree(t *testing.T) {
	for _, path := range [][]string{
		{"audit"},
		{"baseline", "show"},
		{"diff"},
		{"config", "show"},
		{"config", "set-key"},
		{"config", "set-model"},
		{"config", "list-models"},
		{"config", "setup"},
		{"interactive"},
	} {
		c, _, err := rootCmd.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], c.Name())
	}
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("debug"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
}

func TestREPLAnswersUntilExit(t *testing.T) {
	var asked []string
	var out bytes.Buffer
	err := runREPL(context.Background(), strings.NewReader("audit everything\n\n  exit  \nnever read\n"), &out,
		func(_ context.Context, input string) (string, error) {
			asked = append(asked, input)
			return "done", nil
		})
	require.NoError(t, err)
	assert.Equal(t, []string{"audit everything"}, asked)
	assert.Contains(t, out.String(), "[Agent]: done")
}

func TestREPLKeepsGoingAfterChatError(t *testing.T) {
	calls := 0
	var out bytes.Buffer
	err := runREPL(context.Background(), strings.NewReader("first\nsecond\n"), &out,
		func(context.Context, string) (string, error) {
			calls++
			if calls == 1 {
				return "", errors.New("quota exceeded")
			}
			return "ok", nil
		})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Contains(t, out.String(), "Error: quota exceeded")
	assert.Contains(t, out.String(), "[Agent]: ok")
}

func TestREPLReturnsWhenCancelledWhileWaitingForInput(t *testing.T) {
	// the pipe never delivers a line, like a terminal nobody types into
	pr, pw := io.Pipe()
	t.Cleanup(func() { pw.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- runREPL(ctx, pr, io.Discard, func(context.Context, string) (string, error) {
			t.Error("chat must not be called")
			return "", nil
		})
	}()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not stop after cancellation")
	}
}

func TestREPLStopsWhenChatIsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := runREPL(ctx, strings.NewReader("audit\naudit again\n"), io.Discard,
		func(ctx context.Context, _ string) (string, error) {
			calls++
			cancel()
			return "", ctx.Err()
		})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
