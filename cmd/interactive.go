package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/user/netaudit/pkg/adk"
	"github.com/user/netaudit/pkg/wrappers"
	"go.uber.org/zap"
)

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Start the interactive agent session",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		applyAuditFlags(cmd, &cfg.Audit)

		logger, err := newLogger()
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck

		setup, err := newAuditSetup(cfg.Audit, logger)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		providerName := cfg.SelectedProvider
		modelName := cfg.SelectedModel
		fmt.Printf("Connecting to %s (Model: %s)...\n", providerName, modelName)

		provider, err := adk.NewProvider(ctx, providerName, cfg.GetAPIKey(providerName), modelName)
		if err != nil {
			return fmt.Errorf("creating AI provider: %w (run 'netaudit config setup' to configure a key)", err)
		}
		if closer, ok := provider.(interface{ Close() }); ok {
			defer closer.Close()
		}

		store := wrappers.NewResultStore()
		agent := adk.NewAgent(provider, logger.Named("agent"))
		agent.RegisterTool(&wrappers.AuditWrapper{
			Auditor:    setup.Auditor,
			Devices:    setup.Devices,
			ReportsDir: cfg.Audit.ReportsDir,
			Results:    store,
		})
		agent.RegisterTool(&wrappers.ReportWrapper{Results: store})
		agent.RegisterTool(&wrappers.CompareWrapper{Results: store})
		agent.RegisterTool(&wrappers.BaselineWrapper{Baseline: setup.Baseline})
		agent.SetSystemPrompt(adk.GetSystemPrompt())

		fmt.Println("\n---------------------------------------------------------")
		fmt.Println("netaudit agent initialized. Ready for commands.")
		fmt.Println("Example: 'Audit all devices'")
		fmt.Println("Example: 'Which firewall ports are open on core-sw1?'")
		fmt.Println("Type 'quit' or 'exit' to stop.")
		fmt.Println("---------------------------------------------------------")

		err = runREPL(ctx, os.Stdin, os.Stdout, func(ctx context.Context, input string) (string, error) {
			fmt.Print("Agent thinking... ")
			resp, err := agent.Chat(ctx, input, func(msg string) {
				fmt.Printf("\r\033[K[Progress]: %s\nAgent thinking... ", msg)
			})
			fmt.Print("\r\033[K")
			if err != nil && ctx.Err() == nil {
				logger.Error("agent turn failed", zap.Error(err))
			}
			return resp, err
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

// runREPL reads prompts from in and answers them with chat until the user
// types quit or exit, in reaches EOF, or ctx is cancelled.
func runREPL(ctx context.Context, in io.Reader, out io.Writer, chat func(context.Context, string) (string, error)) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
		close(lines)
	}()

	for {
		fmt.Fprint(out, "\n> ")
		var input string
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return <-scanErr
			}
			input = strings.TrimSpace(line)
		}
		if input == "quit" || input == "exit" {
			return nil
		}
		if input == "" {
			continue
		}

		resp, err := chat(ctx, input)
		if err != nil {
			if ctx.Err() != nil {
				fmt.Fprintln(out)
				return ctx.Err()
			}
			fmt.Fprintf(out, "Error: %v\n", err)
			continue
		}
		fmt.Fprintf(out, "\n[Agent]: %s\n", resp)
	}
}

func init() {
	addAuditFlags(interactiveCmd)
	rootCmd.AddCommand(interactiveCmd)
}
