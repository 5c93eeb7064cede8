package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/user/netaudit/pkg/config"
	"github.com/user/netaudit/pkg/report"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit every device in the inventory against the baselines",
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

		results, err := setup.Auditor.Run(cmd.Context(), setup.Devices)
		if err != nil {
			return err
		}

		generated := time.Now()
		if err := report.Render(os.Stdout, results, generated); err != nil {
			return err
		}

		if noSave, _ := cmd.Flags().GetBool("no-save"); noSave {
			return nil
		}
		path, err := report.Save(cfg.Audit.ReportsDir, results, generated)
		if err != nil {
			return err
		}
		fmt.Printf("\nDetailed report saved to: %s\n", path)
		return nil
	},
}

func addAuditFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("inventory", "i", "", "Device inventory YAML file")
	cmd.Flags().StringP("baselines", "b", "", "Directory holding the baseline YAML files")
	cmd.Flags().StringP("reports", "r", "", "Directory the JSON report is written to")
	cmd.Flags().Int("min-uid", 0, "Lowest UID treated as a regular user account")
	cmd.Flags().Duration("timeout", 0, "SSH connect and handshake timeout")
	cmd.Flags().String("known-hosts", "", "known_hosts file used to verify device host keys")
}

// applyAuditFlags overrides config values with the flags the user set
func applyAuditFlags(cmd *cobra.Command, a *config.AuditConfig) {
	flags := cmd.Flags()
	if flags.Changed("inventory") {
		a.InventoryFile, _ = flags.GetString("inventory")
	}
	if flags.Changed("baselines") {
		a.BaselinesDir, _ = flags.GetString("baselines")
	}
	if flags.Changed("reports") {
		a.ReportsDir, _ = flags.GetString("reports")
	}
	if flags.Changed("min-uid") {
		a.MinUID, _ = flags.GetInt("min-uid")
	}
	if flags.Changed("timeout") {
		a.SSHTimeout, _ = flags.GetDuration("timeout")
	}
	if flags.Changed("known-hosts") {
		a.KnownHostsFile, _ = flags.GetString("known-hosts")
	}
}

func init() {
	addAuditFlags(auditCmd)
	auditCmd.Flags().Bool("no-save", false, "Print the summary without writing a JSON report")
	rootCmd.AddCommand(auditCmd)
}
