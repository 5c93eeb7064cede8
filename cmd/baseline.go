package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/user/netaudit/pkg/engine"
	"github.com/user/netaudit/pkg/wrappers"
)

var baselineCmd = &cobra.Command{
	Use:   "baseline",
	Short: "Inspect the compliance baselines",
}

var baselineShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Validate and list the baseline rules",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		dir := cfg.Audit.BaselinesDir
		if cmd.Flags().Changed("baselines") {
			dir, _ = cmd.Flags().GetString("baselines")
		}

		b, err := engine.LoadBaseline(dir)
		if err != nil {
			return err
		}

		var sb strings.Builder
		wrappers.WriteRuleSets(&sb, b.Sets)
		fmt.Print(sb.String())
		fmt.Printf("\n%d rules loaded from %s\n", b.RuleCount(), dir)
		return nil
	},
}

func init() {
	baselineShowCmd.Flags().StringP("baselines", "b", "", "Directory holding the baseline YAML files")
	baselineCmd.AddCommand(baselineShowCmd)
	rootCmd.AddCommand(baselineCmd)
}
