package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/user/netaudit/pkg/report"
)

var diffCmd = &cobra.Command{
	Use:   "diff <previous.json> <current.json>",
	Short: "Compare two saved audit reports",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		previous, err := report.Load(args[0])
		if err != nil {
			return err
		}
		current, err := report.Load(args[1])
		if err != nil {
			return err
		}

		fmt.Printf("Report comparison (%s vs %s):\n", args[1], args[0])
		fmt.Println("--------------------------------------------------")
		fmt.Print(report.Compare(previous, current).String())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(diffCmd)
}
