package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "netaudit",
	Short: "Network security compliance auditor",
	Long: `netaudit connects to network devices over SSH, extracts their SSH,
user account and firewall configuration, and scores it against YAML
security baselines.`,
	SilenceUsage: true,
}

var (
	DebugMode  bool
	ConfigFile string
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	go func() {
		// a second interrupt falls through to the default handler
		<-ctx.Done()
		stop()
	}()
	err := rootCmd.ExecuteContext(ctx)
	stop()
	cobra.CheckErr(err)
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&DebugMode, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&ConfigFile, "config", "", "Config file (default ~/.netaudit/config.yaml)")
}
