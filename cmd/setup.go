package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/user/netaudit/pkg/adk"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup wizard",
	RunE: func(cmd *cobra.Command, args []string) error {
		scanner := bufio.NewScanner(os.Stdin)
		ask := func(prompt, current string) string {
			if current != "" {
				fmt.Printf("%s [%s] > ", prompt, current)
			} else {
				fmt.Printf("%s > ", prompt)
			}
			scanner.Scan()
			if v := strings.TrimSpace(scanner.Text()); v != "" {
				return v
			}
			return current
		}

		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		fmt.Println("Welcome to the netaudit setup wizard")
		fmt.Println("------------------------------------")

		fmt.Println("Step 1: Audit files")
		cfg.Audit.InventoryFile = ask("Device inventory file", cfg.Audit.InventoryFile)
		cfg.Audit.BaselinesDir = ask("Baselines directory", cfg.Audit.BaselinesDir)
		cfg.Audit.ReportsDir = ask("Reports directory", cfg.Audit.ReportsDir)

		fmt.Println("\nStep 2: Gemini API key (leave empty to skip the agent setup)")
		provider := "gemini"
		apiKey := ask("API key", "")
		if apiKey != "" {
			cfg.SelectedProvider = provider
			cfg.SetAPIKey(provider, apiKey)

			fmt.Println("\nStep 3: Validating key and fetching available models...")
			ctx := cmd.Context()
			p, err := adk.NewProvider(ctx, provider, apiKey, "")
			if err != nil {
				return fmt.Errorf("initializing provider: %w", err)
			}
			models, err := p.ListModels(ctx)
			if closer, ok := p.(interface{ Close() }); ok {
				closer.Close()
			}
			if err != nil || len(models) == 0 {
				fmt.Printf("Warning: Could not fetch models from API: %v\n", err)
				cfg.SelectedModel = ask("Model name", cfg.SelectedModel)
			} else {
				fmt.Printf("Successfully retrieved %d models.\n", len(models))
				for i, m := range models {
					fmt.Printf("%d. %s\n", i+1, m)
				}
				sel, err := strconv.Atoi(ask("Select Model (number)", ""))
				if err != nil || sel < 1 || sel > len(models) {
					fmt.Println("Invalid selection. Using first available model.")
					sel = 1
				}
				cfg.SelectedModel = models[sel-1]
			}
		}

		if err := saveConfig(cfg); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}

		fmt.Println("------------------------------------")
		fmt.Println("Setup Complete!")
		fmt.Printf("Inventory: %s\n", cfg.Audit.InventoryFile)
		fmt.Printf("Baselines: %s\n", cfg.Audit.BaselinesDir)
		fmt.Printf("Model:     %s\n", cfg.SelectedModel)
		fmt.Println("You can now run 'netaudit audit' or 'netaudit interactive'")
		return nil
	},
}

func init() {
	configCmd.AddCommand(setupCmd)
}
