package cmd

import (
	"fmt"

	"github.com/sergev/gimbal/config"

	// Register driver board clients.
	_ "github.com/sergev/gimbal/gimbalboard"
	_ "github.com/sergev/gimbal/phaselink"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gimbal",
	Short: "A CLI program which stabilizes a two-axis brushless camera gimbal",
	Long: "The gimbal tool runs a closed-loop stabilization controller for a " +
		"two-axis brushless camera gimbal, fed by a serial attitude sensor and " +
		"driving a motor driver board over serial or USB.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Initialize configuration
		err := config.Initialize()
		if err != nil {
			cobra.CheckErr(fmt.Errorf("failed to initialize config: %w", err))
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
