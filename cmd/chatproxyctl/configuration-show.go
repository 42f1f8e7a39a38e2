package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// configurationShowCmd represents the configuration show command
var configurationShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show configuration attributes and their sources",
	Long: `Show configuration attributes and their sources.

The values displayed by this command reflect the current state of the
configuration sources: the environment, the .env overlay file and the
YAML config file. Credentials are masked.

Example:
  chatproxyctl configuration show
  chatproxyctl configuration show --output json`,
	Run: func(cmd *cobra.Command, args []string) {
		output, _ := cmd.Flags().GetString("output")

		if err := showConfiguration(cmd, output); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to show configuration: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	configurationCmd.AddCommand(configurationShowCmd)
	configurationShowCmd.Flags().StringP("output", "o", "text", "Output format (text or json)")
	configurationShowCmd.Flags().String("env-file", ".env", "env-style overlay file")
	configurationShowCmd.Flags().String("config", "", "YAML config file (default $CHATPROXY_CONFIG_PATH/chatproxy.yml)")
}

func showConfiguration(cmd *cobra.Command, output string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if output == "json" {
		jsonOutput, err := cfg.FormatJSON()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), jsonOutput)
		return nil
	}

	fmt.Fprint(cmd.OutOrStdout(), cfg.FormatText())
	return nil
}
