package main

import (
	"github.com/spf13/cobra"
)

// rootFlags are shared by every subcommand.
type rootFlags struct {
	configPath string
	envFile    string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "aistream",
		Short:         "Stream chat completions from OpenAI, Anthropic and Gemini",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "aistream.yaml", "YAML config file (skipped when missing)")
	root.PersistentFlags().StringVar(&flags.envFile, "env-file", ".env", "dotenv file loaded before the environment (skipped when missing)")

	root.AddCommand(newChatCmd(flags), newVersionCmd())
	return root
}
