// Package commands holds the storefront-chat CLI.
package commands

import (
	"github.com/spf13/cobra"
)

// NewRootCmd returns the CLI root. Running it without a subcommand serves.
func NewRootCmd() *cobra.Command {
	serve := NewServeCmd()
	root := &cobra.Command{
		Use:           "storefront-chat",
		Short:         "Sales assistant chat API for the storefront",
		Long:          `Serves the storefront chat endpoints, answering shoppers from canned replies or the configured LLM.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}
	root.PersistentFlags().String("env-file", ".env", "dotenv file to load before reading the environment")
	root.AddCommand(serve, NewVersionCmd())
	return root
}

func Execute() error {
	return NewRootCmd().Execute()
}
