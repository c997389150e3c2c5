package main

import "github.com/spf13/cobra"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "bot",
		Short:        "Digital Marketing Academy Telegram bot",
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd(), newWebhookCmd())
	return root
}
