package commands

import (
	"github.com/spf13/cobra"
)

var configPath string

func Execute() error {
	root := &cobra.Command{
		Use:   "sealchat",
		Short: "End-to-end encrypted chat relay server",
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "sealchat.toml", "path to the TOML config file")

	root.AddCommand(serveCmd())
	return root.Execute()
}
