package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hrygo/todoc/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "todoc", version.String())
	},
}
