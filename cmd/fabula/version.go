package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tmarche/fabula"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of fabula",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("fabula version %s\n", strings.TrimSpace(fabula.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
