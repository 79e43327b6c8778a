package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tmarche/fabula/internal/cli"
)

var newCmd = &cobra.Command{
	Use:   "new [dir]",
	Short: "Scaffold a starter story",
	Long:  `Creates a small playable story in the target directory (default: current directory), one Markdown document per node.`,
	Run: func(cmd *cobra.Command, args []string) {
		dir := "."
		if len(args) > 0 {
			dir = args[0]
		}
		if err := cli.RunNew(dir); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(newCmd)
}
