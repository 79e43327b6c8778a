package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tmarche/fabula/internal/cli"
)

var validateCmd = &cobra.Command{
	Use:   "validate [story]",
	Short: "Check a story for structural defects",
	Long:  `Loads the story and reports broken choice targets, duplicate IDs, bad branch routes and unreachable nodes.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := cli.RunValidate(storyPath(cmd, args)); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
