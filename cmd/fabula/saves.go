package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tmarche/fabula/internal/cli"
)

var savesCmd = &cobra.Command{
	Use:   "saves",
	Short: "Manage persistent saves",
	Long:  `List, inspect, and remove saves from the store selected by FABULA_STORE.`,
}

var savesLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all saves",
	Run: func(cmd *cobra.Command, args []string) {
		if err := cli.RunSavesList(loadConfig(cmd)); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

var savesInspectCmd = &cobra.Command{
	Use:   "inspect <save>",
	Short: "Show the decoded state of a save",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := cli.RunSaveInspect(loadConfig(cmd), args[0]); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

var savesRmCmd = &cobra.Command{
	Use:   "rm <save>...",
	Short: "Remove one or more saves",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := cli.RunSavesRemove(loadConfig(cmd), args); err != nil {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(savesCmd)
	savesCmd.AddCommand(savesLsCmd)
	savesCmd.AddCommand(savesInspectCmd)
	savesCmd.AddCommand(savesRmCmd)
}
