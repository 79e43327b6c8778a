package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tmarche/fabula/internal/cli"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [story]",
	Short: "Export the story graph visualization",
	Long:  `Inspects the story and outputs a Mermaid diagram (graph TD) of its nodes, choices and branch routes. With --save, the diagram highlights the path a playthrough has taken.`,
	Run: func(cmd *cobra.Command, args []string) {
		saveKey, _ := cmd.Flags().GetString("save")

		opts := cli.GraphOptions{
			StoryPath: storyPath(cmd, args),
			SaveKey:   saveKey,
			Config:    loadConfig(cmd),
		}
		if err := cli.RunGraph(opts); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)

	graphCmd.Flags().String("save", "", "Overlay the playthrough recorded in the named save")
}
