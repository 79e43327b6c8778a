package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tmarche/fabula/internal/cli"
)

var rootCmd = &cobra.Command{
	Use:   "fabula",
	Short: "Fabula is a narrative engine for branching stories",
	Long:  `Fabula plays choice-driven interactive stories authored as Markdown, JSON or YAML, with flags, undo, checkpoints and durable saves.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("story", ".", "Path to the story file or directory")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging and lifecycle tracing")
}

// storyPath resolves where the story lives: the --story flag, or a positional
// argument when the flag was left at its default.
func storyPath(cmd *cobra.Command, args []string) string {
	path, _ := cmd.Flags().GetString("story")
	if !cmd.Flags().Changed("story") && len(args) > 0 {
		path = args[0]
	}
	return path
}

// loadConfig reads the environment configuration and applies flag overrides.
func loadConfig(cmd *cobra.Command) cli.Config {
	cfg, err := cli.LoadConfig()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.Debug = true
	}
	return cfg
}
