package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tmarche/fabula/internal/cli"
)

// playCmd represents the play command
var playCmd = &cobra.Command{
	Use:   "play [story]",
	Short: "Play a story interactively",
	Long:  `Starts the engine in interactive mode with the story from the given path (default: current directory).`,
	Run: func(cmd *cobra.Command, args []string) {
		headless, _ := cmd.Flags().GetBool("headless")
		resume, _ := cmd.Flags().GetString("resume")
		noAutosave, _ := cmd.Flags().GetBool("no-autosave")
		watchMode, _ := cmd.Flags().GetBool("watch")

		if watchMode && headless {
			fmt.Println("Error: --watch and --headless cannot be used together.")
			os.Exit(1)
		}

		opts := cli.PlayOptions{
			StoryPath:  storyPath(cmd, args),
			Headless:   headless,
			Resume:     resume,
			NoAutosave: noAutosave,
			Config:     loadConfig(cmd),
		}

		var err error
		if watchMode {
			err = cli.RunWatch(opts)
		} else {
			err = cli.RunPlay(opts)
		}
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().Bool("headless", false, "Run without banner or prompts (strict IO)")
	playCmd.Flags().String("resume", "", "Load the named save before playing")
	playCmd.Flags().Bool("no-autosave", false, "Disable choice-triggered autosaves")
	playCmd.Flags().BoolP("watch", "w", false, "Reload the story when its source changes")

	// Make 'play' the default when no subcommand is given.
	rootCmd.Run = playCmd.Run
}
