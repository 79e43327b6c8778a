package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmarche/fabula/internal/validator"
	"github.com/tmarche/fabula/pkg/schema"
)

// RunValidate loads the story at path and reports every structural defect on
// its own line. Unreachable nodes are warnings, not failures: stories ship
// with drafts.
func RunValidate(path string) error {
	story, err := loadStory(context.Background(), path)
	if err != nil {
		return err
	}

	result, err := validator.ValidateStory(story)
	if err != nil {
		var agg *schema.AggregateError
		if errors.As(err, &agg) {
			fmt.Printf("Found %d problem(s) in %s:\n", len(agg.Errors), path)
			for _, issue := range agg.Errors {
				fmt.Printf("  - %v\n", issue)
			}
			return fmt.Errorf("story is invalid")
		}
		return err
	}

	for _, id := range result.Unreachable {
		printSystemMessage("warning: node '%s' is unreachable", id)
	}
	fmt.Printf("Story is valid! ✅ (%d nodes)\n", len(story.Nodes))
	return nil
}
