// Package testutils holds helpers shared by tests that need a real Loam
// repository on disk.
package testutils

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"github.com/stretchr/testify/require"
)

// SetupTestRepo initializes a Loam repository in a fresh temp directory and
// returns the absolute path plus the repository. It fails the test on error.
func SetupTestRepo(t *testing.T, opts ...loam.Option) (string, core.Repository) {
	t.Helper()

	// t.TempDir usually returns an absolute path already, but Loam insists.
	absPath, err := filepath.Abs(t.TempDir())
	require.NoError(t, err, "failed to resolve temp dir")

	repo, err := loam.Init(absPath, opts...)
	require.NoError(t, err, "failed to init loam repo")

	return absPath, repo
}

// SeedDocs saves the given documents (file name to full content, frontmatter
// included) into the repository.
func SeedDocs(t *testing.T, repo core.Repository, docs map[string]string) {
	t.Helper()
	ctx := context.Background()

	for id, content := range docs {
		err := repo.Save(ctx, core.Document{ID: id, Content: content})
		require.NoError(t, err, "failed to seed document %s", id)
	}
}
