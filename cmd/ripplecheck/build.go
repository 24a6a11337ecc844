package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dhivijit/ripplecheck/internal/cache"
	"github.com/dhivijit/ripplecheck/internal/updater"
)

var buildCmd = &cobra.Command{
	Use:   "build [path]",
	Short: "Run a full rebuild of the symbol index and dependency graph",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBuild,
}

func resolveRoot(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return config.ProjectRoot
}

func runBuild(cmd *cobra.Command, args []string) error {
	root, err := filepath.Abs(resolveRoot(args))
	if err != nil {
		return err
	}

	files, err := updater.DiscoverFiles(root)
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}
	if config.Verbose {
		fmt.Fprintf(os.Stderr, "discovered %d TypeScript/TSX files\n", len(files))
	}

	orch := updater.New()
	yieldCount := 0
	err = orch.FullRebuild(cmd.Context(), files, os.ReadFile, func() {
		yieldCount++
		if config.Verbose {
			fmt.Fprintf(os.Stderr, "yield at batch %d\n", yieldCount)
		}
	})
	if err != nil {
		return fmt.Errorf("full rebuild: %w", err)
	}

	hashes := make(map[string]string, len(files))
	for _, f := range files {
		content, err := os.ReadFile(f)
		if err != nil {
			continue
		}
		hashes[f] = cache.ContentHash(content)
	}

	store := cache.New(root, config.CacheDir)
	idx := orch.CloneIndex()
	projectHash := cache.ProjectHash(projectConfigText(root))
	if err := store.Save(idx, orch.Graph(), hashes, projectHash); err != nil {
		return fmt.Errorf("saving cache: %w", err)
	}

	fmt.Printf("built %d symbols from %d files\n", len(idx), len(files))
	return nil
}

// projectConfigText reads tsconfig.json (if present) as the text the
// project-configuration hash is taken over (spec.md §4.6).
func projectConfigText(root string) []byte {
	content, err := os.ReadFile(filepath.Join(root, "tsconfig.json"))
	if err != nil {
		return nil
	}
	return content
}
