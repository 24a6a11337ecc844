package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dhivijit/ripplecheck/internal/cache"
	"github.com/dhivijit/ripplecheck/internal/siganalyze"
	"github.com/dhivijit/ripplecheck/internal/updater"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report cache staleness: changed files, ghost symbols, last build time",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	root, err := filepath.Abs(config.ProjectRoot)
	if err != nil {
		return err
	}
	store := cache.New(root, config.CacheDir)
	if !store.Exists() {
		fmt.Println("no cache found — run `ripplecheck build` first")
		return nil
	}

	idx, g, hashes, meta, err := store.Load()
	if err != nil {
		return fmt.Errorf("loading cache: %w", err)
	}

	files, err := updater.DiscoverFiles(root)
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}

	var stale []string
	for _, f := range files {
		content, err := os.ReadFile(f)
		if err != nil {
			continue
		}
		if hashes[f] != cache.ContentHash(content) {
			stale = append(stale, f)
		}
	}

	idSet := make(map[string]struct{}, len(idx))
	for id := range idx {
		idSet[id] = struct{}{}
	}
	ghosts := siganalyze.Ghosts(g, idSet)

	currentProjectHash := cache.ProjectHash(projectConfigText(root))

	fmt.Printf("cache version: %s\n", meta.Version)
	fmt.Printf("built at:      %s\n", meta.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("symbols:       %d\n", len(idx))
	fmt.Printf("stale files:   %d\n", len(stale))
	for _, f := range stale {
		fmt.Printf("  %s\n", f)
	}
	fmt.Printf("ghost symbols: %d\n", len(ghosts))
	if meta.ProjectHash != currentProjectHash {
		fmt.Println("project configuration changed since last build")
	}
	return nil
}
