package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dhivijit/ripplecheck/internal/blast"
	"github.com/dhivijit/ripplecheck/internal/cache"
	"github.com/dhivijit/ripplecheck/internal/gitvcs"
	"github.com/dhivijit/ripplecheck/internal/render"
	"github.com/dhivijit/ripplecheck/internal/vcsdiff"
)

var stagedCmd = &cobra.Command{
	Use:   "staged",
	Short: "Blast radius of the currently staged (git index) change set",
	Args:  cobra.NoArgs,
	RunE:  runStaged,
}

func runStaged(cmd *cobra.Command, args []string) error {
	root, err := filepath.Abs(config.ProjectRoot)
	if err != nil {
		return err
	}
	store := cache.New(root, config.CacheDir)
	if !store.Exists() {
		return fmt.Errorf("no cache found — run `ripplecheck build` first")
	}
	idx, g, _, _, err := store.Load()
	if err != nil {
		return fmt.Errorf("loading cache: %w", err)
	}

	collab := gitvcs.New(cmd.Context(), root)
	mapper := vcsdiff.New(collab)
	roots, err := mapper.Analyze(idx, g)
	if err != nil {
		return fmt.Errorf("staged-diff analysis: %w", err)
	}

	result := blast.Run(g, roots)
	f := render.NewFormatter(os.Stdout, render.Format(config.Format))
	return render.RenderResult(f, result)
}
