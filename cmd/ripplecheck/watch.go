package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dhivijit/ripplecheck/internal/cache"
	"github.com/dhivijit/ripplecheck/internal/updater"
	"github.com/dhivijit/ripplecheck/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Keep the symbol index and graph live as files change, until interrupted",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	root, err := filepath.Abs(resolveRoot(args))
	if err != nil {
		return err
	}

	files, err := updater.DiscoverFiles(root)
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}

	orch := updater.New()
	if err := orch.FullRebuild(cmd.Context(), files, os.ReadFile, nil); err != nil {
		return fmt.Errorf("initial full rebuild: %w", err)
	}
	fmt.Fprintf(os.Stderr, "watching %s (%d files indexed)\n", root, len(files))

	wcfg := watch.DefaultConfig()
	wcfg.WatchDirs = []string{root}
	wcfg.Verbose = config.Verbose
	wcfg.ErrorCallback = func(err error) {
		fmt.Fprintf(os.Stderr, "watch error: %v\n", err)
	}

	w, err := watch.New(orch, wcfg)
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := w.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	w.Stop()

	store := cache.New(root, config.CacheDir)
	idx := orch.CloneIndex()
	filePaths := make(map[string]struct{})
	for _, s := range idx {
		filePaths[s.FilePath] = struct{}{}
	}
	hashes := make(map[string]string, len(filePaths))
	for path := range filePaths {
		content, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		hashes[path] = cache.ContentHash(content)
	}
	projectHash := cache.ProjectHash(projectConfigText(root))
	if err := store.Save(idx, orch.Graph(), hashes, projectHash); err != nil {
		return fmt.Errorf("saving cache on exit: %w", err)
	}
	fmt.Fprintln(os.Stderr, "stopped watching; cache saved")
	return nil
}
