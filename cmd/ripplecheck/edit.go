package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dhivijit/ripplecheck/internal/blast"
	"github.com/dhivijit/ripplecheck/internal/cache"
	"github.com/dhivijit/ripplecheck/internal/render"
	"github.com/dhivijit/ripplecheck/internal/symbol"
	"github.com/dhivijit/ripplecheck/internal/updater"
)

var editCmd = &cobra.Command{
	Use:   "edit <file>",
	Short: "Blast radius of an unstaged editor buffer's current on-disk content",
	Args:  cobra.ExactArgs(1),
	RunE:  runEdit,
}

// overlay is the transient reverse-edge overlay spec.md §4.10 describes:
// for every symbol the edited file owned before this edit, Dependents
// returns the snapshot taken before eviction; every other id is answered by
// the post-edit shadow graph. The overlay is never persisted, and the cache-loaded graph this
// command starts from is never mutated — HandleFileChanged runs against a
// DeepClone instead.
type overlay struct {
	live     blast.ReverseNeighbors
	snapshot map[string][]string
}

func (o overlay) Dependents(id string) []string {
	if snap, ok := o.snapshot[id]; ok {
		return snap
	}
	return o.live.Dependents(id)
}

func runEdit(cmd *cobra.Command, args []string) error {
	path, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
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

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	// Snapshot dependents of every symbol this file currently owns, before
	// HandleFileChanged evicts them.
	normPath := symbol.NormalizePath(path)
	snapshot := make(map[string][]string)
	for id, s := range idx {
		if s.FilePath == normPath {
			snapshot[id] = g.Dependents(id)
		}
	}

	// NewShadow mutates whatever index/graph it is given; clone both so this
	// speculative analysis never touches the cache-loaded idx/g in place
	// (spec.md §4.10/§5's no-live-mutation invariant holds literally, not
	// just because this process throws idx/g away afterward).
	shadowIdx := make(map[string]*symbol.Symbol, len(idx))
	for id, s := range idx {
		shadowIdx[id] = s
	}
	shadowGraph := g.DeepClone()
	orch := updater.NewShadow(shadowIdx, shadowGraph)
	report := orch.HandleFileChanged(path, content)
	if report.Err != nil {
		return fmt.Errorf("parsing %s: %w", path, report.Err)
	}

	var roots []blast.Root
	for _, id := range report.Removed {
		roots = append(roots, blast.Root{SymbolID: id, PropagationMode: blast.PropagationDeep, Reason: "deleted"})
	}
	for _, id := range report.Ripple {
		roots = append(roots, blast.Root{SymbolID: id, PropagationMode: blast.PropagationDeep, Reason: "signature-ripple"})
	}

	// overlay.live reads the post-edit shadow graph (new edges from the
	// re-walk above included); the pre-eviction snapshot covers every symbol
	// the file owned before the edit, removed or not.
	result := blast.Run(overlay{live: shadowGraph, snapshot: snapshot}, roots)
	f := render.NewFormatter(os.Stdout, render.Format(config.Format))
	return render.RenderResult(f, result)
}
