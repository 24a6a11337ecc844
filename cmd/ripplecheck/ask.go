package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dhivijit/ripplecheck/internal/blast"
	"github.com/dhivijit/ripplecheck/internal/cache"
	"github.com/dhivijit/ripplecheck/internal/intent"
	"github.com/dhivijit/ripplecheck/internal/render"
)

var (
	askChangeType  string
	askSymbolHints []string
	askFileHints   []string
	askPublicAPI   bool
)

var askCmd = &cobra.Command{
	Use:   "ask <prompt>",
	Short: "Resolve a natural-language change intent and report its blast radius",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askChangeType, "change-type", "unknown", "add|modify|delete|refactor|unknown")
	askCmd.Flags().StringSliceVar(&askSymbolHints, "symbol", nil, "Symbol name hint (repeatable)")
	askCmd.Flags().StringSliceVar(&askFileHints, "file", nil, "File path hint (repeatable)")
	askCmd.Flags().BoolVar(&askPublicAPI, "affects-public-api", false, "Whether the change affects a public API surface")
}

func runAsk(cmd *cobra.Command, args []string) error {
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

	descriptor := intent.Descriptor{
		Prompt:           strings.Join(args, " "),
		ChangeType:       intent.ChangeType(askChangeType),
		SymbolHints:      askSymbolHints,
		FileHints:        askFileHints,
		AffectsPublicAPI: askPublicAPI,
	}

	resolver := intent.NewResolver(indexValues(idx))
	defer resolver.Close()
	resolved, isRelevant := resolver.Resolve(descriptor)
	if !isRelevant {
		fmt.Println("prompt does not appear relevant to this codebase")
		return nil
	}

	roots, _ := intent.BuildVirtualDiff(idx, g, descriptor, resolved)
	result := blast.Run(g, roots)

	rootConf := intent.RootConfidences(resolved)
	confidences := intent.DegradeConfidence(result, rootConf)
	confByID := make(map[string]intent.Confidence, len(confidences))
	for _, c := range confidences {
		confByID[c.SymbolID] = c.Confidence
	}

	if descriptor.ChangeType == intent.ChangeDelete {
		deleteRoots := make(map[string]struct{})
		rootFiles := make(map[string]string)
		for _, r := range roots {
			if r.Reason == "deleted" {
				deleteRoots[r.SymbolID] = struct{}{}
				if sym, ok := idx[r.SymbolID]; ok {
					rootFiles[r.SymbolID] = sym.FilePath
				}
			}
		}
		result = intent.DeletePostFilter(result, rootFiles, idx, deleteRoots)
	}

	f := render.NewFormatter(os.Stdout, render.Format(config.Format))
	if err := render.RenderResult(f, result); err != nil {
		return err
	}
	if config.Verbose {
		for id, c := range confByID {
			fmt.Fprintf(os.Stderr, "%s: confidence=%s\n", id, c)
		}
	}
	return nil
}
