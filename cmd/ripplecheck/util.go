package main

import "github.com/dhivijit/ripplecheck/internal/symbol"

// indexValues flattens a symbol index map to a slice for components that
// want ordered iteration (e.g. the Intent Pipeline's resolver).
func indexValues(idx map[string]*symbol.Symbol) []*symbol.Symbol {
	out := make([]*symbol.Symbol, 0, len(idx))
	for _, s := range idx {
		out = append(out, s)
	}
	return out
}
