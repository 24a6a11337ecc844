// Package tsparse is the thin boundary over the external TypeScript-aware
// parser. It exposes per-file parsing only; symbol enumeration and
// signature extraction live in internal/symbol, which walks the tree this
// package returns.
package tsparse

import (
	"fmt"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/dhivijit/ripplecheck/internal/apperr"
)

// ParsedFile is a single file's syntax tree plus the source bytes it was
// parsed from. Offsets reported by Node positions are relative to Source.
type ParsedFile struct {
	FilePath string
	Source   []byte
	Tree     *sitter.Tree
	TSX      bool
}

// Node is an alias kept local so callers outside this package never import
// go-tree-sitter directly.
type Node = sitter.Node

// Close releases the underlying tree-sitter tree. Safe to call on a nil
// ParsedFile.
func (pf *ParsedFile) Close() {
	if pf == nil || pf.Tree == nil {
		return
	}
	pf.Tree.Close()
}

// Root returns the file's root AST node, or nil if parsing produced no tree.
func (pf *ParsedFile) Root() *Node {
	if pf == nil || pf.Tree == nil {
		return nil
	}
	return pf.Tree.RootNode()
}

var (
	tsLanguage  = sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())
	tsxLanguage = sitter.NewLanguage(tree_sitter_typescript.LanguageTSX())
)

// IsSupported reports whether a path is within this analyzer's TS/TSX
// universe. Declaration-only files (.d.ts) are included: they still
// contribute public symbols for signature fingerprinting.
func IsSupported(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".ts") || strings.HasSuffix(lower, ".tsx") || strings.HasSuffix(lower, ".d.ts")
}

func isTSX(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".tsx")
}

// Parse parses TypeScript or TSX source into a ParsedFile. Callers must
// Close the result once they are done walking it.
func Parse(filePath string, source []byte) (*ParsedFile, error) {
	if !IsSupported(filePath) {
		return nil, apperr.New(apperr.KindParseFailure, fmt.Sprintf("unsupported file type: %s", filePath))
	}

	parser := sitter.NewParser()
	defer parser.Close()

	tsx := isTSX(filePath)
	lang := tsLanguage
	if tsx {
		lang = tsxLanguage
	}

	if err := parser.SetLanguage(lang); err != nil {
		return nil, apperr.Wrap(apperr.KindParseFailure, "failed to set typescript grammar", filePath, err)
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, apperr.New(apperr.KindParseFailure, fmt.Sprintf("tree-sitter returned no tree for %s", filePath))
	}

	return &ParsedFile{
		FilePath: filePath,
		Source:   source,
		Tree:     tree,
		TSX:      tsx,
	}, nil
}

// Text returns the source slice a node spans.
func Text(node *Node, source []byte) string {
	if node == nil {
		return ""
	}
	start, end := node.StartByte(), node.EndByte()
	if int(end) > len(source) {
		end = uint(len(source))
	}
	if start > end {
		return ""
	}
	return string(source[start:end])
}

// Child returns the node's i-th child, using the direct Child()/ChildCount()
// walking style rather than the field-name accessors (this package never
// calls ChildByFieldName).
func Child(node *Node, i uint) *Node {
	if node == nil || i >= node.ChildCount() {
		return nil
	}
	return node.Child(i)
}

// FirstChildOfKind returns the first direct child whose Kind() is one of
// kinds, or nil.
func FirstChildOfKind(node *Node, kinds ...string) *Node {
	if node == nil {
		return nil
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		for _, k := range kinds {
			if child.Kind() == k {
				return child
			}
		}
	}
	return nil
}

// LineCol converts a tree-sitter point (0-based) to the 1-based line/column
// pair the rest of the system uses.
func LineCol(p sitter.Point) (line, col int) {
	return int(p.Row) + 1, int(p.Column) + 1
}
