// Package refwalk is the Reference Walker: a pre-order AST traversal that
// maintains an explicit owner stack and records a forward edge from the
// enclosing owner to every resolved identifier reference (spec.md §4.2).
//
// The real identifier->declaration resolution is delegated to the
// TypeScript type checker, which spec.md §1 explicitly puts out of scope
// ("the underlying AST/type-checker library, treated as an external parser
// exposing symbol resolution"). This package models that boundary as the
// Resolver interface; the default resolver does lexical name matching
// against the live symbol table, the practical Go-side stand-in for a real
// checker (see DESIGN.md).
package refwalk

import (
	"github.com/dhivijit/ripplecheck/internal/tsparse"
)

// Resolver maps an identifier use to the symbol ID of its declaration. It
// returns ok=false for unresolved, ambient, or third-party/stdlib
// references (per spec.md §4.2, only workspace-file declarations produce
// an edge).
type Resolver interface {
	Resolve(name string) (symbolID string, ok bool)
}

// Edge is a single forward reference discovered during the walk.
type Edge struct {
	From string
	To   string
}

// Walk performs the pre-order owner-stack traversal over pf and returns the
// edges discovered. symbolIDByNodeStart maps the start-byte offset of each
// declaration node (top-level, namespaced, or class member) to the symbol
// ID the Symbol Extractor assigned it; it is used to recover "this is the
// symbol ID for the owner frame I just pushed" without re-deriving
// qualified names during the walk.
func Walk(pf *tsparse.ParsedFile, symbolIDByNodeStart map[uint]string, resolver Resolver) []Edge {
	root := pf.Root()
	if root == nil {
		return nil
	}
	w := &walker{
		pf:        pf,
		byStart:   symbolIDByNodeStart,
		resolver:  resolver,
	}
	w.visit(root, nil, nil)
	return w.edges
}

type walker struct {
	pf       *tsparse.ParsedFile
	byStart  map[uint]string
	resolver Resolver
	edges    []Edge
}

type ownerFrame struct {
	symbolID string
}

func (w *walker) currentOwner(stack []ownerFrame) string {
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i].symbolID != "" {
			return stack[i].symbolID
		}
	}
	return ""
}

func (w *walker) visit(node, parent *tsparse.Node, stack []ownerFrame) {
	if node == nil {
		return
	}

	nextStack := stack
	if id, pushed := w.ownerIDFor(node); pushed {
		nextStack = append(append([]ownerFrame{}, stack...), ownerFrame{symbolID: id})
	}

	if node.Kind() == "identifier" && !w.isBindingSite(node, parent) {
		owner := w.currentOwner(nextStack)
		if owner != "" {
			name := tsparse.Text(node, w.pf.Source)
			if id, ok := w.resolver.Resolve(name); ok && id != owner {
				w.edges = append(w.edges, Edge{From: owner, To: id})
			}
		}
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		w.visit(tsparse.Child(node, i), node, nextStack)
	}
}

// ownerIDFor reports whether node is an owner node (a function or generator
// function declaration, a method_definition — which also covers
// constructors and accessors — or a variable declarator whose value is an
// arrow function or function expression) and, if so, the symbol ID that
// should be pushed onto the owner stack.
func (w *walker) ownerIDFor(node *tsparse.Node) (string, bool) {
	switch node.Kind() {
	case "function_declaration", "method_definition", "generator_function_declaration":
		if id, ok := w.byStart[node.StartByte()]; ok {
			return id, true
		}
		return "", false

	case "variable_declarator":
		// An arrow/function expression bound directly to this declarator
		// owns its own frame, attributed to the variable's symbol.
		for i := uint(0); i < node.ChildCount(); i++ {
			v := tsparse.Child(node, i)
			if v != nil && (v.Kind() == "arrow_function" || v.Kind() == "function_expression") {
				if id, ok := w.byStart[node.StartByte()]; ok {
					return id, true
				}
			}
		}
		return "", false
	}
	return "", false
}

// isBindingSite reports whether node is itself the declared name in its
// parent (a binding site), in which case it is not a "use" and must not be
// resolved to an edge. This uses direct-child inspection rather than relying
// on field names; the caller passes the parent explicitly since it is
// already walking the tree top-down.
func (w *walker) isBindingSite(node, parent *tsparse.Node) bool {
	if parent == nil {
		return false
	}
	switch parent.Kind() {
	case "function_declaration", "class_declaration", "interface_declaration",
		"type_alias_declaration", "enum_declaration", "method_definition",
		"variable_declarator", "required_parameter", "optional_parameter",
		"public_field_definition", "property_signature", "import_specifier",
		"namespace_import", "module":
		// The first identifier/type_identifier/property_identifier child of
		// these nodes is the declared name, not a reference.
		first := tsparse.FirstChildOfKind(parent, "identifier", "type_identifier", "property_identifier")
		return first != nil && first.StartByte() == node.StartByte()
	}
	return false
}
