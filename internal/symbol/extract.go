package symbol

import (
	"strings"

	"github.com/dhivijit/ripplecheck/internal/tsparse"
)

// Extractor walks a parsed TypeScript file and emits Symbol records per the
// extraction rules of spec.md §4.1. It mirrors a direct AST-walking style
// (internal/parser/treesitter.go's extractSymbolsDirectly) but switches on
// TypeScript-specific node kinds the way
// pkg/treesitter/typescript_extractor.go in the reference pack does.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns every named symbol in pf, in source order. Anonymous
// declarations are skipped (spec.md §4.1).
func (x *Extractor) Extract(pf *tsparse.ParsedFile) []*Symbol {
	root := pf.Root()
	if root == nil {
		return nil
	}
	var out []*Symbol
	for i := uint(0); i < root.ChildCount(); i++ {
		child := tsparse.Child(root, i)
		out = append(out, x.walkTop(child, pf, "", "", false)...)
	}
	return out
}

// walkTop handles a top-level-ish statement. exported is forced true when a
// parent export_statement unwrapped this node.
func (x *Extractor) walkTop(node *tsparse.Node, pf *tsparse.ParsedFile, parentQualified, parentID string, exported bool) []*Symbol {
	if node == nil {
		return nil
	}

	switch node.Kind() {
	case "export_statement":
		decl := tsparse.FirstChildOfKind(node, "function_declaration", "class_declaration",
			"interface_declaration", "type_alias_declaration", "enum_declaration",
			"lexical_declaration", "variable_declaration", "module", "internal_module", "ambient_declaration")
		if decl == nil {
			return nil
		}
		return x.walkTop(decl, pf, parentQualified, parentID, true)

	case "ambient_declaration":
		for i := uint(0); i < node.ChildCount(); i++ {
			child := tsparse.Child(node, i)
			if syms := x.walkTop(child, pf, parentQualified, parentID, exported); syms != nil {
				return syms
			}
		}
		return nil

	case "function_declaration":
		if sym := x.extractFunction(node, pf, parentQualified, parentID, exported); sym != nil {
			return []*Symbol{sym}
		}
		return nil

	case "class_declaration":
		return x.extractClass(node, pf, parentQualified, parentID, exported)

	case "interface_declaration":
		if sym := x.extractInterface(node, pf, parentQualified, parentID, exported); sym != nil {
			return []*Symbol{sym}
		}
		return nil

	case "type_alias_declaration":
		if sym := x.extractTypeAlias(node, pf, parentQualified, parentID, exported); sym != nil {
			return []*Symbol{sym}
		}
		return nil

	case "enum_declaration":
		return x.extractEnum(node, pf, parentQualified, parentID, exported)

	case "lexical_declaration", "variable_declaration":
		return x.extractVariables(node, pf, parentQualified, parentID, exported)

	case "module", "internal_module":
		return x.extractNamespace(node, pf, parentQualified, parentID, exported)

	default:
		return nil
	}
}

func name(node *tsparse.Node, src []byte, kinds ...string) string {
	n := tsparse.FirstChildOfKind(node, kinds...)
	if n == nil {
		return ""
	}
	return tsparse.Text(n, src)
}

func makeSymbol(pf *tsparse.ParsedFile, node *tsparse.Node, kind Kind, qualified, parentID string, exported bool) *Symbol {
	startLine, _ := tsparse.LineCol(node.StartPosition())
	endLine, _ := tsparse.LineCol(node.EndPosition())
	return &Symbol{
		ID:            MakeID(pf.FilePath, qualified),
		FilePath:      NormalizePath(pf.FilePath),
		QualifiedName: qualified,
		Kind:          kind,
		StartLine:     startLine,
		EndLine:       endLine,
		StartOffset:   int(node.StartByte()),
		EndOffset:     int(node.EndByte()),
		Exported:      exported,
		ParentID:      parentID,
	}
}

func (x *Extractor) extractFunction(node *tsparse.Node, pf *tsparse.ParsedFile, parentQualified, parentID string, exported bool) *Symbol {
	if tsparse.FirstChildOfKind(node, "statement_block") == nil {
		// Overload signature without a body; keep only the implementation.
		return nil
	}
	n := name(node, pf.Source, "identifier")
	if n == "" {
		return nil
	}
	qualified := QualifyChild(parentQualified, n)
	sym := makeSymbol(pf, node, KindFunction, qualified, parentID, exported)
	params, ret := functionSignatureParts(node, pf.Source)
	sym.SignatureHash = HashCallable(params, ret)
	return sym
}

func (x *Extractor) extractClass(node *tsparse.Node, pf *tsparse.ParsedFile, parentQualified, parentID string, exported bool) []*Symbol {
	n := name(node, pf.Source, "type_identifier", "identifier")
	if n == "" {
		return nil
	}
	qualified := QualifyChild(parentQualified, n)

	base, implements := classHeritage(node, pf.Source)
	sym := makeSymbol(pf, node, KindClass, qualified, parentID, exported)
	sym.SignatureHash = HashClass(base, implements)

	out := []*Symbol{sym}

	body := tsparse.FirstChildOfKind(node, "class_body")
	if body == nil {
		return out
	}
	for i := uint(0); i < body.ChildCount(); i++ {
		member := tsparse.Child(body, i)
		if member == nil {
			continue
		}
		out = append(out, x.extractClassMember(member, pf, qualified, sym.ID, exported)...)
	}
	return out
}

func (x *Extractor) extractClassMember(node *tsparse.Node, pf *tsparse.ParsedFile, parentQualified, parentID string, classExported bool) []*Symbol {
	src := pf.Source
	switch node.Kind() {
	case "method_definition", "method_signature":
		if tsparse.FirstChildOfKind(node, "statement_block") == nil && node.Kind() == "method_definition" {
			return nil // overload signature, keep implementation only
		}
		n := name(node, src, "property_identifier", "private_property_identifier")
		if n == "" {
			return nil
		}
		qualified := QualifyChild(parentQualified, n)
		sym := makeSymbol(pf, node, KindMethod, qualified, parentID, classExported)
		params, ret := functionSignatureParts(node, src)
		sym.SignatureHash = HashCallable(params, ret)
		return []*Symbol{sym}

	case "public_field_definition", "field_definition", "property_signature":
		n := name(node, src, "property_identifier", "private_property_identifier")
		if n == "" {
			return nil
		}
		qualified := QualifyChild(parentQualified, n)
		sym := makeSymbol(pf, node, KindProperty, qualified, parentID, classExported)
		sym.SignatureHash = HashDeclaredType(fieldTypeText(node, src))
		return []*Symbol{sym}

	default:
		return nil
	}
}

func (x *Extractor) extractInterface(node *tsparse.Node, pf *tsparse.ParsedFile, parentQualified, parentID string, exported bool) *Symbol {
	n := name(node, pf.Source, "type_identifier")
	if n == "" {
		return nil
	}
	qualified := QualifyChild(parentQualified, n)
	sym := makeSymbol(pf, node, KindInterface, qualified, parentID, exported)

	body := tsparse.FirstChildOfKind(node, "interface_body", "object_type")
	var members []string
	if body != nil {
		for i := uint(0); i < body.ChildCount(); i++ {
			member := tsparse.Child(body, i)
			if member == nil {
				continue
			}
			switch member.Kind() {
			case "property_signature", "method_signature", "index_signature", "call_signature":
				members = append(members, tsparse.Text(member, pf.Source))
			}
		}
	}
	sym.SignatureHash = HashInterface(members)
	return sym
}

func (x *Extractor) extractTypeAlias(node *tsparse.Node, pf *tsparse.ParsedFile, parentQualified, parentID string, exported bool) *Symbol {
	n := name(node, pf.Source, "type_identifier")
	if n == "" {
		return nil
	}
	qualified := QualifyChild(parentQualified, n)
	sym := makeSymbol(pf, node, KindTypeAlias, qualified, parentID, exported)

	// The declared type is everything after the '=' sign: the first child
	// of the type_alias_declaration that follows '=' (the trailing ';' is
	// not part of it).
	var typeNode *tsparse.Node
	afterEq := false
	for i := uint(0); i < node.ChildCount(); i++ {
		child := tsparse.Child(node, i)
		if child == nil {
			continue
		}
		if child.Kind() == "=" {
			afterEq = true
			continue
		}
		if afterEq && child.Kind() != ";" {
			typeNode = child
			break
		}
	}
	sym.SignatureHash = HashDeclaredType(tsparse.Text(typeNode, pf.Source))
	return sym
}

func (x *Extractor) extractEnum(node *tsparse.Node, pf *tsparse.ParsedFile, parentQualified, parentID string, exported bool) []*Symbol {
	n := name(node, pf.Source, "identifier")
	if n == "" {
		return nil
	}
	qualified := QualifyChild(parentQualified, n)
	sym := makeSymbol(pf, node, KindEnum, qualified, parentID, exported)

	body := tsparse.FirstChildOfKind(node, "enum_body")
	var members []EnumMember
	if body != nil {
		for i := uint(0); i < body.ChildCount(); i++ {
			member := tsparse.Child(body, i)
			if member == nil {
				continue
			}
			switch member.Kind() {
			case "property_identifier":
				members = append(members, EnumMember{Name: tsparse.Text(member, pf.Source)})
			case "enum_assignment":
				memberName := name(member, pf.Source, "property_identifier")
				var value string
				for j := uint(0); j < member.ChildCount(); j++ {
					c := tsparse.Child(member, j)
					if c != nil && c.Kind() != "property_identifier" && c.Kind() != "=" {
						value = tsparse.Text(c, pf.Source)
					}
				}
				if memberName != "" {
					members = append(members, EnumMember{Name: memberName, Value: value})
				}
			}
		}
	}
	sym.SignatureHash = HashEnum(members)
	return []*Symbol{sym}
}

func (x *Extractor) extractVariables(node *tsparse.Node, pf *tsparse.ParsedFile, parentQualified, parentID string, exported bool) []*Symbol {
	var out []*Symbol
	for i := uint(0); i < node.ChildCount(); i++ {
		decl := tsparse.Child(node, i)
		if decl == nil || decl.Kind() != "variable_declarator" {
			continue
		}
		n := name(decl, pf.Source, "identifier")
		if n == "" {
			continue
		}
		qualified := QualifyChild(parentQualified, n)
		sym := makeSymbol(pf, decl, KindVariable, qualified, parentID, exported)
		sym.SignatureHash = HashDeclaredType(variableTypeText(decl, pf.Source))
		out = append(out, sym)
	}
	return out
}

func (x *Extractor) extractNamespace(node *tsparse.Node, pf *tsparse.ParsedFile, parentQualified, parentID string, exported bool) []*Symbol {
	n := name(node, pf.Source, "identifier", "nested_identifier")
	if n == "" {
		return nil
	}
	qualified := QualifyChild(parentQualified, n)

	body := tsparse.FirstChildOfKind(node, "statement_block", "module_body")
	if body == nil {
		return nil
	}
	var out []*Symbol
	for i := uint(0); i < body.ChildCount(); i++ {
		child := tsparse.Child(body, i)
		out = append(out, x.walkTop(child, pf, qualified, parentID, false)...)
	}
	return out
}

// functionSignatureParts extracts a callable's parameter list (name + type
// text) and return type text from a function/method declaration node.
func functionSignatureParts(node *tsparse.Node, src []byte) ([]Param, string) {
	var params []Param
	paramsNode := tsparse.FirstChildOfKind(node, "formal_parameters")
	if paramsNode != nil {
		for i := uint(0); i < paramsNode.ChildCount(); i++ {
			p := tsparse.Child(paramsNode, i)
			if p == nil {
				continue
			}
			switch p.Kind() {
			case "required_parameter", "optional_parameter":
				pname := name(p, src, "identifier")
				ptype := ""
				if tn := tsparse.FirstChildOfKind(p, "type_annotation"); tn != nil {
					ptype = strings.TrimPrefix(tsparse.Text(tn, src), ":")
				}
				params = append(params, Param{Name: pname, Type: ptype})
			}
		}
	}

	ret := ""
	if rn := tsparse.FirstChildOfKind(node, "type_annotation"); rn != nil {
		ret = strings.TrimPrefix(tsparse.Text(rn, src), ":")
	}
	return params, ret
}

// fieldTypeText extracts a class field's declared type annotation text.
func fieldTypeText(node *tsparse.Node, src []byte) string {
	if tn := tsparse.FirstChildOfKind(node, "type_annotation"); tn != nil {
		return strings.TrimPrefix(tsparse.Text(tn, src), ":")
	}
	return ""
}

// variableTypeText extracts a variable declarator's declared type
// annotation text. It returns "" when there is no explicit annotation; the
// initializer is not consulted.
func variableTypeText(decl *tsparse.Node, src []byte) string {
	if tn := tsparse.FirstChildOfKind(decl, "type_annotation"); tn != nil {
		return strings.TrimPrefix(tsparse.Text(tn, src), ":")
	}
	return ""
}

// classHeritage extracts the base class and sorted implements list from a
// class_declaration's class_heritage clause.
func classHeritage(node *tsparse.Node, src []byte) (base string, implements []string) {
	heritage := tsparse.FirstChildOfKind(node, "class_heritage")
	if heritage == nil {
		return "", nil
	}
	for i := uint(0); i < heritage.ChildCount(); i++ {
		clause := tsparse.Child(heritage, i)
		if clause == nil {
			continue
		}
		switch clause.Kind() {
		case "extends_clause":
			if t := tsparse.FirstChildOfKind(clause, "identifier", "type_identifier", "generic_type"); t != nil {
				base = tsparse.Text(t, src)
			}
		case "implements_clause":
			for j := uint(0); j < clause.ChildCount(); j++ {
				t := tsparse.Child(clause, j)
				if t != nil && (t.Kind() == "type_identifier" || t.Kind() == "generic_type") {
					implements = append(implements, tsparse.Text(t, src))
				}
			}
		}
	}
	return base, implements
}
