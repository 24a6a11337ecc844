package symbol

import (
	"os"
	"testing"

	"github.com/dhivijit/ripplecheck/internal/tsparse"
)

func parseAndExtract(t *testing.T, path, src string) []*Symbol {
	t.Helper()
	pf, err := tsparse.Parse(path, []byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	defer pf.Close()
	return NewExtractor().Extract(pf)
}

func byName(syms []*Symbol, qualified string) *Symbol {
	for _, s := range syms {
		if s.QualifiedName == qualified {
			return s
		}
	}
	return nil
}

func TestExtractFunctionDeclaration(t *testing.T) {
	src := `export function add(a: number, b: number): number { return a + b; }`
	syms := parseAndExtract(t, "/repo/a.ts", src)

	fn := byName(syms, "add")
	if fn == nil {
		t.Fatalf("expected to find function 'add', got %+v", syms)
	}
	if fn.Kind != KindFunction {
		t.Fatalf("expected KindFunction, got %v", fn.Kind)
	}
	if !fn.Exported {
		t.Fatal("expected 'add' to be marked exported (wrapped in export_statement)")
	}
	if fn.SignatureHash == "" {
		t.Fatal("expected a non-empty signature hash")
	}
}

func TestExtractSkipsOverloadSignatureKeepsImplementation(t *testing.T) {
	src := `
function greet(name: string): string;
function greet(name: string, loud: boolean): string;
function greet(name: string, loud?: boolean): string {
	return name;
}
`
	syms := parseAndExtract(t, "/repo/b.ts", src)

	count := 0
	for _, s := range syms {
		if s.QualifiedName == "greet" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one 'greet' symbol (implementation only), got %d", count)
	}
}

func TestExtractClassWithMembers(t *testing.T) {
	src := `
export class Widget extends Base implements IFoo, IBar {
	count: number;
	private name: string;

	render(): void {
		return;
	}
}
`
	syms := parseAndExtract(t, "/repo/c.ts", src)

	class := byName(syms, "Widget")
	if class == nil || class.Kind != KindClass {
		t.Fatalf("expected to find class 'Widget', got %+v", syms)
	}
	if !class.Exported {
		t.Fatal("expected 'Widget' to be exported")
	}

	method := byName(syms, "Widget.render")
	if method == nil || method.Kind != KindMethod {
		t.Fatalf("expected to find method 'Widget.render', got %+v", syms)
	}
	if method.ParentID != class.ID {
		t.Fatalf("expected render's parent id to be the class id %q, got %q", class.ID, method.ParentID)
	}
	if !method.Exported {
		t.Fatal("expected method to inherit the exported flag from its class")
	}

	field := byName(syms, "Widget.count")
	if field == nil || field.Kind != KindProperty {
		t.Fatalf("expected to find property 'Widget.count', got %+v", syms)
	}
}

func TestExtractInterfaceMembers(t *testing.T) {
	src := `
export interface Shape {
	area(): number;
	sides: number;
}
`
	syms := parseAndExtract(t, "/repo/d.ts", src)
	iface := byName(syms, "Shape")
	if iface == nil || iface.Kind != KindInterface {
		t.Fatalf("expected to find interface 'Shape', got %+v", syms)
	}
	if iface.SignatureHash == "" {
		t.Fatal("expected a non-empty signature hash for the interface")
	}
}

func TestExtractEnumMembers(t *testing.T) {
	src := `
export enum Color {
	Red,
	Green = "green",
}
`
	syms := parseAndExtract(t, "/repo/e.ts", src)
	en := byName(syms, "Color")
	if en == nil || en.Kind != KindEnum {
		t.Fatalf("expected to find enum 'Color', got %+v", syms)
	}
}

func TestExtractNamespaceRecursesIntoChildren(t *testing.T) {
	src := `
namespace Util {
	export function helper(): void {}
}
`
	syms := parseAndExtract(t, "/repo/f.ts", src)
	fn := byName(syms, "Util.helper")
	if fn == nil {
		t.Fatalf("expected to find namespaced function 'Util.helper', got %+v", syms)
	}
}

func TestExtractTypeAliasDeclaration(t *testing.T) {
	src := `export type ID = string | number;`
	syms := parseAndExtract(t, "/repo/g.ts", src)
	alias := byName(syms, "ID")
	if alias == nil || alias.Kind != KindTypeAlias {
		t.Fatalf("expected to find type alias 'ID', got %+v", syms)
	}
}

func TestExtractFromFixtureFile(t *testing.T) {
	src, err := os.ReadFile("../../testdata/typescript/sample.ts")
	if err != nil {
		t.Fatalf("reading fixture: %v", err)
	}
	syms := parseAndExtract(t, "/repo/sample.ts", string(src))

	for _, want := range []string{"Shape", "Circle", "Circle.radius", "Circle.area", "computeArea", "ShapeKind"} {
		if byName(syms, want) == nil {
			t.Errorf("expected to find symbol %q in fixture, got %+v", want, syms)
		}
	}
}

func TestExtractAnonymousDeclarationsAreSkipped(t *testing.T) {
	// A bare expression statement declares nothing named; it must not
	// produce a symbol.
	src := `doSomething();`
	syms := parseAndExtract(t, "/repo/h.ts", src)
	if len(syms) != 0 {
		t.Fatalf("expected no symbols from an anonymous expression statement, got %+v", syms)
	}
}
