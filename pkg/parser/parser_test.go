package parser

import (
	"os"
	"path/filepath"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
)

func TestNew(t *testing.T) {
	p := New()
	if p == nil {
		t.Fatal("New() returned nil")
	}
	if p.parser == nil {
		t.Error("parser field is nil")
	}
	p.Close()
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		path string
		want Language
	}{
		{"main.c", LangC},
		{"MAIN.C", LangC},
		{"header.h", LangCPP},
		{"main.cpp", LangCPP},
		{"main.cc", LangCPP},
		{"main.cxx", LangCPP},
		{"header.hpp", LangCPP},
		{"header.hxx", LangCPP},
		{"header.hh", LangCPP},
		{"impl.inl", LangCPP},
		{"main.go", LangUnknown},
		{"README.md", LangUnknown},
		{"Makefile", LangUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := DetectLanguage(tt.path); got != tt.want {
				t.Errorf("DetectLanguage(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestIsHeader(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"a.h", true},
		{"a.hpp", true},
		{"a.hxx", true},
		{"a.hh", true},
		{"a.cpp", false},
		{"a.c", false},
	}
	for _, tt := range tests {
		if got := IsHeader(tt.path); got != tt.want {
			t.Errorf("IsHeader(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestGetTreeSitterLanguage(t *testing.T) {
	for _, lang := range []Language{LangC, LangCPP} {
		tsLang, err := GetTreeSitterLanguage(lang)
		if err != nil {
			t.Errorf("GetTreeSitterLanguage(%v) error: %v", lang, err)
		}
		if tsLang == nil {
			t.Errorf("GetTreeSitterLanguage(%v) returned nil", lang)
		}
	}

	if _, err := GetTreeSitterLanguage(LangUnknown); err == nil {
		t.Error("GetTreeSitterLanguage(LangUnknown) should return error")
	}
}

func TestParse(t *testing.T) {
	p := New()
	defer p.Close()

	source := "namespace N { struct S { void f(); }; }\n"
	result, err := p.Parse([]byte(source), LangCPP, "n.cpp")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if result.Tree == nil {
		t.Fatal("Parse() returned nil tree")
	}
	if got := result.Tree.RootNode().Type(); got != "translation_unit" {
		t.Errorf("root type = %q, want translation_unit", got)
	}
	if result.Language != LangCPP {
		t.Errorf("Language = %v, want %v", result.Language, LangCPP)
	}
}

func TestParseFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "hello.cpp")
	if err := os.WriteFile(path, []byte("void hello() {}\n"), 0644); err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}

	p := New()
	defer p.Close()

	result, err := p.ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile() error: %v", err)
	}
	if result.Path != path {
		t.Errorf("result.Path = %v, want %v", result.Path, path)
	}
}

func TestParseFileErrors(t *testing.T) {
	p := New()
	defer p.Close()

	if _, err := p.ParseFile("/nonexistent/path/file.cpp"); err == nil {
		t.Error("ParseFile() should return error for non-existent file")
	}

	tmpDir := t.TempDir()
	txtFile := filepath.Join(tmpDir, "test.txt")
	if err := os.WriteFile(txtFile, []byte("hello"), 0644); err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	if _, err := p.ParseFile(txtFile); err == nil {
		t.Error("ParseFile() should return error for unsupported language")
	}
}

func TestWalk(t *testing.T) {
	p := New()
	defer p.Close()

	result, err := p.Parse([]byte("int main() { int x = 1; return x; }\n"), LangCPP, "main.cpp")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	count := 0
	Walk(result.Tree.RootNode(), result.Source, func(node *sitter.Node, source []byte) bool {
		count++
		return true
	})
	if count == 0 {
		t.Error("Walk() visited no nodes")
	}

	found := make(map[string]bool)
	WalkTyped(result.Tree.RootNode(), result.Source, func(node *sitter.Node, nodeType string, source []byte) bool {
		found[nodeType] = true
		return true
	})
	for _, expected := range []string{"translation_unit", "function_definition", "return_statement"} {
		if !found[expected] {
			t.Errorf("Expected node type %q not found", expected)
		}
	}
}

func TestWalkNil(t *testing.T) {
	Walk(nil, nil, func(node *sitter.Node, source []byte) bool {
		t.Error("Visitor should not be called for nil node")
		return true
	})
	WalkTyped(nil, nil, func(node *sitter.Node, nodeType string, source []byte) bool {
		t.Error("Visitor should not be called for nil node")
		return true
	})
}

func nodesOfType(root *sitter.Node, source []byte, nodeType string) []*sitter.Node {
	var nodes []*sitter.Node
	WalkTyped(root, source, func(n *sitter.Node, typ string, _ []byte) bool {
		if typ == nodeType {
			nodes = append(nodes, n)
		}
		return true
	})
	return nodes
}

func TestFindByRange(t *testing.T) {
	p := New()
	defer p.Close()

	source := "void one() {}\nvoid two() {}\nvoid three() {}\n"
	result, err := p.Parse([]byte(source), LangCPP, "f.cpp")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	defs := nodesOfType(result.Tree.RootNode(), result.Source, "function_definition")
	if len(defs) != 3 {
		t.Fatalf("Found %d function_definition nodes, expected 3", len(defs))
	}

	second := defs[1]
	got := FindByRange(result.Tree.RootNode(), "function_definition", second.StartByte(), second.EndByte())
	if got == nil {
		t.Fatal("FindByRange() returned nil")
	}
	if text := GetNodeText(got, result.Source); text != "void two() {}" {
		t.Errorf("FindByRange() text = %q, want %q", text, "void two() {}")
	}

	if FindByRange(result.Tree.RootNode(), "class_specifier", second.StartByte(), second.EndByte()) != nil {
		t.Error("FindByRange() should not match a different node type")
	}
}

func TestGetNodeText(t *testing.T) {
	p := New()
	defer p.Close()

	result, err := p.Parse([]byte("struct S {};\n"), LangCPP, "s.cpp")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	specs := nodesOfType(result.Tree.RootNode(), result.Source, "struct_specifier")
	if len(specs) == 0 {
		t.Fatal("No struct specifiers found")
	}
	if text := GetNodeText(specs[0], result.Source); text != "struct S {}" {
		t.Errorf("GetNodeText() = %q, want %q", text, "struct S {}")
	}
	if GetNodeText(nil, result.Source) != "" {
		t.Error("GetNodeText(nil) should be empty")
	}
}
