// Package ast defines the read-only view of a parsed C++ translation unit
// that the scope tree builder consumes.
//
// The parser itself is external. A Provider turns a source file into a
// TranslationUnit whose nodes expose a kind, their children, a file location,
// and (for named constructs) a Name that resolves to a Binding. Bindings are
// canonicalised through the translation unit's Index.
//
// Usage:
//
//	provider := treesitter.New()
//	defer provider.Close()
//
//	tu, err := provider.Parse("widget.cpp")
//	if err != nil {
//	    return err
//	}
//
//	for _, child := range tu.Children() {
//	    fmt.Printf("%s at offset %d\n", child.Kind(), child.FileLocation().Offset)
//	}
package ast
