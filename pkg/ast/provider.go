package ast

import (
	"errors"
)

// ErrUnsupportedLanguage is returned when parsing a file that is not C or C++.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Language represents a source language accepted by a provider.
type Language string

const (
	LangC       Language = "c"
	LangCPP     Language = "cpp"
	LangUnknown Language = "unknown"
)

func (l Language) String() string { return string(l) }

// Provider abstracts the external parser that produces translation units.
type Provider interface {
	// Parse parses a file and returns its translation unit.
	Parse(path string) (TranslationUnit, error)

	// ParseSource parses in-memory content as if it were read from path.
	ParseSource(path string, source []byte) (TranslationUnit, error)

	// Language returns the detected language for a file path.
	Language(path string) Language

	// Close releases provider resources.
	Close()
}

// ResolveCanonicalBinding resolves name locally and adapts the result to the
// translation unit's index. The local binding is returned when the index has
// no canonical counterpart. Returns nil for a nil name or an unresolvable one.
func ResolveCanonicalBinding(name Name, tu TranslationUnit) Binding {
	if name == nil {
		return nil
	}
	local := name.ResolveBinding()
	if local == nil {
		return nil
	}
	if tu == nil {
		return local
	}
	idx := tu.Index()
	if idx == nil {
		return local
	}
	if canonical := idx.AdaptBinding(local); canonical != nil {
		return canonical
	}
	return local
}

// SameBinding reports whether two possibly-nil bindings denote the same entity.
func SameBinding(a, b Binding) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Key() == b.Key()
}
