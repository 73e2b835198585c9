package treesitter

import (
	"sort"
	"strings"

	"github.com/panbanda/metriculator/pkg/ast"
)

// binding identifies a declared entity by its lexical scope, its name as
// written and, for functions, its parameter types.
type binding struct {
	scope  []string
	name   string
	suffix string
	key    string
}

func newBinding(scope []string, text, suffix string) *binding {
	b := &binding{
		scope:  append([]string(nil), scope...),
		name:   text,
		suffix: suffix,
	}
	if strings.HasPrefix(text, "::") {
		b.scope = nil
		b.name = strings.TrimPrefix(text, "::")
	}
	b.key = qualify(b.scope, b.name) + suffix
	return b
}

// Key implements ast.Binding.
func (b *binding) Key() string { return b.key }

// qualified reports whether the name as written carries a qualifier, as in
// an out-of-line definition `void N::S::f() {}`.
func (b *binding) qualified() bool {
	return strings.Contains(b.name, "::")
}

func qualify(scope []string, text string) string {
	if len(scope) == 0 {
		return text
	}
	return strings.Join(scope, "::") + "::" + text
}

// Index holds the canonical bindings of one translation unit. It is filled
// while converting the unit, before any lookup happens. Only unqualified
// declarations are canonical; a qualified name is resolved by retrying its
// key with enclosing scopes stripped from the inside out.
type Index struct {
	keys map[string]struct{}
}

// Ensure Index implements ast.Index.
var _ ast.Index = (*Index)(nil)

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{keys: make(map[string]struct{})}
}

func (idx *Index) add(b *binding) {
	if b == nil || b.qualified() {
		return
	}
	idx.keys[b.key] = struct{}{}
}

// Has reports whether key is a canonical binding.
func (idx *Index) Has(key string) bool {
	_, ok := idx.keys[key]
	return ok
}

// Len returns the number of canonical bindings.
func (idx *Index) Len() int { return len(idx.keys) }

// Keys returns the canonical binding keys in sorted order.
func (idx *Index) Keys() []string {
	keys := make([]string, 0, len(idx.keys))
	for k := range idx.keys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// AdaptBinding implements ast.Index.
func (idx *Index) AdaptBinding(b ast.Binding) ast.Binding {
	local, ok := b.(*binding)
	if !ok || idx == nil {
		return nil
	}
	for i := len(local.scope); i >= 0; i-- {
		key := qualify(local.scope[:i], local.name) + local.suffix
		if idx.Has(key) {
			return &binding{scope: local.scope[:i], name: local.name, suffix: local.suffix, key: key}
		}
	}
	return nil
}
