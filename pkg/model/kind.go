package model

// Kind is the variant of a scope tree node.
type Kind uint8

const (
	KindWorkspace Kind = iota
	KindFile
	KindNamespace
	KindCompositeType
	KindFunctionDecl
	KindFunctionDef
	KindMember
)

var kindNames = [...]string{
	KindWorkspace:     "workspace",
	KindFile:          "file",
	KindNamespace:     "namespace",
	KindCompositeType: "composite_type",
	KindFunctionDecl:  "function_decl",
	KindFunctionDef:   "function_def",
	KindMember:        "member",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsFunction reports whether k is a function declaration or definition.
func (k Kind) IsFunction() bool {
	return k == KindFunctionDecl || k == KindFunctionDef
}

// IsMember reports whether k belongs to an enclosing type as a member.
// Functions are members.
func (k Kind) IsMember() bool {
	return k == KindMember || k.IsFunction()
}

// IsRoot reports whether k is only ever used for caller-supplied roots.
func (k Kind) IsRoot() bool {
	return k == KindWorkspace || k == KindFile
}

// ParseKind returns the kind named s.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return Kind(k), true
		}
	}
	return 0, false
}
