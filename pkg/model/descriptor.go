package model

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/panbanda/metriculator/pkg/ast"
)

// ErrMalformedLocation is returned when an AST node carries no file location.
var ErrMalformedLocation = errors.New("node has no file location")

// ErrUnsupportedNode is returned when describing an AST node kind that never
// becomes a scope.
var ErrUnsupportedNode = errors.New("unsupported node kind")

// Role is the single AST role a descriptor describes.
type Role uint8

const (
	RoleSynthetic Role = iota
	RoleTranslationUnit
	RoleHeaderUnit
	RoleNamespace
	RoleFunctionDeclarator
	RoleFunctionDefinition
	RoleElaboratedType
	RoleCompositeType
	RoleMember
)

var roleNames = [...]string{
	RoleSynthetic:          "synthetic",
	RoleTranslationUnit:    "translation_unit",
	RoleHeaderUnit:         "header_unit",
	RoleNamespace:          "namespace",
	RoleFunctionDeclarator: "function_declarator",
	RoleFunctionDefinition: "function_definition",
	RoleElaboratedType:     "elaborated_type",
	RoleCompositeType:      "composite_type",
	RoleMember:             "member",
}

func (r Role) String() string {
	if int(r) < len(roleNames) {
		return roleNames[r]
	}
	return "unknown"
}

// Descriptor is an immutable snapshot of the identity and location facts of
// the AST node a scope was created from.
type Descriptor struct {
	filePath  string
	offset    int
	length    int
	startLine int
	endLine   int
	friend    bool
	role      Role
	typeKey   int
	binding   ast.Binding
	identity  string
}

// Describe snapshots n. Names are resolved through the translation unit's
// index; see ast.ResolveCanonicalBinding.
func Describe(n ast.Node) (Descriptor, error) {
	loc := n.FileLocation()
	if loc == nil {
		return Descriptor{}, fmt.Errorf("%w: %s %s", ErrMalformedLocation, n.Kind(), n.IdentityToken())
	}

	d := Descriptor{
		offset:    loc.Offset,
		length:    loc.Length,
		startLine: loc.StartLine,
		endLine:   loc.EndLine,
		identity:  n.IdentityToken(),
	}
	tu := n.TranslationUnit()
	if tu != nil {
		d.filePath = tu.FilePath()
	}

	switch n.Kind() {
	case ast.KindTranslationUnit:
		d.role = RoleTranslationUnit
		if tu != nil && tu.IsHeaderUnit() {
			d.role = RoleHeaderUnit
		}
	case ast.KindNamespaceDefinition:
		d.role = RoleNamespace
	case ast.KindFunctionDefinition:
		d.role = RoleFunctionDefinition
		if def, ok := n.(ast.FunctionDefinition); ok {
			d.friend = def.IsFriend()
			if decl := def.Declarator(); decl != nil {
				d.binding = ast.ResolveCanonicalBinding(decl.Name(), tu)
			}
		}
	case ast.KindFunctionDeclarator:
		d.role = RoleFunctionDeclarator
		if decl, ok := n.(ast.FunctionDeclarator); ok {
			d.friend = decl.IsFriend()
			d.binding = ast.ResolveCanonicalBinding(decl.Name(), tu)
		}
	case ast.KindCompositeTypeSpecifier, ast.KindElaboratedTypeSpecifier:
		d.role = RoleCompositeType
		if n.Kind() == ast.KindElaboratedTypeSpecifier {
			d.role = RoleElaboratedType
		}
		if spec, ok := n.(ast.TypeSpecifier); ok {
			d.typeKey = spec.TypeKey()
			d.friend = spec.IsFriend()
			d.binding = ast.ResolveCanonicalBinding(spec.Name(), tu)
		}
	case ast.KindDeclarator:
		d.role = RoleMember
	default:
		return Descriptor{}, fmt.Errorf("%w: %s", ErrUnsupportedNode, n.Kind())
	}
	return d, nil
}

// Synthetic returns a descriptor for a scope that has no AST node, such as a
// workspace root.
func Synthetic(identity string) Descriptor {
	return Descriptor{role: RoleSynthetic, identity: identity}
}

func (d Descriptor) FilePath() string     { return d.filePath }
func (d Descriptor) Offset() int          { return d.offset }
func (d Descriptor) Length() int          { return d.length }
func (d Descriptor) StartLine() int       { return d.startLine }
func (d Descriptor) EndLine() int         { return d.endLine }
func (d Descriptor) IsFriend() bool       { return d.friend }
func (d Descriptor) Role() Role           { return d.role }
func (d Descriptor) TypeKey() int         { return d.typeKey }
func (d Descriptor) Binding() ast.Binding { return d.binding }
func (d Descriptor) Identity() string     { return d.identity }

func (d Descriptor) IsFunctionDeclarator() bool { return d.role == RoleFunctionDeclarator }
func (d Descriptor) IsFunctionDefinition() bool { return d.role == RoleFunctionDefinition }
func (d Descriptor) IsElaboratedType() bool     { return d.role == RoleElaboratedType }
func (d Descriptor) IsCompositeType() bool      { return d.role == RoleCompositeType }
func (d Descriptor) IsHeaderUnit() bool         { return d.role == RoleHeaderUnit }

// IsFunction reports whether d describes a function declarator or definition.
func (d Descriptor) IsFunction() bool {
	return d.role == RoleFunctionDeclarator || d.role == RoleFunctionDefinition
}

// Equal reports whether d and other describe the same declaration: identity,
// role, binding, file path, type key, offset and length all match.
func (d Descriptor) Equal(other Descriptor) bool {
	return d.identity == other.identity &&
		d.role == other.role &&
		ast.SameBinding(d.binding, other.binding) &&
		d.filePath == other.filePath &&
		d.typeKey == other.typeKey &&
		d.offset == other.offset &&
		d.length == other.length
}

type descriptorJSON struct {
	File      string `json:"file,omitempty"`
	Role      string `json:"role"`
	Offset    int    `json:"offset"`
	Length    int    `json:"length"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	Friend    bool   `json:"friend,omitempty"`
	TypeKey   string `json:"type_key,omitempty"`
	Binding   string `json:"binding,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (d Descriptor) MarshalJSON() ([]byte, error) {
	out := descriptorJSON{
		File:      d.filePath,
		Role:      d.role.String(),
		Offset:    d.offset,
		Length:    d.length,
		StartLine: d.startLine,
		EndLine:   d.endLine,
		Friend:    d.friend,
	}
	if d.role == RoleCompositeType || d.role == RoleElaboratedType {
		out.TypeKey = ast.TypeKeyName(d.typeKey)
	}
	if d.binding != nil {
		out.Binding = d.binding.Key()
	}
	return json.Marshal(out)
}
