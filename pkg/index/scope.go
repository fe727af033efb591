package index

import (
	"fmt"

	"hxinfer/pkg/parser"
	"hxinfer/pkg/types"
)

// SymbolKind tells what a name was bound to.
type SymbolKind int

const (
	SymLocal SymbolKind = iota
	SymParameter
	SymLoopVariable
	SymCapture
	SymLocalFunction
	SymField
	SymMethod
	SymClass
	SymEnumConstructor
)

func (k SymbolKind) String() string {
	switch k {
	case SymParameter:
		return "parameter"
	case SymLoopVariable:
		return "loop variable"
	case SymCapture:
		return "capture"
	case SymLocalFunction:
		return "local function"
	case SymField:
		return "field"
	case SymMethod:
		return "method"
	case SymClass:
		return "class"
	case SymEnumConstructor:
		return "enum constructor"
	}
	return "local"
}

// Symbol is the declaration a name resolves to. Decl is the declaring
// syntax node; the model fields are set according to Kind.
type Symbol struct {
	Kind SymbolKind
	Name string
	Decl parser.Node

	Class    *types.ClassModel // SymClass, and the owner of members
	Field    *types.FieldModel
	Method   *types.MethodModel
	EnumCtor *types.EnumConstructor
	Param    *types.ParameterModel // method parameters only
}

func (s *Symbol) String() string { return fmt.Sprintf("%s %s", s.Kind, s.Name) }

// Scope maps names to symbols within one lexical block.
type Scope struct {
	symbols map[string]*Symbol
	outer   *Scope
	// typeParams are the type parameters visible to annotations inside
	// the scope.
	typeParams []*types.TypeParameter
}

// NewScope creates a scope nested within outer, which may be nil.
func NewScope(outer *Scope) *Scope {
	return &Scope{symbols: make(map[string]*Symbol), outer: outer}
}

// Define binds a name in this scope. A later definition shadows an earlier
// one, as redeclaring a local does in the language.
func (s *Scope) Define(sym *Symbol) {
	debugPrintf("// [Scope] define %s\n", sym)
	s.symbols[sym.Name] = sym
}

// Lookup finds a name in this scope or its enclosing scopes.
func (s *Scope) Lookup(name string) (*Symbol, bool) {
	for cur := s; cur != nil; cur = cur.outer {
		if sym, ok := cur.symbols[name]; ok {
			return sym, true
		}
	}
	return nil, false
}

// DefineTypeParam makes a type parameter visible to annotations.
func (s *Scope) DefineTypeParam(p *types.TypeParameter) {
	s.typeParams = append(s.typeParams, p)
}

// TypeParam finds a type parameter visible from this scope.
func (s *Scope) TypeParam(name string) (*types.TypeParameter, bool) {
	for cur := s; cur != nil; cur = cur.outer {
		for _, p := range cur.typeParams {
			if p.Name == name {
				return p, true
			}
		}
	}
	return nil, false
}

// TypeParams lists every visible type parameter, outermost first. An inner
// parameter hides an outer one of the same name.
func (s *Scope) TypeParams() []*types.TypeParameter {
	seen := make(map[string]bool)
	var inner []*types.TypeParameter
	for cur := s; cur != nil; cur = cur.outer {
		for i := len(cur.typeParams) - 1; i >= 0; i-- {
			p := cur.typeParams[i]
			if !seen[p.Name] {
				seen[p.Name] = true
				inner = append(inner, p)
			}
		}
	}
	out := make([]*types.TypeParameter, len(inner))
	for i, p := range inner {
		out[len(inner)-1-i] = p
	}
	return out
}
