package checker

import (
	"hxinfer/pkg/index"
	"hxinfer/pkg/parser"
	"hxinfer/pkg/types"
)

// Program is what the evaluator needs from the indexed sources: name
// resolution, usage search and the declaration models. *index.Index
// implements it.
type Program interface {
	Std() *types.Std

	// Resolve returns the declaration an identifier refers to, or nil.
	Resolve(ident *parser.Identifier) *index.Symbol
	// SymbolOf returns the symbol a declaration node introduces.
	SymbolOf(decl parser.Node) *index.Symbol
	// Search lists the references to decl inside scope, in source order.
	Search(decl parser.Node, scope parser.Node) []*parser.Identifier

	TypeOf(t parser.TypeNode) types.Type
	Usings(n parser.Node) []*types.ClassModel

	ClassModel(decl parser.Declaration) *types.ClassModel
	MethodModel(decl *parser.MethodDeclaration) *types.MethodModel
	FieldModel(decl *parser.FieldDeclaration) *types.FieldModel
	EnumConstructor(decl *parser.EnumConstructorDeclaration) *types.EnumConstructor
	ParameterModel(decl *parser.Parameter) *types.ParameterModel

	EnclosingClass(n parser.Node) *types.ClassModel
	EnclosingMethod(n parser.Node) *types.MethodModel
}

var _ Program = (*index.Index)(nil)
