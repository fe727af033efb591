package parser

import (
	"bytes"
	"strconv"
	"strings"

	"hxinfer/pkg/lexer"
	"hxinfer/pkg/source"
)

// --- Interfaces ---

// Node is the base interface for all AST nodes.
type Node interface {
	TokenLiteral() string // Returns the literal value of the token associated with the node
	String() string       // Returns a string representation of the node (for debugging)
	Range() source.TextRange
	Parent() Node

	setParent(Node)
	setRange(source.TextRange)
}

// Expression represents an expression node. Statements are expressions too.
type Expression interface {
	Node
	expressionNode()
}

// Declaration is a module level type declaration.
type Declaration interface {
	Node
	DeclName() string
	declarationNode()
}

// Member is a field or method of a class-like declaration.
type Member interface {
	Node
	MemberName() string
	memberNode()
}

// TypeNode is a syntactic type annotation.
type TypeNode interface {
	Node
	typeNode()
}

// base carries what every node has: its first token, its source span and a
// link to the enclosing node.
type base struct {
	Token  lexer.Token
	Span   source.TextRange
	parent Node
}

func (b *base) TokenLiteral() string        { return b.Token.Literal }
func (b *base) Range() source.TextRange     { return b.Span }
func (b *base) Parent() Node                { return b.parent }
func (b *base) setParent(n Node)            { b.parent = n }
func (b *base) setRange(r source.TextRange) { b.Span = r }

// expr is the base of every expression node.
type expr struct{ base }

func (e *expr) expressionNode() {}

func tokenRange(t lexer.Token) source.TextRange {
	return source.TextRange{Start: t.StartPos, End: t.EndPos}
}

// --- File ---

// File is the root node of one parsed source file.
type File struct {
	base
	Package []string
	Imports []*ImportDeclaration
	Usings  []*UsingDeclaration
	Decls   []Declaration
	Source  *source.SourceFile
}

func (f *File) PackageName() string { return strings.Join(f.Package, ".") }

func (f *File) String() string {
	var out bytes.Buffer
	if len(f.Package) > 0 {
		out.WriteString("package " + f.PackageName() + ";\n")
	}
	for _, i := range f.Imports {
		out.WriteString(i.String() + "\n")
	}
	for _, u := range f.Usings {
		out.WriteString(u.String() + "\n")
	}
	for _, d := range f.Decls {
		out.WriteString(d.String() + "\n")
	}
	return out.String()
}

// ImportDeclaration is `import a.b.C;`, `import a.b.C as D;` or `import a.b.*;`.
type ImportDeclaration struct {
	base
	Path     []string
	Alias    string
	Wildcard bool
}

func (i *ImportDeclaration) String() string {
	s := "import " + strings.Join(i.Path, ".")
	if i.Wildcard {
		s += ".*"
	}
	if i.Alias != "" {
		s += " as " + i.Alias
	}
	return s + ";"
}

// UsingDeclaration brings the static methods of a class in as extensions.
type UsingDeclaration struct {
	base
	Path []string
}

func (u *UsingDeclaration) String() string { return "using " + strings.Join(u.Path, ".") + ";" }

// Metadata is `@:name` or `@:name(args)`.
type Metadata struct {
	base
	Name string // including the leading ':' when present
	Args []Expression
}

func (m *Metadata) String() string {
	if len(m.Args) == 0 {
		return "@" + m.Name
	}
	return "@" + m.Name + "(" + joinNodes(m.Args, ", ") + ")"
}

// Modifiers of a class member.
type Modifiers struct {
	Static, Override, Macro, Inline, Public, Private, Dynamic, Extern bool
}

func (m Modifiers) String() string {
	var parts []string
	for _, f := range []struct {
		on   bool
		name string
	}{
		{m.Public, "public"}, {m.Private, "private"}, {m.Static, "static"}, {m.Override, "override"},
		{m.Inline, "inline"}, {m.Dynamic, "dynamic"}, {m.Macro, "macro"}, {m.Extern, "extern"},
	} {
		if f.on {
			parts = append(parts, f.name)
		}
	}
	return strings.Join(parts, " ")
}

// --- Declarations ---

type ClassKind int

const (
	ClassKindClass ClassKind = iota
	ClassKindInterface
	ClassKindAbstract
)

// ClassDeclaration covers classes, interfaces and abstracts.
type ClassDeclaration struct {
	base
	Kind       ClassKind
	Name       *Identifier
	TypeParams []*TypeParameter
	Extends    []*TypeReference
	Implements []*TypeReference
	Members    []Member
	Meta       []*Metadata
	Extern     bool
	Private    bool

	// Abstract only.
	Underlying TypeNode
	From       []TypeNode
	To         []TypeNode
	EnumLike   bool // enum abstract
}

func (c *ClassDeclaration) declarationNode() {}
func (c *ClassDeclaration) DeclName() string { return c.Name.Value }
func (c *ClassDeclaration) String() string {
	var out bytes.Buffer
	switch c.Kind {
	case ClassKindInterface:
		out.WriteString("interface ")
	case ClassKindAbstract:
		out.WriteString("abstract ")
	default:
		out.WriteString("class ")
	}
	out.WriteString(c.Name.Value)
	out.WriteString(typeParamsString(c.TypeParams))
	if c.Underlying != nil {
		out.WriteString("(" + c.Underlying.String() + ")")
	}
	for _, e := range c.Extends {
		out.WriteString(" extends " + e.String())
	}
	for _, i := range c.Implements {
		out.WriteString(" implements " + i.String())
	}
	out.WriteString(" {\n")
	for _, m := range c.Members {
		out.WriteString("\t" + m.String() + "\n")
	}
	out.WriteString("}")
	return out.String()
}

// EnumDeclaration is an algebraic enum.
type EnumDeclaration struct {
	base
	Name         *Identifier
	TypeParams   []*TypeParameter
	Constructors []*EnumConstructorDeclaration
	Meta         []*Metadata
}

func (e *EnumDeclaration) declarationNode() {}
func (e *EnumDeclaration) DeclName() string { return e.Name.Value }
func (e *EnumDeclaration) String() string {
	var out bytes.Buffer
	out.WriteString("enum " + e.Name.Value + typeParamsString(e.TypeParams) + " {")
	for _, c := range e.Constructors {
		out.WriteString(" " + c.String())
	}
	out.WriteString(" }")
	return out.String()
}

// EnumConstructorDeclaration is one constructor of an enum, with or without
// arguments.
type EnumConstructorDeclaration struct {
	base
	Name    *Identifier
	Params  []*Parameter
	HasArgs bool
}

func (e *EnumConstructorDeclaration) String() string {
	if !e.HasArgs {
		return e.Name.Value + ";"
	}
	return e.Name.Value + "(" + joinParams(e.Params) + ");"
}

// TypedefDeclaration names a type.
type TypedefDeclaration struct {
	base
	Name       *Identifier
	TypeParams []*TypeParameter
	Type       TypeNode
	Meta       []*Metadata
}

func (t *TypedefDeclaration) declarationNode() {}
func (t *TypedefDeclaration) DeclName() string { return t.Name.Value }
func (t *TypedefDeclaration) String() string {
	return "typedef " + t.Name.Value + typeParamsString(t.TypeParams) + " = " + nodeString(t.Type) + ";"
}

// FieldDeclaration is a `var` or `final` member.
type FieldDeclaration struct {
	base
	Name      *Identifier
	Type      TypeNode
	Init      Expression
	Final     bool
	Modifiers Modifiers
	Meta      []*Metadata
}

func (f *FieldDeclaration) memberNode()        {}
func (f *FieldDeclaration) MemberName() string { return f.Name.Value }
func (f *FieldDeclaration) String() string {
	var out bytes.Buffer
	if mods := f.Modifiers.String(); mods != "" {
		out.WriteString(mods + " ")
	}
	if f.Final {
		out.WriteString("final ")
	} else {
		out.WriteString("var ")
	}
	out.WriteString(f.Name.Value)
	if f.Type != nil {
		out.WriteString(":" + f.Type.String())
	}
	if f.Init != nil {
		out.WriteString(" = " + f.Init.String())
	}
	out.WriteString(";")
	return out.String()
}

// MethodDeclaration is a `function` member, including the constructor `new`.
type MethodDeclaration struct {
	base
	Name       *Identifier
	TypeParams []*TypeParameter
	Params     []*Parameter
	ReturnType TypeNode
	Body       Expression // nil for interface and extern members
	Modifiers  Modifiers
	Meta       []*Metadata
}

func (m *MethodDeclaration) memberNode()        {}
func (m *MethodDeclaration) MemberName() string { return m.Name.Value }

// HasMeta reports whether the method carries the given metadata name.
func (m *MethodDeclaration) HasMeta(name string) bool { return hasMeta(m.Meta, name) }

func (m *MethodDeclaration) String() string {
	var out bytes.Buffer
	if mods := m.Modifiers.String(); mods != "" {
		out.WriteString(mods + " ")
	}
	out.WriteString("function " + m.Name.Value + typeParamsString(m.TypeParams))
	out.WriteString("(" + joinParams(m.Params) + ")")
	if m.ReturnType != nil {
		out.WriteString(":" + m.ReturnType.String())
	}
	if m.Body != nil {
		out.WriteString(" " + m.Body.String())
	} else {
		out.WriteString(";")
	}
	return out.String()
}

// TypeParameter is a declared type parameter with an optional constraint.
type TypeParameter struct {
	base
	Name       *Identifier
	Constraint TypeNode
}

func (t *TypeParameter) String() string {
	if t.Constraint != nil {
		return t.Name.Value + ":" + t.Constraint.String()
	}
	return t.Name.Value
}

// Parameter is a function or method parameter.
type Parameter struct {
	base
	Name     *Identifier
	Optional bool // ?name
	Rest     bool // ...name
	Type     TypeNode
	Default  Expression
}

func (p *Parameter) String() string {
	var out bytes.Buffer
	if p.Rest {
		out.WriteString("...")
	}
	if p.Optional {
		out.WriteString("?")
	}
	out.WriteString(p.Name.Value)
	if p.Type != nil {
		out.WriteString(":" + p.Type.String())
	}
	if p.Default != nil {
		out.WriteString(" = " + p.Default.String())
	}
	return out.String()
}

// --- Type Nodes ---

// TypeReference is a dotted type path with optional type arguments.
type TypeReference struct {
	base
	Path   []string // package parts followed by the type name
	Params []TypeNode
}

func (t *TypeReference) typeNode() {}

// Name is the last path element.
func (t *TypeReference) Name() string { return t.Path[len(t.Path)-1] }

// Pack is the package part of the path.
func (t *TypeReference) Pack() string { return strings.Join(t.Path[:len(t.Path)-1], ".") }

func (t *TypeReference) String() string {
	s := strings.Join(t.Path, ".")
	if len(t.Params) > 0 {
		s += "<" + joinNodes(t.Params, ", ") + ">"
	}
	return s
}

// FunctionTypeArgument is one argument of a function type.
type FunctionTypeArgument struct {
	Name     string
	Optional bool
	Type     TypeNode
}

// FunctionType is `A -> B -> C` or `(a:A, ?b:B) -> C`.
type FunctionType struct {
	base
	Args   []FunctionTypeArgument
	Return TypeNode
}

func (f *FunctionType) typeNode() {}
func (f *FunctionType) String() string {
	parts := make([]string, len(f.Args))
	for i, a := range f.Args {
		s := ""
		if a.Optional {
			s = "?"
		}
		if a.Name != "" {
			s += a.Name + ":"
		}
		parts[i] = s + nodeString(a.Type)
	}
	return "(" + strings.Join(parts, ", ") + ") -> " + nodeString(f.Return)
}

// AnonymousField is one member of an anonymous structure type.
type AnonymousField struct {
	base
	Name     *Identifier
	Optional bool
	Type     TypeNode
	Method   bool // declared as `function name(...):T;`
}

func (a *AnonymousField) String() string {
	s := a.Name.Value
	if a.Optional {
		s = "?" + s
	}
	return s + ":" + nodeString(a.Type)
}

// AnonymousType is `{ x:Int, ?y:String }`, optionally extending other
// structures with `> Base,`.
type AnonymousType struct {
	base
	Extends []*TypeReference
	Fields  []*AnonymousField
}

func (a *AnonymousType) typeNode() {}
func (a *AnonymousType) String() string {
	parts := make([]string, 0, len(a.Extends)+len(a.Fields))
	for _, e := range a.Extends {
		parts = append(parts, ">"+e.String())
	}
	for _, f := range a.Fields {
		parts = append(parts, f.String())
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}

// --- Expressions: literals and names ---

type Identifier struct {
	expr
	Value string
}

func (i *Identifier) String() string { return i.Value }

type IntegerLiteral struct {
	expr
	Value int64
}

func (il *IntegerLiteral) String() string { return il.Token.Literal }

type FloatLiteral struct {
	expr
	Value float64
}

func (fl *FloatLiteral) String() string { return fl.Token.Literal }

type StringLiteral struct {
	expr
	Value string
}

func (sl *StringLiteral) String() string { return strconv.Quote(sl.Value) }

type BooleanLiteral struct {
	expr
	Value bool
}

func (b *BooleanLiteral) String() string { return b.Token.Literal }

type NullLiteral struct{ expr }

func (n *NullLiteral) String() string { return "null" }

// RegexLiteral is `~/pattern/flags`.
type RegexLiteral struct {
	expr
	Pattern string
	Flags   string
}

func (r *RegexLiteral) String() string { return "~/" + r.Pattern + "/" + r.Flags }

type ThisExpression struct{ expr }

func (t *ThisExpression) String() string { return "this" }

type SuperExpression struct{ expr }

func (s *SuperExpression) String() string { return "super" }

// --- Expressions: composite literals ---

type ArrayLiteral struct {
	expr
	Elements []Expression
}

func (al *ArrayLiteral) String() string { return "[" + joinNodes(al.Elements, ", ") + "]" }

// ArrayComprehension is `[for (x in xs) f(x)]` or `[while (c) v]`. When the
// loop body yields `k => v` pairs the comprehension builds a map.
type ArrayComprehension struct {
	expr
	Loop  Expression
	IsMap bool
}

func (ac *ArrayComprehension) String() string { return "[" + nodeString(ac.Loop) + "]" }

// MapLiteral is `[k1 => v1, k2 => v2]`.
type MapLiteral struct {
	expr
	Keys   []Expression
	Values []Expression
}

func (ml *MapLiteral) String() string {
	parts := make([]string, len(ml.Keys))
	for i := range ml.Keys {
		parts[i] = ml.Keys[i].String() + " => " + ml.Values[i].String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// ObjectField is one `name: value` pair of an object literal.
type ObjectField struct {
	base
	Name  string
	Value Expression
}

func (of *ObjectField) String() string { return of.Name + ": " + nodeString(of.Value) }

type ObjectLiteral struct {
	expr
	Fields []*ObjectField
}

func (ol *ObjectLiteral) String() string {
	parts := make([]string, len(ol.Fields))
	for i, f := range ol.Fields {
		parts[i] = f.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// FunctionLiteral is an anonymous function, an arrow function or a named
// local function.
type FunctionLiteral struct {
	expr
	Name       *Identifier // nil when anonymous
	TypeParams []*TypeParameter
	Params     []*Parameter
	ReturnType TypeNode
	Body       Expression
	Arrow      bool
}

func (fl *FunctionLiteral) String() string {
	if fl.Arrow {
		return "(" + joinParams(fl.Params) + ") -> " + nodeString(fl.Body)
	}
	var out bytes.Buffer
	out.WriteString("function")
	if fl.Name != nil {
		out.WriteString(" " + fl.Name.Value)
	}
	out.WriteString(typeParamsString(fl.TypeParams))
	out.WriteString("(" + joinParams(fl.Params) + ")")
	if fl.ReturnType != nil {
		out.WriteString(":" + fl.ReturnType.String())
	}
	out.WriteString(" " + nodeString(fl.Body))
	return out.String()
}

// --- Expressions: access and calls ---

type CallExpression struct {
	expr
	Callee Expression
	Args   []Expression
	LParen lexer.Token
	RParen lexer.Token
}

// ArgsRange spans the parenthesized argument list.
func (ce *CallExpression) ArgsRange() source.TextRange {
	return source.TextRange{Start: ce.LParen.StartPos, End: ce.RParen.EndPos}
}

func (ce *CallExpression) String() string {
	return nodeString(ce.Callee) + "(" + joinNodes(ce.Args, ", ") + ")"
}

type NewExpression struct {
	expr
	Type   *TypeReference
	Args   []Expression
	LParen lexer.Token
	RParen lexer.Token
}

func (ne *NewExpression) ArgsRange() source.TextRange {
	return source.TextRange{Start: ne.LParen.StartPos, End: ne.RParen.EndPos}
}

func (ne *NewExpression) String() string {
	return "new " + nodeString(ne.Type) + "(" + joinNodes(ne.Args, ", ") + ")"
}

// MemberExpression is `target.field` or `target?.field`.
type MemberExpression struct {
	expr
	Object   Expression
	Property *Identifier
	Optional bool
}

func (me *MemberExpression) String() string {
	dot := "."
	if me.Optional {
		dot = "?."
	}
	return nodeString(me.Object) + dot + me.Property.Value
}

type IndexExpression struct {
	expr
	Left  Expression
	Index Expression
}

func (ie *IndexExpression) String() string {
	return nodeString(ie.Left) + "[" + nodeString(ie.Index) + "]"
}

// --- Expressions: operators ---

type InfixExpression struct {
	expr
	Left     Expression
	Operator string
	Right    Expression
}

func (ie *InfixExpression) String() string {
	return "(" + nodeString(ie.Left) + " " + ie.Operator + " " + nodeString(ie.Right) + ")"
}

type AssignmentExpression struct {
	expr
	Operator string // "=", "+=", ...
	Left     Expression
	Value    Expression
}

func (ae *AssignmentExpression) String() string {
	return nodeString(ae.Left) + " " + ae.Operator + " " + nodeString(ae.Value)
}

type PrefixExpression struct {
	expr
	Operator string // "-", "!", "~"
	Right    Expression
}

func (pe *PrefixExpression) String() string { return "(" + pe.Operator + nodeString(pe.Right) + ")" }

// UpdateExpression is ++ or -- in prefix or postfix position.
type UpdateExpression struct {
	expr
	Operator string
	Argument Expression
	Prefix   bool
}

func (ue *UpdateExpression) String() string {
	if ue.Prefix {
		return ue.Operator + nodeString(ue.Argument)
	}
	return nodeString(ue.Argument) + ue.Operator
}

type TernaryExpression struct {
	expr
	Condition   Expression
	Consequence Expression
	Alternative Expression
}

func (te *TernaryExpression) String() string {
	return "(" + nodeString(te.Condition) + " ? " + nodeString(te.Consequence) + " : " + nodeString(te.Alternative) + ")"
}

type ParenExpression struct {
	expr
	Inner Expression
}

func (pe *ParenExpression) String() string { return "(" + nodeString(pe.Inner) + ")" }

// TypeCheckExpression is `(expr : Type)`.
type TypeCheckExpression struct {
	expr
	Expr Expression
	Type TypeNode
}

func (tc *TypeCheckExpression) String() string {
	return "(" + nodeString(tc.Expr) + " : " + nodeString(tc.Type) + ")"
}

// IsExpression is `expr is Type`.
type IsExpression struct {
	expr
	Expr Expression
	Type TypeNode
}

func (ie *IsExpression) String() string { return nodeString(ie.Expr) + " is " + nodeString(ie.Type) }

// CastExpression is `cast expr` (unsafe) or `cast(expr, Type)` (safe).
type CastExpression struct {
	expr
	Expr Expression
	Type TypeNode // nil for an unsafe cast
}

func (ce *CastExpression) String() string {
	if ce.Type == nil {
		return "cast " + nodeString(ce.Expr)
	}
	return "cast(" + nodeString(ce.Expr) + ", " + ce.Type.String() + ")"
}

// IntervalExpression is `from...to`.
type IntervalExpression struct {
	expr
	From Expression
	To   Expression
}

func (ie *IntervalExpression) String() string { return nodeString(ie.From) + "..." + nodeString(ie.To) }

// SpreadElement is `...expr` in an argument list.
type SpreadElement struct {
	expr
	Argument Expression
}

func (se *SpreadElement) String() string { return "..." + nodeString(se.Argument) }

// UntypedExpression is `untyped expr`.
type UntypedExpression struct {
	expr
	Expr Expression
}

func (ue *UntypedExpression) String() string { return "untyped " + nodeString(ue.Expr) }

// --- Expressions: declarations and control flow ---

// VarDeclaration is a local `var` or `final`.
type VarDeclaration struct {
	expr
	Name  *Identifier
	Type  TypeNode
	Init  Expression
	Final bool
}

func (vd *VarDeclaration) String() string {
	var out bytes.Buffer
	if vd.Final {
		out.WriteString("final ")
	} else {
		out.WriteString("var ")
	}
	out.WriteString(vd.Name.Value)
	if vd.Type != nil {
		out.WriteString(":" + vd.Type.String())
	}
	if vd.Init != nil {
		out.WriteString(" = " + vd.Init.String())
	}
	return out.String()
}

// VarDeclarationList is `var a = 1, b = 2`.
type VarDeclarationList struct {
	expr
	Decls []*VarDeclaration
}

func (vl *VarDeclarationList) String() string {
	parts := make([]string, len(vl.Decls))
	for i, d := range vl.Decls {
		parts[i] = d.String()
	}
	return strings.Join(parts, ", ")
}

type BlockExpression struct {
	expr
	Expressions []Expression
}

func (be *BlockExpression) String() string {
	var out bytes.Buffer
	out.WriteString("{ ")
	for _, e := range be.Expressions {
		out.WriteString(nodeString(e) + "; ")
	}
	out.WriteString("}")
	return out.String()
}

type IfExpression struct {
	expr
	Condition   Expression
	Consequence Expression
	Alternative Expression
}

func (ie *IfExpression) String() string {
	s := "if (" + nodeString(ie.Condition) + ") " + nodeString(ie.Consequence)
	if ie.Alternative != nil {
		s += " else " + ie.Alternative.String()
	}
	return s
}

type WhileExpression struct {
	expr
	Condition Expression
	Body      Expression
	DoWhile   bool
}

func (we *WhileExpression) String() string {
	if we.DoWhile {
		return "do " + nodeString(we.Body) + " while (" + nodeString(we.Condition) + ")"
	}
	return "while (" + nodeString(we.Condition) + ") " + nodeString(we.Body)
}

// LoopVariable is a variable bound by a for loop header.
type LoopVariable struct {
	base
	Name *Identifier
}

func (lv *LoopVariable) String() string { return lv.Name.Value }

// ForExpression is `for (v in it) body` or `for (k => v in it) body`.
type ForExpression struct {
	expr
	Key      *LoopVariable // nil unless iterating key-value pairs
	Value    *LoopVariable
	Iterable Expression
	Body     Expression
}

func (fe *ForExpression) String() string {
	head := fe.Value.String()
	if fe.Key != nil {
		head = fe.Key.String() + " => " + head
	}
	return "for (" + head + " in " + nodeString(fe.Iterable) + ") " + nodeString(fe.Body)
}

// CaptureVariable binds part of a matched value inside a case pattern.
// The name `_` matches anything without binding.
type CaptureVariable struct {
	expr
	Name *Identifier
}

func (cv *CaptureVariable) String() string { return cv.Name.Value }

// IsWildcard reports the `_` pattern.
func (cv *CaptureVariable) IsWildcard() bool { return cv.Name.Value == "_" }

type SwitchCase struct {
	base
	Patterns []Expression
	Guard    Expression
	Body     *BlockExpression
}

func (sc *SwitchCase) String() string {
	s := "case " + joinNodes(sc.Patterns, " | ")
	if sc.Guard != nil {
		s += " if (" + sc.Guard.String() + ")"
	}
	return s + ": " + nodeString(sc.Body)
}

type SwitchExpression struct {
	expr
	Subject Expression
	Cases   []*SwitchCase
	Default *BlockExpression // nil when absent
}

func (se *SwitchExpression) String() string {
	var out bytes.Buffer
	out.WriteString("switch " + nodeString(se.Subject) + " { ")
	for _, c := range se.Cases {
		out.WriteString(c.String() + " ")
	}
	if se.Default != nil {
		out.WriteString("default: " + se.Default.String() + " ")
	}
	out.WriteString("}")
	return out.String()
}

type ReturnExpression struct {
	expr
	Value Expression // nil for a bare return
}

func (re *ReturnExpression) String() string {
	if re.Value == nil {
		return "return"
	}
	return "return " + re.Value.String()
}

type ThrowExpression struct {
	expr
	Value Expression
}

func (te *ThrowExpression) String() string { return "throw " + nodeString(te.Value) }

type BreakExpression struct{ expr }

func (be *BreakExpression) String() string { return "break" }

type ContinueExpression struct{ expr }

func (ce *ContinueExpression) String() string { return "continue" }

// CatchClause is `catch (name:Type) body`; the caught value is declared as
// a local variable.
type CatchClause struct {
	base
	Var  *VarDeclaration
	Body Expression
}

func (cc *CatchClause) String() string {
	return "catch (" + nodeString(cc.Var) + ") " + nodeString(cc.Body)
}

type TryExpression struct {
	expr
	Body    Expression
	Catches []*CatchClause
}

func (te *TryExpression) String() string {
	var out bytes.Buffer
	out.WriteString("try " + nodeString(te.Body))
	for _, c := range te.Catches {
		out.WriteString(" " + c.String())
	}
	return out.String()
}

// --- Expressions: macros ---

type MacroKind int

const (
	MacroExpr  MacroKind = iota // macro expr
	MacroType                   // macro : Type
	MacroClass                  // macro class X {}
)

// MacroExpression is the `macro` keyword applied to an expression, a type
// or a class declaration.
type MacroExpression struct {
	expr
	Kind  MacroKind
	Expr  Expression
	Type  TypeNode
	Class *ClassDeclaration
}

func (me *MacroExpression) String() string {
	switch me.Kind {
	case MacroType:
		return "macro : " + nodeString(me.Type)
	case MacroClass:
		return "macro " + nodeString(me.Class)
	}
	return "macro " + nodeString(me.Expr)
}

// ReificationExpression is `$v{...}`, `$a{...}`, `$e{...}`, `$i{...}`,
// `$b{...}`, `$p{...}`, `$t{...}` or a bare `$name`.
type ReificationExpression struct {
	expr
	Kind  string // the letter after '$'; "e" for a bare $name
	Inner Expression
}

func (re *ReificationExpression) String() string {
	return "$" + re.Kind + "{" + nodeString(re.Inner) + "}"
}

// --- Helpers ---

func nodeString(n Node) string {
	if n == nil || isNilNode(n) {
		return "<nil>"
	}
	return n.String()
}

// isNilNode catches typed nil pointers stored in interfaces.
func isNilNode(n Node) bool {
	switch v := n.(type) {
	case *Identifier:
		return v == nil
	case *BlockExpression:
		return v == nil
	case *TypeReference:
		return v == nil
	case *VarDeclaration:
		return v == nil
	case *ClassDeclaration:
		return v == nil
	}
	return false
}

func joinNodes[T Node](nodes []T, sep string) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = nodeString(n)
	}
	return strings.Join(parts, sep)
}

func joinParams(params []*Parameter) string { return joinNodes(params, ", ") }

func typeParamsString(params []*TypeParameter) string {
	if len(params) == 0 {
		return ""
	}
	return "<" + joinNodes(params, ", ") + ">"
}

func hasMeta(meta []*Metadata, name string) bool {
	for _, m := range meta {
		if m.Name == name || m.Name == ":"+name {
			return true
		}
	}
	return false
}

// HasMeta reports whether the declaration carries the given metadata name.
func (c *ClassDeclaration) HasMeta(name string) bool { return hasMeta(c.Meta, name) }
