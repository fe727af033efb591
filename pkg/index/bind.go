package index

import (
	"hxinfer/pkg/parser"
	"hxinfer/pkg/types"
)

// binder walks the bodies of one file, resolving every identifier in
// expression position against the scope chain.
type binder struct {
	ix    *Index
	file  *parser.File
	class *types.ClassModel
	scope *Scope
}

func newBinder(ix *Index, file *parser.File) *binder {
	return &binder{ix: ix, file: file, scope: ix.modules[file]}
}

func (b *binder) push() { b.scope = NewScope(b.scope) }
func (b *binder) pop()  { b.scope = b.scope.outer }

func (b *binder) define(sym *Symbol) {
	if sym.Decl != nil {
		b.ix.symbols[sym.Decl] = sym
	}
	b.scope.Define(sym)
}

func (b *binder) bindFile() {
	for _, d := range b.file.Decls {
		model := b.ix.classes[d]
		if model == nil {
			continue
		}
		if c, ok := d.(*parser.ClassDeclaration); ok {
			b.bindClass(c, model)
		}
	}
}

func (b *binder) bindClass(c *parser.ClassDeclaration, model *types.ClassModel) {
	b.class = model
	module := b.scope
	b.scope = typeScope(module, model.TypeParams)
	defer func() {
		b.scope = module
		b.class = nil
	}()

	for _, m := range c.Members {
		switch m := m.(type) {
		case *parser.FieldDeclaration:
			if f := b.ix.fields[m]; f != nil {
				b.define(b.ix.memberSymbol(f))
			}
		case *parser.MethodDeclaration:
			if mm := b.ix.methods[m]; mm != nil && !mm.IsConstructor() {
				b.define(b.ix.memberSymbol(mm))
			}
		}
	}

	for _, m := range c.Members {
		switch m := m.(type) {
		case *parser.FieldDeclaration:
			b.expr(m.Init)
		case *parser.MethodDeclaration:
			b.bindMethod(m, b.ix.methods[m])
		}
	}
}

func (b *binder) bindMethod(m *parser.MethodDeclaration, mm *types.MethodModel) {
	b.scope = typeScope(b.scope, mm.TypeParams)
	defer b.pop()
	for _, p := range m.Params {
		b.expr(p.Default)
		b.define(&Symbol{
			Kind:   SymParameter,
			Name:   p.Name.Value,
			Decl:   p,
			Class:  b.class,
			Method: mm,
			Param:  b.ix.params[p],
		})
	}
	if m.Body != nil {
		b.expr(m.Body)
	}
}

// annotate resolves a type annotation met inside a body, where local
// function type parameters may be visible.
func (b *binder) annotate(t parser.TypeNode) {
	if t != nil {
		b.ix.resolveType(t, b.file, b.scope)
	}
}

func (b *binder) expr(n parser.Node) {
	if n == nil {
		return
	}
	switch n := n.(type) {
	case *parser.Identifier:
		b.ref(n)

	case *parser.VarDeclaration:
		b.annotate(n.Type)
		b.expr(n.Init)
		b.define(&Symbol{Kind: SymLocal, Name: n.Name.Value, Decl: n, Class: b.class})

	case *parser.FunctionLiteral:
		if n.Name != nil {
			b.define(&Symbol{Kind: SymLocalFunction, Name: n.Name.Value, Decl: n, Class: b.class})
		}
		b.push()
		for _, tp := range n.TypeParams {
			p := &types.TypeParameter{Name: tp.Name.Value, Scope: types.MethodTypeParameter, Decl: tp}
			b.ix.typeParams[tp] = p
			b.scope.DefineTypeParam(p)
		}
		for _, tp := range n.TypeParams {
			if tp.Constraint != nil {
				b.ix.typeParams[tp].Constraint = b.ix.resolveType(tp.Constraint, b.file, b.scope)
			}
		}
		for _, p := range n.Params {
			b.annotate(p.Type)
			b.expr(p.Default)
			b.define(&Symbol{Kind: SymParameter, Name: p.Name.Value, Decl: p, Class: b.class})
		}
		b.annotate(n.ReturnType)
		b.expr(n.Body)
		b.pop()

	case *parser.BlockExpression:
		b.push()
		for _, e := range n.Expressions {
			b.expr(e)
		}
		b.pop()

	case *parser.ForExpression:
		b.expr(n.Iterable)
		b.push()
		if n.Key != nil {
			b.define(&Symbol{Kind: SymLoopVariable, Name: n.Key.Name.Value, Decl: n.Key, Class: b.class})
		}
		if n.Value != nil {
			b.define(&Symbol{Kind: SymLoopVariable, Name: n.Value.Name.Value, Decl: n.Value, Class: b.class})
		}
		b.expr(n.Body)
		b.pop()

	case *parser.SwitchExpression:
		b.expr(n.Subject)
		for _, c := range n.Cases {
			b.push()
			for _, p := range c.Patterns {
				b.pattern(p)
			}
			b.expr(c.Guard)
			if c.Body != nil {
				b.expr(c.Body)
			}
			b.pop()
		}
		if n.Default != nil {
			b.expr(n.Default)
		}

	case *parser.TryExpression:
		b.expr(n.Body)
		for _, c := range n.Catches {
			b.push()
			if c.Var != nil {
				b.annotate(c.Var.Type)
				b.define(&Symbol{Kind: SymLocal, Name: c.Var.Name.Value, Decl: c.Var, Class: b.class})
			}
			b.expr(c.Body)
			b.pop()
		}

	case *parser.MemberExpression:
		b.expr(n.Object)
		b.member(n)

	case *parser.MacroExpression:
		// A reified class is not part of the program.
		b.expr(n.Expr)
		b.annotate(n.Type)

	case parser.TypeNode:
		b.annotate(n)

	default:
		for _, c := range parser.Children(n) {
			b.expr(c)
		}
	}
}

// pattern binds the capture variables of a case pattern in the current
// scope and resolves the constructor names it mentions.
func (b *binder) pattern(n parser.Node) {
	switch n := n.(type) {
	case *parser.CaptureVariable:
		if !n.IsWildcard() {
			b.define(&Symbol{Kind: SymCapture, Name: n.Name.Value, Decl: n, Class: b.class})
		}
	case *parser.Identifier:
		b.ref(n)
	case *parser.MemberExpression:
		b.expr(n)
	default:
		for _, c := range parser.Children(n) {
			b.pattern(c)
		}
	}
}

func (b *binder) ref(ident *parser.Identifier) {
	if sym := b.lookup(ident.Value); sym != nil {
		b.ix.bindRef(ident, sym)
	}
}

// lookup resolves a bare name: locals and members first, then inherited
// members, enum constructors in scope and finally type names.
func (b *binder) lookup(name string) *Symbol {
	if sym, ok := b.scope.Lookup(name); ok {
		return sym
	}
	if b.class != nil {
		if m, _ := types.FindMember(b.class.SelfInstance(), name); m != nil {
			return b.ix.memberSymbol(m)
		}
	}
	if c, ok := b.ix.findClass([]string{name}, b.file); ok {
		return b.ix.classSymbol(c)
	}
	return nil
}

// member binds the property of `this.x`, `super.x` and `Type.x`, the
// accesses whose receiver is known without evaluating anything.
func (b *binder) member(n *parser.MemberExpression) {
	name := n.Property.Value
	switch obj := n.Object.(type) {
	case *parser.ThisExpression, *parser.SuperExpression:
		if b.class == nil {
			return
		}
		if m, _ := types.FindMember(b.class.SelfInstance(), name); m != nil {
			b.ix.bindRef(n.Property, b.ix.memberSymbol(m))
		}
	case *parser.Identifier:
		sym := b.ix.refs[obj]
		if sym == nil || sym.Kind != SymClass {
			return
		}
		c := sym.Class
		if e := c.EnumConstructor(name); e != nil {
			b.ix.bindRef(n.Property, b.ix.enumCtorSymbol(e))
			return
		}
		if f := c.Field(name); f != nil && f.Static {
			b.ix.bindRef(n.Property, b.ix.memberSymbol(f))
			return
		}
		if m := c.Method(name); m != nil && m.Static {
			b.ix.bindRef(n.Property, b.ix.memberSymbol(m))
		}
	}
}
