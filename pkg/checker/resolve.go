package checker

import (
	"hxinfer/pkg/index"
	"hxinfer/pkg/parser"
	"hxinfer/pkg/types"
)

// checkIdentifier types a name through the declaration it is bound to.
func (s *Session) checkIdentifier(n *parser.Identifier, r *types.GenericResolver) types.Type {
	sym := s.prog.Resolve(n)
	if sym == nil {
		if n.Value == "trace" {
			return s.traceType(n)
		}
		debugPrintf("// [Checker Ident] unbound '%s'\n", n.Value)
		return types.NewUnknown(n)
	}

	switch sym.Kind {
	case index.SymLocal, index.SymParameter, index.SymLoopVariable, index.SymCapture, index.SymLocalFunction:
		// nil when the declaration is being inferred further up the stack.
		return s.eval(sym.Decl, r)
	case index.SymField:
		return s.memberType(sym.Field, s.ownerView(n, sym.Field.Class))
	case index.SymMethod:
		return s.memberType(sym.Method, s.ownerView(n, sym.Method.Class))
	case index.SymClass:
		if sym.Class.Kind == types.KindEnum {
			return s.std.EnumOf(types.NewInstance(sym.Class), n)
		}
		return s.std.ClassOf(types.NewInstance(sym.Class), n)
	case index.SymEnumConstructor:
		return s.enumConstructorType(sym.EnumCtor, n)
	}
	return types.NewUnknown(n)
}

func (s *Session) traceType(n parser.Node) types.Type {
	args := []types.Argument{
		{Name: "v", Type: types.NewDynamic(n)},
		{Name: "infos", Type: types.NewInstance(s.std.Class("haxe.PosInfos")), Optional: true},
	}
	return types.NewFunction(args, s.std.Void(n))
}

// thisType is the type of `this`: the enclosing class with its own type
// parameters, or the underlying type inside an abstract.
func (s *Session) thisType(n parser.Node) types.Type {
	c := s.prog.EnclosingClass(n)
	if c == nil {
		return types.NewUnknown(n)
	}
	if c.Kind == types.KindAbstract && c.Alias != nil {
		return c.Alias
	}
	return types.WithSource(c.SelfInstance(), n)
}

// ownerView is the enclosing class of n seen as declaring, so that an
// inherited member mentions the arguments the subclass gave its parent.
func (s *Session) ownerView(n parser.Node, declaring *types.ClassModel) *types.ClassInstance {
	if c := s.prog.EnclosingClass(n); c != nil {
		if view := types.AncestorOf(c.SelfInstance(), declaring); view != nil {
			return view
		}
	}
	if declaring != nil {
		return declaring.SelfInstance()
	}
	return nil
}

// memberType types a field or method seen through owner. Untyped fields
// and methods without a return type are inferred.
func (s *Session) memberType(m types.Member, owner *types.ClassInstance) types.Type {
	var resolver *types.GenericResolver
	if owner != nil {
		resolver = owner.GenericResolver().WithoutUnknowns()
	}
	switch m := m.(type) {
	case *types.FieldModel:
		if m.Type != nil {
			return resolver.ResolveType(m.Type)
		}
		decl, ok := m.Decl.(parser.Node)
		if !ok || decl == nil {
			return types.NewUnknown(nil)
		}
		t := s.eval(decl, nil)
		if t == nil {
			return nil
		}
		return resolver.ResolveType(t)
	case *types.MethodModel:
		return resolver.ResolveType(s.methodType(m))
	}
	return types.NewUnknown(nil)
}

func (s *Session) enumConstructorType(ctor *types.EnumConstructor, src parser.Node) types.Type {
	if len(ctor.Params) == 0 {
		return types.WithSource(types.NewEnumValue(unknownArgs(ctor.Enum), ctor), src)
	}
	return ctor.FunctionType()
}

// unknownArgs instantiates c with every argument unknown.
func unknownArgs(c *types.ClassModel) *types.ClassInstance {
	args := make([]types.Type, len(c.TypeParams))
	for i := range args {
		args[i] = types.NewUnknown(nil)
	}
	return types.NewInstance(c, args...)
}

// --- Declarations ---

func (s *Session) checkVarDeclaration(v *parser.VarDeclaration, r *types.GenericResolver) types.Type {
	if v.Type != nil {
		return s.prog.TypeOf(v.Type)
	}
	var init types.Type
	if v.Init != nil {
		init = s.eval(v.Init, r)
		if init != nil && !types.IsUnknown(init) && !types.IsDynamicBecauseOfNull(init) {
			if !v.Final {
				init = types.WithoutConstant(init)
			}
			if needsImprovement(init) {
				return s.searchUsages(v, usageScope(v), init)
			}
			return init
		}
	}
	return s.searchUsages(v, usageScope(v), init)
}

// usageScope is the function body a local declaration is visible in.
func usageScope(n parser.Node) parser.Node {
	return parser.Ancestor(n, func(p parser.Node) bool {
		switch p.(type) {
		case *parser.FunctionLiteral, *parser.MethodDeclaration, *parser.FieldDeclaration:
			return true
		}
		return false
	})
}

func (s *Session) checkField(f *parser.FieldDeclaration, r *types.GenericResolver) types.Type {
	model := s.prog.FieldModel(f)
	if model != nil && model.Type != nil {
		return model.Type
	}
	var init types.Type
	if f.Init != nil {
		init = s.eval(f.Init, r)
		if init != nil && !types.IsUnknown(init) && !types.IsDynamicBecauseOfNull(init) {
			if !f.Final {
				init = types.WithoutConstant(init)
			}
			if !needsImprovement(init) {
				return init
			}
		}
	}
	return s.searchUsages(f, nil, init)
}

// --- Member access ---

func (s *Session) checkMember(n *parser.MemberExpression, r *types.GenericResolver) types.Type {
	if c := s.staticReceiver(n.Object); c != nil {
		return s.staticMember(c, n.Property.Value, n)
	}
	obj := s.eval(n.Object, r)
	if obj == nil {
		return nil
	}
	t := s.memberOf(obj, n.Property.Value, n)
	if n.Optional && t != nil {
		t = types.WrapNull(t)
	}
	return t
}

// staticReceiver returns the class a receiver names, when it is a type
// name rather than a value.
func (s *Session) staticReceiver(obj parser.Expression) *types.ClassModel {
	id, ok := obj.(*parser.Identifier)
	if !ok {
		return nil
	}
	if sym := s.prog.Resolve(id); sym != nil && sym.Kind == index.SymClass {
		return sym.Class
	}
	return nil
}

func (s *Session) staticMember(c *types.ClassModel, name string, n parser.Node) types.Type {
	if e := c.EnumConstructor(name); e != nil {
		return s.enumConstructorType(e, n)
	}
	if f := c.Field(name); f != nil && f.Static {
		return s.memberType(f, nil)
	}
	if m := c.Method(name); m != nil && m.Static {
		return s.memberType(m, nil)
	}
	debugPrintf("// [Checker Member] no static '%s' on %s\n", name, c.Name)
	return types.NewUnknown(n)
}

// memberOf types `obj.name`: a member of the receiver's class, a static
// member when the receiver is a Class<T> value, or a static extension
// brought in with `using`.
func (s *Session) memberOf(obj types.Type, name string, n parser.Node) types.Type {
	base := types.UnwrapNull(obj)
	if types.IsDynamic(base) {
		return types.NewDynamic(n)
	}
	if ev, ok := base.(*types.EnumValue); ok {
		base = ev.Enum
	}
	inst := types.AsClass(base)
	if inst == nil {
		return types.NewUnknown(n)
	}
	if (inst.Class == s.std.Class("Class") || inst.Class == s.std.Class("Enum")) && len(inst.Args) == 1 {
		if named := types.AsClass(inst.Args[0]); named != nil {
			return s.staticMember(named.Class, name, n)
		}
	}
	if m, owner := types.FindMember(inst, name); m != nil {
		return s.memberType(m, owner)
	}
	if _, bound := s.extensionFor(obj, name, n); bound != nil {
		fn := *bound
		fn.Args = bound.Args[1:]
		return &fn
	}
	debugPrintf("// [Checker Member] no '%s' on %s\n", name, inst)
	return types.NewUnknown(n)
}

// extensionFor finds a static extension method name applicable to recv
// among the `using` classes visible at n. The returned signature has the
// type parameters fixed by the receiver substituted. When methods of that
// name exist but none accepts recv, the first one is returned with a nil
// signature.
func (s *Session) extensionFor(recv types.Type, name string, n parser.Node) (*types.MethodModel, *types.Function) {
	var fallback *types.MethodModel
	for _, c := range s.prog.Usings(n) {
		m := c.Method(name)
		if m == nil || !m.Static || len(m.Params) == 0 {
			continue
		}
		if fallback == nil {
			fallback = m
		}
		first := m.Params[0].Type
		resolver := types.NewGenericResolver()
		bindTypeParams(first, recv, resolver, nil, 0)
		if !types.CanAssign(resolver.ResolveType(first), recv) {
			continue
		}
		fn, ok := resolver.ResolveType(s.methodType(m)).(*types.Function)
		if !ok || len(fn.Args) == 0 {
			continue
		}
		return m, fn
	}
	return fallback, nil
}
