package checker

import (
	"hxinfer/pkg/index"
	"hxinfer/pkg/parser"
	"hxinfer/pkg/types"
)

// checkBlock types a block as its last expression.
func (s *Session) checkBlock(n *parser.BlockExpression, r *types.GenericResolver) types.Type {
	if len(n.Expressions) == 0 {
		return s.std.Void(n)
	}
	last := n.Expressions[len(n.Expressions)-1]
	switch last.(type) {
	case *parser.VarDeclaration, *parser.VarDeclarationList:
		return s.std.Void(n)
	}
	return s.typeOf(last, r)
}

func (s *Session) checkSwitch(n *parser.SwitchExpression, r *types.GenericResolver) types.Type {
	var branches []parser.Node
	for _, c := range n.Cases {
		if c.Body != nil {
			branches = append(branches, c.Body)
		}
	}
	if n.Default != nil {
		branches = append(branches, n.Default)
	}
	if len(branches) == 0 {
		return s.std.Void(n)
	}
	return s.unifyBranches(n, branches, r)
}

// --- Loop variables ---

// checkLoopVariable types `v` of `for (v in it)` as the element type of
// it, and `k => v` through the key-value protocol.
func (s *Session) checkLoopVariable(lv *parser.LoopVariable, r *types.GenericResolver) types.Type {
	loop, ok := lv.Parent().(*parser.ForExpression)
	if !ok {
		return types.NewUnknown(lv)
	}
	it := s.valueOf(loop.Iterable, r)
	if types.IsDynamic(it) {
		return types.NewDynamic(lv)
	}
	if loop.Key == nil {
		return s.std.ElementType(it)
	}
	key, value := s.keyValueTypes(it)
	if lv == loop.Key {
		return key
	}
	return value
}

func (s *Session) keyValueTypes(it types.Type) (types.Type, types.Type) {
	c := types.AsClass(types.UnwrapNull(it))
	if c == nil {
		return types.NewUnknown(nil), types.NewUnknown(nil)
	}
	switch {
	case types.IsArray(c) || s.std.IsRest(c):
		return s.std.Int(nil), s.std.ElementType(c)
	case c.Class == s.std.Class("Map") && len(c.Args) == 2:
		return c.Args[0], c.Args[1]
	}
	for _, name := range []string{"keyValueIterator", "next"} {
		m, owner := types.FindMember(c, name)
		if m == nil {
			continue
		}
		fn, ok := s.memberType(m, owner).(*types.Function)
		if !ok {
			continue
		}
		pair := fn.Return
		if name == "keyValueIterator" {
			pair = s.std.ElementType(fn.Return)
		}
		return s.pairMember(pair, "key"), s.pairMember(pair, "value")
	}
	return types.NewUnknown(nil), types.NewUnknown(nil)
}

func (s *Session) pairMember(pair types.Type, name string) types.Type {
	inst := types.AsClass(types.ResolveTypedef(pair))
	if m, owner := types.FindMember(inst, name); m != nil {
		return s.memberType(m, owner)
	}
	return types.NewUnknown(nil)
}

// --- Switch captures ---

// checkCapture types a variable bound by a case pattern. The subject type
// is pushed down the pattern: enum constructor arguments, array elements
// and structure fields.
func (s *Session) checkCapture(c *parser.CaptureVariable, r *types.GenericResolver) types.Type {
	var path []parser.Node
	var kase *parser.SwitchCase
	for n := parser.Node(c); n != nil; n = n.Parent() {
		if sc, ok := n.(*parser.SwitchCase); ok {
			kase = sc
			break
		}
		path = append(path, n)
	}
	if kase == nil {
		return types.NewUnknown(c)
	}
	sw, ok := kase.Parent().(*parser.SwitchExpression)
	if !ok {
		return types.NewUnknown(c)
	}
	t := s.typeOf(sw.Subject, r)
	for i := len(path) - 1; i > 0; i-- {
		t = s.patternChild(path[i], path[i-1], t)
		if types.IsUnknown(t) {
			return t
		}
	}
	return types.WithoutConstant(t)
}

// patternChild is the type matched by inner when outer matches t.
func (s *Session) patternChild(outer, inner parser.Node, t types.Type) types.Type {
	switch o := outer.(type) {
	case *parser.CallExpression:
		if inner == o.Callee {
			return t
		}
		ctor := s.patternConstructor(o.Callee, t)
		if ctor == nil {
			return types.NewUnknown(inner)
		}
		for i, a := range o.Args {
			if a != inner || i >= len(ctor.Params) {
				continue
			}
			pt := ctor.Params[i].Type
			if pt == nil {
				return types.NewUnknown(inner)
			}
			if enum := enumInstance(t); enum != nil && enum.Class == ctor.Enum {
				return enum.GenericResolver().WithoutUnknowns().ResolveType(pt)
			}
			return pt
		}
		return types.NewUnknown(inner)

	case *parser.ArrayLiteral:
		return s.std.ElementType(t)

	case *parser.ObjectLiteral:
		field, ok := inner.(*parser.ObjectField)
		if !ok {
			return types.NewUnknown(inner)
		}
		inst := types.AsClass(types.ResolveTypedef(types.UnwrapNull(t)))
		if m, owner := types.FindMember(inst, field.Name); m != nil {
			return s.memberType(m, owner)
		}
		return types.NewUnknown(inner)

	case *parser.InfixExpression:
		// Extractor `f(_) => v`: only the left side sees the subject.
		if o.Operator == "=>" && inner == o.Right {
			return types.NewUnknown(inner)
		}
		return t
	}
	return t
}

// patternConstructor finds the enum constructor a pattern calls, by
// binding or on the subject's enum.
func (s *Session) patternConstructor(callee parser.Expression, subject types.Type) *types.EnumConstructor {
	var name string
	switch c := callee.(type) {
	case *parser.Identifier:
		if sym := s.prog.Resolve(c); sym != nil && sym.Kind == index.SymEnumConstructor {
			return sym.EnumCtor
		}
		name = c.Value
	case *parser.MemberExpression:
		if sym := s.prog.Resolve(c.Property); sym != nil && sym.Kind == index.SymEnumConstructor {
			return sym.EnumCtor
		}
		name = c.Property.Value
	default:
		return nil
	}
	if enum := enumInstance(subject); enum != nil {
		return enum.Class.EnumConstructor(name)
	}
	return nil
}

func enumInstance(t types.Type) *types.ClassInstance {
	base := types.UnwrapNull(t)
	if ev, ok := base.(*types.EnumValue); ok {
		return ev.Enum
	}
	return types.AsClass(base)
}
