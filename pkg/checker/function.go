package checker

import (
	"hxinfer/pkg/parser"
	"hxinfer/pkg/types"
)

// checkFunctionLiteral builds the signature of an anonymous, arrow or local
// function. Untyped parameters are inferred; a missing return type comes
// from the body.
func (s *Session) checkFunctionLiteral(n *parser.FunctionLiteral, r *types.GenericResolver) types.Type {
	args := make([]types.Argument, len(n.Params))
	for i, p := range n.Params {
		args[i] = types.Argument{
			Name:     p.Name.Value,
			Type:     s.valueOf(p, r),
			Optional: p.Optional || p.Default != nil,
			Rest:     p.Rest,
		}
	}
	var ret types.Type
	if n.ReturnType != nil {
		ret = s.prog.TypeOf(n.ReturnType)
	} else {
		ret = s.inferReturn(n.Body, n.Arrow, r)
	}
	return types.WithSource(types.NewFunction(args, ret), n)
}

// methodType is the signature of a method with its return type inferred
// from the body when the declaration has none.
func (s *Session) methodType(m *types.MethodModel) types.Type {
	fn := m.FunctionType()
	if m.Return != nil || m.IsConstructor() {
		return fn
	}
	decl, ok := m.Decl.(*parser.MethodDeclaration)
	if !ok || decl.Body == nil {
		return fn
	}
	inferred := *fn
	inferred.Return = s.inferReturn(decl.Body, false, nil)
	return &inferred
}

// inferReturn unifies the values of the return expressions of a function
// body, Void winning. An arrow function whose body is an expression returns
// that expression.
func (s *Session) inferReturn(body parser.Expression, arrow bool, r *types.GenericResolver) types.Type {
	if body == nil {
		return s.std.Void(nil)
	}
	if arrow {
		if _, ok := body.(*parser.BlockExpression); !ok {
			if _, ok := body.(*parser.ReturnExpression); !ok {
				return s.valueOf(body, r)
			}
		}
	}
	returns := collectReturns(body)
	if len(returns) == 0 {
		return s.std.Void(body)
	}
	values := make([]types.Type, 0, len(returns))
	for _, ret := range returns {
		if ret.Value == nil {
			values = append(values, s.std.Void(ret))
			continue
		}
		t := s.eval(ret.Value, r)
		if t == nil {
			// A recursive call of the function being inferred.
			continue
		}
		values = append(values, t)
	}
	if len(values) == 0 {
		return types.NewUnknown(body)
	}
	return unifyWithNulls(values, types.UnifyPreferVoid)
}

// collectReturns lists the return expressions of a body, skipping the
// bodies of nested functions.
func collectReturns(body parser.Node) []*parser.ReturnExpression {
	var out []*parser.ReturnExpression
	parser.Inspect(body, func(n parser.Node) bool {
		switch n := n.(type) {
		case *parser.FunctionLiteral:
			return n == body
		case *parser.ReturnExpression:
			out = append(out, n)
		}
		return true
	})
	return out
}

// checkParameter types a method or function literal parameter: its
// annotation, else its default value, else what the call passing the
// enclosing function expects, else its usages.
func (s *Session) checkParameter(p *parser.Parameter, r *types.GenericResolver) types.Type {
	if pm := s.prog.ParameterModel(p); pm != nil && pm.Type != nil {
		return pm.Type
	}
	if p.Type != nil {
		t := s.prog.TypeOf(p.Type)
		if p.Rest {
			return s.std.RestOf(t, p)
		}
		return t
	}
	if p.Default != nil {
		if t := s.eval(p.Default, r); t != nil && !types.IsDynamicBecauseOfNull(t) && !types.IsUnknown(t) {
			return types.WithoutConstant(t)
		}
	}
	if fn, ok := p.Parent().(*parser.FunctionLiteral); ok {
		if t := s.literalParameterHint(fn, p); t != nil {
			return t
		}
	}
	var scope parser.Node = p.Parent()
	return s.searchUsages(p, scope, nil)
}

// literalParameterHint reads the type of a function literal's parameter
// off the function type the literal is expected to have at its position:
// the parameter of a call it is passed to, or the annotation of the
// variable it initializes.
func (s *Session) literalParameterHint(fn *parser.FunctionLiteral, p *parser.Parameter) types.Type {
	idx := -1
	for i, q := range fn.Params {
		if q == p {
			idx = i
		}
	}
	expected := s.expectedType(fn)
	f, ok := types.ResolveTypedef(types.UnwrapNull(expected)).(*types.Function)
	if !ok || idx >= len(f.Args) {
		return nil
	}
	t := f.Args[idx].Type
	if types.IsUnknown(t) || types.ContainsTypeParameters(t) {
		return nil
	}
	return t
}

// expectedType is the type the context of e expects it to have, or nil.
func (s *Session) expectedType(e parser.Expression) types.Type {
	switch parent := e.Parent().(type) {
	case *parser.ParenExpression:
		return s.expectedType(parent)
	case *parser.VarDeclaration:
		if parent.Init == e && parent.Type != nil {
			return s.prog.TypeOf(parent.Type)
		}
	case *parser.FieldDeclaration:
		if parent.Init == e && parent.Type != nil {
			return s.prog.TypeOf(parent.Type)
		}
	case *parser.AssignmentExpression:
		if parent.Value == e && parent.Operator == "=" {
			if t := s.eval(parent.Left, nil); t != nil && !types.IsUnknown(t) {
				return t
			}
		}
	case *parser.ReturnExpression:
		if m := s.prog.EnclosingMethod(parent); m != nil && m.Return != nil {
			if lit := enclosingFunctionLiteral(parent); lit == nil {
				return m.Return
			}
		}
	case *parser.CallExpression:
		for i, a := range parent.Args {
			if a != e {
				continue
			}
			return s.validateCall(parent).expectedArgument(i)
		}
	case *parser.NewExpression:
		for i, a := range parent.Args {
			if a != e {
				continue
			}
			return s.validateNew(parent).expectedArgument(i)
		}
	}
	return nil
}

func enclosingFunctionLiteral(n parser.Node) *parser.FunctionLiteral {
	for p := n.Parent(); p != nil; p = p.Parent() {
		switch p := p.(type) {
		case *parser.FunctionLiteral:
			return p
		case *parser.MethodDeclaration:
			return nil
		}
	}
	return nil
}
