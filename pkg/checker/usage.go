package checker

import (
	"slices"

	"hxinfer/pkg/parser"
	"hxinfer/pkg/types"
)

// searchUsages infers the type of an untyped declaration from the places
// it is used. References are visited nearest first; the first one giving a
// concrete type wins and later ones may only fill in generic arguments it
// left open. initial is what the declaration itself provided, possibly nil,
// the type of a null initializer or a partially known instance.
func (s *Session) searchUsages(decl parser.Node, scope parser.Node, initial types.Type) types.Type {
	if s.searchDepth >= s.maxSearchDepth {
		debugPrintf("// [Checker Usage] depth limit reached for %s\n", decl.Range())
		return orUnknown(initial, decl)
	}
	s.searchDepth++
	defer func() { s.searchDepth-- }()

	refs := s.prog.Search(decl, scope)
	at := decl.Range()
	slices.SortStableFunc(refs, func(a, b *parser.Identifier) int {
		return at.Distance(a.Range().Start) - at.Distance(b.Range().Start)
	})
	debugPrintf("// [Checker Usage] %d references for %s\n", len(refs), decl.Range())

	result := initial
	var dynamic types.Type
	for _, ref := range refs {
		t := s.usageType(ref, result)
		if t == nil || types.IsUnknown(t) {
			continue
		}
		if types.IsDynamic(t) {
			if dynamic == nil || types.IsDynamicBecauseOfNull(dynamic) {
				dynamic = t
			}
			continue
		}
		t = types.WithoutConstant(t)
		switch {
		case result == nil || types.IsUnknown(result) || types.IsDynamic(result):
			result = t
		case needsImprovement(result):
			result = improve(result, t)
		}
		if !needsImprovement(result) {
			break
		}
	}
	if result == nil || types.IsUnknown(result) {
		return orUnknown(types.WithoutConstant(dynamic), decl)
	}
	return result
}

// usageType is the evidence one reference gives about the type of the
// declaration it refers to. current is what is known so far.
func (s *Session) usageType(ref *parser.Identifier, current types.Type) types.Type {
	var node parser.Expression = ref
	parent := ref.Parent()
	for {
		p, ok := parent.(*parser.ParenExpression)
		if !ok {
			break
		}
		node, parent = p, p.Parent()
	}

	switch p := parent.(type) {
	case *parser.AssignmentExpression:
		if p.Left == node {
			return s.eval(p.Value, nil)
		}
		if p.Value == node && p.Operator == "=" {
			if t := s.eval(p.Left, nil); t != nil && !types.IsDynamicBecauseOfNull(t) {
				return t
			}
		}

	case *parser.VarDeclaration:
		if p.Init == node && p.Type != nil {
			return s.prog.TypeOf(p.Type)
		}

	case *parser.ReturnExpression:
		if m := s.prog.EnclosingMethod(p); m != nil && m.Return != nil && enclosingFunctionLiteral(p) == nil {
			return m.Return
		}

	case *parser.CallExpression:
		if p.Callee == node {
			return s.calleeEvidence(p)
		}
		return s.argumentEvidence(p, node)

	case *parser.NewExpression:
		for i, a := range p.Args {
			if a == node {
				v := s.validateNew(p)
				return v.parameterFor(i)
			}
		}

	case *parser.MemberExpression:
		if call, ok := p.Parent().(*parser.CallExpression); ok && call.Callee == p && p.Object == node {
			return s.receiverEvidence(call, p, current)
		}

	case *parser.IndexExpression:
		if p.Left != node {
			break
		}
		if assign, ok := p.Parent().(*parser.AssignmentExpression); ok && assign.Left == p && assign.Operator == "=" {
			return s.indexEvidence(p, assign, current)
		}
	}
	return nil
}

// argumentEvidence is the type of the parameter an argument was matched to.
func (s *Session) argumentEvidence(call *parser.CallExpression, arg parser.Expression) types.Type {
	for i, a := range call.Args {
		if a != arg {
			continue
		}
		v := s.validateCall(call)
		if v == nil {
			return nil
		}
		return v.parameterFor(i)
	}
	return nil
}

// calleeEvidence types a called reference as a function of its arguments.
func (s *Session) calleeEvidence(call *parser.CallExpression) types.Type {
	args := make([]types.Argument, len(call.Args))
	for i, a := range call.Args {
		args[i] = types.Argument{Name: argName(i), Type: s.valueOf(a, nil)}
	}
	return types.NewFunction(args, types.NewUnknown(call))
}

func argName(i int) string {
	return string(rune('a' + i%26))
}

// receiverEvidence fills open generic arguments of current from a method
// call on the reference: `list.push(1)` makes an Array<Unknown> an
// Array<Int>.
func (s *Session) receiverEvidence(call *parser.CallExpression, callee *parser.MemberExpression, current types.Type) types.Type {
	inst := types.AsClass(types.UnwrapNull(current))
	if inst == nil || !types.ContainsUnknowns(inst) {
		return nil
	}
	m, owner := types.FindMember(inst, callee.Property.Value)
	method, ok := m.(*types.MethodModel)
	if !ok || owner == nil || owner.Class != inst.Class {
		return nil
	}
	v := s.validate(callSiteOf(call), &target{method: method, receiver: inst})
	args := make([]types.Type, len(inst.Class.TypeParams))
	changed := false
	for i, tp := range inst.Class.TypeParams {
		args[i] = inst.Args[i]
		if !types.IsUnknown(args[i]) {
			continue
		}
		if bound := v.Resolver.Resolve(tp.Name); bound != nil && types.IsResolved(bound) {
			args[i] = types.WithoutConstant(bound)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return types.NewInstance(inst.Class, args...)
}

// indexEvidence reads `a[k] = v` as evidence for Array or Map arguments.
func (s *Session) indexEvidence(ix *parser.IndexExpression, assign *parser.AssignmentExpression, current types.Type) types.Type {
	inst := types.AsClass(types.UnwrapNull(current))
	if inst == nil {
		return nil
	}
	value := s.valueOf(assign.Value, nil)
	switch {
	case types.IsArray(inst):
		return s.std.ArrayOf(value, ix)
	case inst.Class == s.std.Class("Map"):
		return s.std.MapOf(s.valueOf(ix.Index, nil), value, ix)
	}
	return nil
}

// needsImprovement holds for instances whose generic arguments are not all
// known yet.
func needsImprovement(t types.Type) bool {
	c := types.AsClass(t)
	return c != nil && types.ContainsUnknowns(c)
}

// improve merges the generic arguments of candidate into current when both
// are instances of the same class.
func improve(current, candidate types.Type) types.Type {
	a, b := types.AsClass(current), types.AsClass(candidate)
	if a == nil || b == nil || a.Class != b.Class {
		return current
	}
	merged := types.UnifyPair(current, candidate, types.UnifyNull)
	if types.IsDynamic(merged) {
		return current
	}
	return merged
}

func orUnknown(t types.Type, src parser.Node) types.Type {
	if t == nil {
		return types.NewUnknown(src)
	}
	return t
}
