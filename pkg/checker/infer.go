package checker

import (
	"hxinfer/pkg/types"
)

const maxBindDepth = 8

// bindTypeParams matches param against arg position by position and records
// in out every type parameter param mentions: directly, through the generic
// arguments of a class or its ancestors, through the members of a
// structure, or through the arguments and return of a function. With a
// table, only names the table declares are bound and each binding must
// satisfy the constraint recorded for its name; the table then remembers
// the binding so later arguments are checked against it.
func bindTypeParams(param, arg types.Type, out *types.GenericResolver, table *types.ConstraintTable, depth int) {
	if param == nil || arg == nil || depth > maxBindDepth || types.IsUnknown(arg) {
		return
	}
	param = types.UnwrapNull(types.ResolveTypedef(param))
	arg = types.WithoutConstant(types.UnwrapNull(types.ResolveTypedef(arg)))
	if ev, ok := arg.(*types.EnumValue); ok {
		arg = ev.Enum
	}

	switch p := param.(type) {
	case *types.TypeParamRef:
		bindOne(p, arg, out, table)

	case *types.ClassInstance:
		a := types.AsClass(arg)
		if a == nil {
			return
		}
		if types.IsAnonymous(p) && a.Class != p.Class {
			bindMembers(p, a, out, table, depth)
			return
		}
		if a.Class != p.Class {
			if a = types.AncestorOf(a, p.Class); a == nil {
				return
			}
		}
		for i, pa := range p.Args {
			if i < len(a.Args) {
				bindTypeParams(pa, a.Args[i], out, table, depth+1)
			}
		}

	case *types.Function:
		a, ok := arg.(*types.Function)
		if !ok {
			return
		}
		if len(a.Args) == len(p.Args) {
			for i := range p.Args {
				bindTypeParams(p.Args[i].Type, a.Args[i].Type, out, table, depth+1)
			}
		}
		bindTypeParams(p.Return, a.Return, out, table, depth+1)
	}
}

func bindMembers(p, a *types.ClassInstance, out *types.GenericResolver, table *types.ConstraintTable, depth int) {
	for _, f := range p.Class.Fields {
		if f.Type == nil {
			continue
		}
		if m, owner := types.FindMember(a, f.Name); m != nil {
			bindTypeParams(f.Type, types.MemberType(m, owner), out, table, depth+1)
		}
	}
	for _, fm := range p.Class.Methods {
		if m, owner := types.FindMember(a, fm.Name); m != nil {
			bindTypeParams(fm.FunctionType(), types.MemberType(m, owner), out, table, depth+1)
		}
	}
}

// bindOne records name = arg. A binding that does not fit the declared
// constraint is dropped, and a concrete binding is never replaced by a bare
// type parameter.
func bindOne(ref *types.TypeParamRef, arg types.Type, out *types.GenericResolver, table *types.ConstraintTable) {
	name := ref.Name()
	if table == nil {
		if !types.IsTypeParam(arg) {
			out.Add(name, arg, types.ArgumentType)
		}
		return
	}
	if !table.Contains(name) {
		return
	}
	scope := types.ClassTypeParameter
	if table.ContainsIn(name, types.MethodTypeParameter) {
		scope = types.MethodTypeParameter
	}
	constraint := table.Get(name)
	switch {
	case types.IsTypeParam(arg):
		if constraint != nil && !types.IsTypeParam(constraint) {
			return
		}
	case constraint != nil && !types.CanAssign(constraint, arg):
		debugPrintf("// [Checker Infer] %s = %s rejected by %s\n", name, arg, constraint)
		return
	}
	table.Put(name, arg, scope)
	out.Add(name, arg, types.ArgumentType)
}
