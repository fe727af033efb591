package index

import (
	"hxinfer/pkg/parser"
	"hxinfer/pkg/types"
)

// resolveType turns a type annotation into a type. Names are looked up
// from file; scope supplies the visible type parameters.
func (ix *Index) resolveType(n parser.TypeNode, file *parser.File, scope *Scope) types.Type {
	if n == nil {
		return nil
	}
	if cached, ok := ix.annotations[n]; ok {
		return cached
	}
	var result types.Type
	switch t := n.(type) {
	case *parser.TypeReference:
		result = ix.resolveReference(t, file, scope)
	case *parser.FunctionType:
		args := make([]types.Argument, len(t.Args))
		for i, a := range t.Args {
			args[i] = types.Argument{Name: a.Name, Optional: a.Optional, Type: ix.resolveType(a.Type, file, scope)}
			if args[i].Type == nil {
				args[i].Type = types.NewUnknown(t)
			}
		}
		var ret types.Type = ix.std.Void(t)
		if t.Return != nil {
			ret = ix.resolveType(t.Return, file, scope)
		}
		result = types.WithSource(types.NewFunction(args, ret), t)
	case *parser.AnonymousType:
		result = ix.resolveAnonymous(t, file, scope)
	default:
		result = types.NewUnknown(n)
	}
	ix.annotations[n] = result
	return result
}

func (ix *Index) resolveReference(t *parser.TypeReference, file *parser.File, scope *Scope) types.Type {
	if len(t.Path) == 1 {
		name := t.Path[0]
		if p, ok := scope.TypeParam(name); ok {
			return types.WithSource(types.NewTypeParamRef(p), t)
		}
		switch name {
		case "Dynamic":
			return types.NewDynamic(t)
		case "Null":
			if len(t.Params) == 1 {
				return types.WithSource(types.WrapNull(ix.resolveType(t.Params[0], file, scope)), t)
			}
		}
	}
	model := ix.lookupClass(t.Path, file)
	var args []types.Type
	if len(t.Params) == len(model.TypeParams) {
		for _, p := range t.Params {
			args = append(args, ix.resolveType(p, file, scope))
		}
	}
	return types.WithSource(types.NewInstance(model, args...), t)
}

// resolveAnonymous builds a model for an anonymous structure. The model
// takes every type parameter visible at the annotation so that members
// mentioning them resolve through the instance arguments.
func (ix *Index) resolveAnonymous(t *parser.AnonymousType, file *parser.File, scope *Scope) types.Type {
	model := types.NewClass("", types.KindAnonymous)
	model.Decl = t
	model.TypeParams = scope.TypeParams()

	for _, ext := range t.Extends {
		base := types.AsClass(types.ResolveTypedef(ix.resolveType(ext, file, scope)))
		if base == nil {
			continue
		}
		resolver := base.GenericResolver()
		for _, f := range base.Class.Fields {
			copied := *f
			if f.Type != nil {
				copied.Type = resolver.ResolveType(f.Type)
			}
			model.AddField(&copied)
		}
		for _, m := range base.Class.Methods {
			copied := *m
			model.AddMethod(&copied)
		}
	}

	for _, f := range t.Fields {
		typ := ix.resolveType(f.Type, file, scope)
		if fn, ok := typ.(*types.Function); ok && f.Method {
			m := &types.MethodModel{Name: f.Name.Value, Return: fn.Return, Decl: f}
			for _, a := range fn.Args {
				m.Params = append(m.Params, &types.ParameterModel{Name: a.Name, Type: a.Type, Optional: a.Optional, Decl: f})
			}
			model.AddMethod(m)
			continue
		}
		model.AddField(&types.FieldModel{Name: f.Name.Value, Type: typ, Optional: f.Optional, Decl: f})
	}

	args := make([]types.Type, len(model.TypeParams))
	for i, p := range model.TypeParams {
		args[i] = types.NewTypeParamRef(p)
	}
	return types.WithSource(types.NewInstance(model, args...), t)
}
