package index

import (
	"strings"

	"hxinfer/pkg/parser"
	"hxinfer/pkg/types"
)

// declare creates and registers a model for every declaration of file. The
// headers are resolved later, once every name of the batch is known.
func (ix *Index) declare(file *parser.File) {
	pack := file.PackageName()
	for _, d := range file.Decls {
		var model *types.ClassModel
		switch d := d.(type) {
		case *parser.ClassDeclaration:
			kind := types.KindClass
			switch d.Kind {
			case parser.ClassKindInterface:
				kind = types.KindInterface
			case parser.ClassKindAbstract:
				kind = types.KindAbstract
			}
			model = types.NewClass(d.Name.Value, kind)
			model.TypeParams = ix.declareTypeParams(d.TypeParams, types.ClassTypeParameter)
			model.Meta = metaNames(d.Meta)
			ix.pending[model] = func() { ix.classHeader(d, model, file) }
		case *parser.EnumDeclaration:
			model = types.NewClass(d.Name.Value, types.KindEnum)
			model.TypeParams = ix.declareTypeParams(d.TypeParams, types.ClassTypeParameter)
			model.Meta = metaNames(d.Meta)
			ix.pending[model] = func() { ix.enumHeader(d, model, file) }
		case *parser.TypedefDeclaration:
			model = types.NewClass(d.Name.Value, types.KindTypedef)
			model.TypeParams = ix.declareTypeParams(d.TypeParams, types.ClassTypeParameter)
			model.Meta = metaNames(d.Meta)
			ix.pending[model] = func() { ix.typedefHeader(d, model, file) }
		default:
			continue
		}
		model.Pack = pack
		model.Decl = d
		ix.classes[d] = model
		ix.std.Register(model)
		debugPrintf("// [Index] declared %s %s\n", model.Kind, model.QualifiedName())
	}
}

func (ix *Index) declareTypeParams(params []*parser.TypeParameter, scope types.ResolveSource) []*types.TypeParameter {
	out := make([]*types.TypeParameter, len(params))
	for i, p := range params {
		out[i] = &types.TypeParameter{Name: p.Name.Value, Scope: scope, Decl: p}
		ix.typeParams[p] = out[i]
	}
	return out
}

func metaNames(meta []*parser.Metadata) []string {
	out := make([]string, 0, len(meta))
	for _, m := range meta {
		out = append(out, strings.TrimPrefix(m.Name, ":"))
	}
	return out
}

// ensureHeader runs the pending header resolution of model, if any. The
// entry is removed first so that self references terminate.
func (ix *Index) ensureHeader(model *types.ClassModel) {
	run, ok := ix.pending[model]
	if !ok {
		return
	}
	delete(ix.pending, model)
	run()
}

// typeScope makes the given type parameters visible to annotations.
func typeScope(outer *Scope, params []*types.TypeParameter) *Scope {
	s := NewScope(outer)
	for _, p := range params {
		s.DefineTypeParam(p)
	}
	return s
}

func (ix *Index) resolveConstraints(params []*parser.TypeParameter, file *parser.File, scope *Scope) {
	for _, p := range params {
		if p.Constraint != nil {
			ix.typeParams[p].Constraint = ix.resolveType(p.Constraint, file, scope)
		}
	}
}

func (ix *Index) classHeader(d *parser.ClassDeclaration, model *types.ClassModel, file *parser.File) {
	scope := typeScope(nil, model.TypeParams)
	ix.resolveConstraints(d.TypeParams, file, scope)

	for i, ext := range d.Extends {
		super := types.AsClass(ix.resolveType(ext, file, scope))
		if super == nil {
			continue
		}
		if d.Kind == parser.ClassKindClass && i == 0 {
			model.Super = super
		} else {
			model.Interfaces = append(model.Interfaces, super)
		}
	}
	for _, impl := range d.Implements {
		if iface := types.AsClass(ix.resolveType(impl, file, scope)); iface != nil {
			model.Interfaces = append(model.Interfaces, iface)
		}
	}
	if d.Underlying != nil {
		model.Alias = ix.resolveType(d.Underlying, file, scope)
	}
	for _, t := range d.From {
		model.From = append(model.From, ix.resolveType(t, file, scope))
	}
	for _, t := range d.To {
		model.To = append(model.To, ix.resolveType(t, file, scope))
	}

	for _, m := range d.Members {
		switch m := m.(type) {
		case *parser.FieldDeclaration:
			f := &types.FieldModel{
				Name:    m.Name.Value,
				Static:  m.Modifiers.Static,
				Final:   m.Final,
				HasInit: m.Init != nil,
				Decl:    m,
			}
			if m.Type != nil {
				f.Type = ix.resolveType(m.Type, file, scope)
			}
			// Values of an enum abstract are typed as the abstract itself.
			if d.EnumLike && !m.Modifiers.Static {
				f.Static = true
				if f.Type == nil {
					f.Type = model.SelfInstance()
				}
			}
			model.AddField(f)
			ix.fields[m] = f
		case *parser.MethodDeclaration:
			model.AddMethod(ix.methodModel(m, file, scope))
		}
	}
}

func (ix *Index) methodModel(m *parser.MethodDeclaration, file *parser.File, classScope *Scope) *types.MethodModel {
	mm := &types.MethodModel{
		Name:       m.Name.Value,
		TypeParams: ix.declareTypeParams(m.TypeParams, types.MethodTypeParameter),
		Static:     m.Modifiers.Static,
		Override:   m.Modifiers.Override,
		Macro:      m.Modifiers.Macro,
		Inline:     m.Modifiers.Inline,
		Overloaded: m.HasMeta("overload"),
		Decl:       m,
	}
	scope := typeScope(classScope, mm.TypeParams)
	ix.resolveConstraints(m.TypeParams, file, scope)
	for _, p := range m.Params {
		mm.Params = append(mm.Params, ix.parameterModel(p, file, scope))
	}
	switch {
	case m.ReturnType != nil:
		mm.Return = ix.resolveType(m.ReturnType, file, scope)
	case m.Body == nil && !mm.IsConstructor():
		mm.Return = ix.std.Void(m)
	}
	ix.methods[m] = mm
	return mm
}

func (ix *Index) parameterModel(p *parser.Parameter, file *parser.File, scope *Scope) *types.ParameterModel {
	pm := &types.ParameterModel{
		Name:       p.Name.Value,
		Optional:   p.Optional,
		HasDefault: p.Default != nil,
		Rest:       p.Rest,
		Decl:       p,
	}
	if p.Type != nil {
		pm.Type = ix.resolveType(p.Type, file, scope)
		if p.Rest {
			pm.Type = ix.std.RestOf(pm.Type, p.Type)
		}
	}
	ix.params[p] = pm
	return pm
}

func (ix *Index) enumHeader(d *parser.EnumDeclaration, model *types.ClassModel, file *parser.File) {
	scope := typeScope(nil, model.TypeParams)
	ix.resolveConstraints(d.TypeParams, file, scope)
	for _, c := range d.Constructors {
		ctor := &types.EnumConstructor{Name: c.Name.Value, Decl: c}
		for _, p := range c.Params {
			ctor.Params = append(ctor.Params, ix.parameterModel(p, file, scope))
		}
		model.AddEnumConstructor(ctor)
		ix.ctors[c] = ctor
	}
}

func (ix *Index) typedefHeader(d *parser.TypedefDeclaration, model *types.ClassModel, file *parser.File) {
	scope := typeScope(nil, model.TypeParams)
	ix.resolveConstraints(d.TypeParams, file, scope)
	model.Alias = ix.resolveType(d.Type, file, scope)
}
