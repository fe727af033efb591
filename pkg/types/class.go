package types

import (
	set "github.com/hashicorp/go-set/v3"
)

// ClassKind distinguishes the declarations a ClassModel can come from.
type ClassKind int

const (
	KindClass ClassKind = iota
	KindInterface
	KindEnum
	KindAbstract
	KindTypedef
	KindAnonymous
)

func (k ClassKind) String() string {
	switch k {
	case KindInterface:
		return "interface"
	case KindEnum:
		return "enum"
	case KindAbstract:
		return "abstract"
	case KindTypedef:
		return "typedef"
	case KindAnonymous:
		return "anonymous"
	default:
		return "class"
	}
}

// ClassModel is the declaration model of a named or anonymous type.
type ClassModel struct {
	Name string
	Pack string // dotted package path, empty for the top level
	Kind ClassKind

	TypeParams []*TypeParameter
	Super      *ClassInstance
	Interfaces []*ClassInstance

	Fields           []*FieldModel
	Methods          []*MethodModel
	Constructor      *MethodModel
	EnumConstructors []*EnumConstructor

	// Alias is the target of a typedef or the underlying type of an abstract.
	Alias Type
	// From and To list the implicit casts of an abstract.
	From []Type
	To   []Type

	// Missing marks a placeholder for a type whose declaration could not be
	// found. Comparisons against it are inconclusive.
	Missing bool
	Meta    []string
	Decl    Node
}

func NewClass(name string, kind ClassKind) *ClassModel {
	return &ClassModel{Name: name, Kind: kind}
}

// NewMissingClass builds the placeholder used for unresolvable type names.
func NewMissingClass(name string) *ClassModel {
	return &ClassModel{Name: name, Kind: KindClass, Missing: true}
}

func (c *ClassModel) QualifiedName() string {
	if c.Pack == "" {
		return c.Name
	}
	return c.Pack + "." + c.Name
}

func (c *ClassModel) String() string { return c.QualifiedName() }

func (c *ClassModel) HasMeta(name string) bool {
	for _, m := range c.Meta {
		if m == name {
			return true
		}
	}
	return false
}

func (c *ClassModel) AddField(f *FieldModel) {
	f.Class = c
	c.Fields = append(c.Fields, f)
}

func (c *ClassModel) AddMethod(m *MethodModel) {
	m.Class = c
	if m.IsConstructor() {
		c.Constructor = m
		return
	}
	c.Methods = append(c.Methods, m)
}

func (c *ClassModel) AddEnumConstructor(e *EnumConstructor) {
	e.Enum = c
	c.EnumConstructors = append(c.EnumConstructors, e)
}

// Field finds a field declared directly on c.
func (c *ClassModel) Field(name string) *FieldModel {
	for _, f := range c.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Method finds a method declared directly on c.
func (c *ClassModel) Method(name string) *MethodModel {
	for _, m := range c.Methods {
		if m.Name == name {
			return m
		}
	}
	return nil
}

func (c *ClassModel) EnumConstructor(name string) *EnumConstructor {
	for _, e := range c.EnumConstructors {
		if e.Name == name {
			return e
		}
	}
	return nil
}

// SelfInstance is the class applied to its own type parameters, the type of
// `this` inside the class body.
func (c *ClassModel) SelfInstance() *ClassInstance {
	args := make([]Type, len(c.TypeParams))
	for i, p := range c.TypeParams {
		args[i] = NewTypeParamRef(p)
	}
	return NewInstance(c, args...)
}

// Supers lists the direct supertypes: the super class first, then the
// implemented interfaces.
func (c *ClassModel) Supers() []*ClassInstance {
	out := make([]*ClassInstance, 0, len(c.Interfaces)+1)
	if c.Super != nil {
		out = append(out, c.Super)
	}
	return append(out, c.Interfaces...)
}

// CompatibleTypes is the set of c and every class it transitively extends or
// implements. Typedefs contribute their target.
func (c *ClassModel) CompatibleTypes() *set.Set[*ClassModel] {
	out := set.New[*ClassModel](4)
	var visit func(m *ClassModel)
	visit = func(m *ClassModel) {
		if m == nil || !out.Insert(m) {
			return
		}
		for _, s := range m.Supers() {
			visit(s.Class)
		}
		if m.Kind == KindTypedef {
			if target := AsClass(m.Alias); target != nil {
				visit(target.Class)
			}
		}
	}
	visit(c)
	return out
}

// IsSubclassOf reports whether other is c or one of its ancestors.
func (c *ClassModel) IsSubclassOf(other *ClassModel) bool {
	return c.CompatibleTypes().Contains(other)
}

// Ancestors lists inst followed by all its supertypes with their generic
// arguments expressed in terms of inst's arguments. Each class appears once.
func Ancestors(inst *ClassInstance) []*ClassInstance {
	seen := set.New[*ClassModel](4)
	var out []*ClassInstance
	queue := []*ClassInstance{inst}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == nil || !seen.Insert(cur.Class) {
			continue
		}
		out = append(out, cur)
		resolver := cur.GenericResolver()
		for _, s := range cur.Class.Supers() {
			if resolved := AsClass(resolver.ResolveType(s)); resolved != nil {
				queue = append(queue, resolved)
			}
		}
	}
	return out
}

// AncestorOf finds the view of inst as the given declaring class.
func AncestorOf(inst *ClassInstance, declaring *ClassModel) *ClassInstance {
	for _, a := range Ancestors(inst) {
		if a.Class == declaring {
			return a
		}
	}
	return nil
}

// InheritedResolver maps the type parameters of declaring to the arguments
// the receiver supplies for them. A receiver unrelated to declaring yields
// the receiver's own resolver.
func InheritedResolver(declaring *ClassModel, receiver *ClassInstance) *GenericResolver {
	if receiver == nil {
		return NewGenericResolver()
	}
	if a := AncestorOf(receiver, declaring); a != nil {
		return a.GenericResolver()
	}
	return receiver.GenericResolver()
}

// ResolveTypedef follows typedef chains until a non-typedef type is found.
// Nullability of any step is kept.
func ResolveTypedef(t Type) Type {
	for i := 0; i < maxDepth; i++ {
		c := AsClass(t)
		if c == nil || c.Class.Kind != KindTypedef || c.Class.Alias == nil {
			return t
		}
		next := c.GenericResolver().ResolveType(c.Class.Alias)
		if c.Nullable {
			next = WrapNull(next)
		}
		t = next
	}
	return t
}

// Member is a field or a method.
type Member interface {
	MemberName() string
	IsStatic() bool
	DeclaringClass() *ClassModel
}

// FindMember looks name up on inst and its ancestors, following typedefs.
// It returns the member and the ancestor instance it was declared on.
func FindMember(inst *ClassInstance, name string) (Member, *ClassInstance) {
	if inst == nil {
		return nil, nil
	}
	if target := AsClass(ResolveTypedef(UnwrapNull(inst))); target != nil && target.Class != inst.Class {
		inst = target
	}
	for _, a := range Ancestors(inst) {
		if f := a.Class.Field(name); f != nil {
			return f, a
		}
		if m := a.Class.Method(name); m != nil {
			return m, a
		}
	}
	if inst.Class.Kind == KindAbstract && inst.Class.Alias != nil {
		if under := AsClass(inst.GenericResolver().ResolveType(inst.Class.Alias)); under != nil && under.Class != inst.Class {
			return FindMember(under, name)
		}
	}
	return nil, nil
}

// MemberType is the type of a member seen through the ancestor instance it
// was found on.
func MemberType(m Member, owner *ClassInstance) Type {
	var resolver *GenericResolver
	if owner != nil {
		resolver = owner.GenericResolver()
	}
	switch v := m.(type) {
	case *FieldModel:
		if v.Type == nil {
			return NewUnknown(v.Decl)
		}
		return resolver.ResolveType(v.Type)
	case *MethodModel:
		return resolver.ResolveType(v.FunctionType())
	}
	return NewUnknown(nil)
}

// FieldModel is a var or final member.
type FieldModel struct {
	Name     string
	Type     Type // nil when the declaration carries no type tag
	Static   bool
	Final    bool
	Optional bool // anonymous structure field declared with '?'
	HasInit  bool
	Class    *ClassModel
	Decl     Node
}

func (f *FieldModel) MemberName() string          { return f.Name }
func (f *FieldModel) IsStatic() bool              { return f.Static }
func (f *FieldModel) DeclaringClass() *ClassModel { return f.Class }

// MethodModel is a method or constructor declaration.
type MethodModel struct {
	Name       string
	TypeParams []*TypeParameter
	Params     []*ParameterModel
	Return     Type // nil: inferred from the body

	Static     bool
	Override   bool
	Macro      bool
	Inline     bool
	Overloaded bool

	Class *ClassModel
	Decl  Node
}

func (m *MethodModel) MemberName() string          { return m.Name }
func (m *MethodModel) IsStatic() bool              { return m.Static }
func (m *MethodModel) DeclaringClass() *ClassModel { return m.Class }
func (m *MethodModel) IsConstructor() bool         { return m.Name == "new" }

// FunctionType is the declared signature. An inferred return type is left
// Unknown; the evaluator fills it in from the body.
func (m *MethodModel) FunctionType() *Function {
	args := make([]Argument, len(m.Params))
	for i, p := range m.Params {
		args[i] = p.Argument()
	}
	var ret Type = NewUnknown(m.Decl)
	if m.Return != nil {
		ret = m.Return
	}
	if m.IsConstructor() && m.Class != nil {
		ret = m.Class.SelfInstance()
	}
	fn := NewFunction(args, ret)
	fn.Method = m
	fn.meta.source = m.Decl
	return fn
}

// GenericResolver lists the method's own type parameters, unbound.
func (m *MethodModel) GenericResolver() *GenericResolver {
	r := NewGenericResolver()
	for _, p := range m.TypeParams {
		r.Add(p.Name, NewUnknown(nil), MethodTypeParameter)
	}
	return r
}

// TypeParamNames lists the names of the method's own type parameters.
func (m *MethodModel) TypeParamNames() []string {
	names := make([]string, len(m.TypeParams))
	for i, p := range m.TypeParams {
		names[i] = p.Name
	}
	return names
}

// ParameterModel is one declared parameter.
type ParameterModel struct {
	Name       string
	Type       Type // nil when untyped
	Optional   bool // declared with '?'
	HasDefault bool
	Rest       bool
	Decl       Node
}

// Required reports whether a call must supply the parameter.
func (p *ParameterModel) Required() bool {
	return !p.Optional && !p.HasDefault && !p.Rest
}

// Argument converts the parameter to a function type argument.
func (p *ParameterModel) Argument() Argument {
	var t Type = NewUnknown(p.Decl)
	if p.Type != nil {
		t = p.Type
	}
	return Argument{Name: p.Name, Type: t, Optional: p.Optional || p.HasDefault, Rest: p.Rest}
}

// EnumConstructor is one constructor of an enum.
type EnumConstructor struct {
	Name   string
	Params []*ParameterModel
	Enum   *ClassModel
	Decl   Node
}

// FunctionType is the signature of the constructor when called.
func (e *EnumConstructor) FunctionType() *Function {
	args := make([]Argument, len(e.Params))
	for i, p := range e.Params {
		args[i] = p.Argument()
	}
	fn := NewFunction(args, e.Enum.SelfInstance())
	fn.meta.source = e.Decl
	return fn
}

// TypeParameter is a declared type parameter with an optional constraint.
type TypeParameter struct {
	Name       string
	Constraint Type
	Scope      ResolveSource // ClassTypeParameter or MethodTypeParameter
	Decl       Node
}
