package types

import (
	"fmt"
	"strings"

	"hxinfer/pkg/source"
)

// Node is the part of a syntax node the type model depends on. Types keep a
// non-owning back reference to the node they were computed from.
type Node interface {
	Range() source.TextRange
}

// Type is the resolved type of an expression or declaration.
type Type interface {
	String() string
	// Equals compares two types structurally, ignoring constants and sources.
	Equals(other Type) bool
	// Constant is the compile-time value carried by the type, if any:
	// int64, float64, string, bool or NullValue.
	Constant() any
	Source() Node

	withMeta(m meta) Type
	typeNode()
}

type meta struct {
	constant any
	source   Node
}

func (m meta) Constant() any { return m.constant }
func (m meta) Source() Node  { return m.source }
func (m meta) typeNode()     {}

type nullConstant struct{}

func (nullConstant) String() string { return "null" }

// NullValue is the constant carried by the type of a null literal.
var NullValue any = nullConstant{}

// --- Variants ---

// Unknown is the result of evaluating something the engine could not type.
type Unknown struct{ meta }

func NewUnknown(src Node) *Unknown { return &Unknown{meta{source: src}} }

func (u *Unknown) String() string { return "Unknown" }
func (u *Unknown) Equals(other Type) bool {
	_, ok := other.(*Unknown)
	return ok
}
func (u *Unknown) withMeta(m meta) Type { return &Unknown{m} }

// Dynamic accepts and is accepted by every type.
type Dynamic struct{ meta }

func NewDynamic(src Node) *Dynamic { return &Dynamic{meta{source: src}} }

func (d *Dynamic) String() string { return "Dynamic" }
func (d *Dynamic) Equals(other Type) bool {
	_, ok := other.(*Dynamic)
	return ok
}
func (d *Dynamic) withMeta(m meta) Type { return &Dynamic{m} }

// TypeParamRef is a reference to a type parameter that has not been bound.
type TypeParamRef struct {
	meta
	Param *TypeParameter
}

func NewTypeParamRef(p *TypeParameter) *TypeParamRef { return &TypeParamRef{Param: p} }

func (t *TypeParamRef) Name() string { return t.Param.Name }

func (t *TypeParamRef) String() string { return t.Param.Name }
func (t *TypeParamRef) Equals(other Type) bool {
	o, ok := other.(*TypeParamRef)
	return ok && o.Param.Name == t.Param.Name
}
func (t *TypeParamRef) withMeta(m meta) Type { return &TypeParamRef{meta: m, Param: t.Param} }

// ClassInstance is a class, interface, enum, abstract, typedef or anonymous
// structure applied to generic arguments. Args is either empty (unresolved)
// or has one entry per type parameter of Class.
type ClassInstance struct {
	meta
	Class    *ClassModel
	Args     []Type
	Nullable bool
}

func NewInstance(class *ClassModel, args ...Type) *ClassInstance {
	return &ClassInstance{Class: class, Args: args}
}

func (c *ClassInstance) String() string {
	var out strings.Builder
	if c.Nullable {
		out.WriteString("Null<")
	}
	if c.Class.Kind == KindAnonymous {
		out.WriteString(anonymousString(c))
	} else {
		out.WriteString(c.Class.Name)
		if len(c.Args) > 0 {
			out.WriteString("<")
			for i, a := range c.Args {
				if i > 0 {
					out.WriteString(", ")
				}
				out.WriteString(typeString(a))
			}
			out.WriteString(">")
		}
	}
	if c.Nullable {
		out.WriteString(">")
	}
	return out.String()
}

func anonymousString(c *ClassInstance) string {
	resolver := c.GenericResolver()
	parts := make([]string, 0, len(c.Class.Fields)+len(c.Class.Methods))
	for _, f := range c.Class.Fields {
		prefix := ""
		if f.Optional {
			prefix = "?"
		}
		parts = append(parts, fmt.Sprintf("%s%s : %s", prefix, f.Name, typeString(resolver.ResolveType(f.Type))))
	}
	for _, m := range c.Class.Methods {
		parts = append(parts, fmt.Sprintf("%s : %s", m.Name, resolver.ResolveType(m.FunctionType()).String()))
	}
	if len(parts) == 0 {
		return "{ }"
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}

func (c *ClassInstance) Equals(other Type) bool {
	o, ok := other.(*ClassInstance)
	if !ok || o.Class != c.Class || o.Nullable != c.Nullable {
		return false
	}
	if len(c.Args) != len(o.Args) {
		return len(c.Args) == 0 || len(o.Args) == 0
	}
	for i := range c.Args {
		if !equalTypes(c.Args[i], o.Args[i]) {
			return false
		}
	}
	return true
}

func (c *ClassInstance) withMeta(m meta) Type {
	return &ClassInstance{meta: m, Class: c.Class, Args: c.Args, Nullable: c.Nullable}
}

// GenericResolver maps the class type parameters to the instance arguments.
// Parameters without an argument are bound to Unknown.
func (c *ClassInstance) GenericResolver() *GenericResolver {
	r := NewGenericResolver()
	for i, p := range c.Class.TypeParams {
		var arg Type = NewUnknown(nil)
		if i < len(c.Args) && c.Args[i] != nil {
			arg = c.Args[i]
		}
		r.Add(p.Name, arg, ClassTypeParameter)
	}
	return r
}

// Argument is one positional argument of a function type.
type Argument struct {
	Name     string
	Type     Type
	Optional bool
	Rest     bool
}

// Function is a function signature, optionally tied to the method it was
// built from.
type Function struct {
	meta
	Args   []Argument
	Return Type
	Method *MethodModel
}

func NewFunction(args []Argument, ret Type) *Function {
	return &Function{Args: args, Return: ret}
}

func (f *Function) String() string {
	parts := make([]string, len(f.Args))
	for i, a := range f.Args {
		var b strings.Builder
		if a.Rest {
			b.WriteString("...")
		}
		if a.Optional {
			b.WriteString("?")
		}
		if a.Name != "" {
			b.WriteString(a.Name)
			b.WriteString(":")
		}
		b.WriteString(typeString(a.Type))
		parts[i] = b.String()
	}
	return "(" + strings.Join(parts, ", ") + ") -> " + typeString(f.Return)
}

func (f *Function) Equals(other Type) bool {
	o, ok := other.(*Function)
	if !ok || len(o.Args) != len(f.Args) {
		return false
	}
	for i := range f.Args {
		if f.Args[i].Optional != o.Args[i].Optional || f.Args[i].Rest != o.Args[i].Rest {
			return false
		}
		if !equalTypes(f.Args[i].Type, o.Args[i].Type) {
			return false
		}
	}
	return equalTypes(f.Return, o.Return)
}

func (f *Function) withMeta(m meta) Type {
	return &Function{meta: m, Args: f.Args, Return: f.Return, Method: f.Method}
}

// RequiredCount is the number of arguments a call must supply.
func (f *Function) RequiredCount() int {
	n := 0
	for _, a := range f.Args {
		if !a.Optional && !a.Rest && !IsVoid(a.Type) {
			n++
		}
	}
	return n
}

// HasRest reports whether the last argument absorbs any number of values.
func (f *Function) HasRest() bool {
	for _, a := range f.Args {
		if a.Rest {
			return true
		}
	}
	return false
}

// EnumValue is the type of one enum constructor applied to the enum.
type EnumValue struct {
	meta
	Enum        *ClassInstance
	Constructor *EnumConstructor
}

func NewEnumValue(enum *ClassInstance, ctor *EnumConstructor) *EnumValue {
	return &EnumValue{Enum: enum, Constructor: ctor}
}

// String presents the enum the value belongs to.
func (e *EnumValue) String() string { return e.Enum.String() }

func (e *EnumValue) Equals(other Type) bool {
	o, ok := other.(*EnumValue)
	return ok && o.Constructor.Name == e.Constructor.Name && e.Enum.Equals(o.Enum)
}

func (e *EnumValue) withMeta(m meta) Type {
	return &EnumValue{meta: m, Enum: e.Enum, Constructor: e.Constructor}
}

// --- Meta helpers ---

// WithConstant returns a copy of t carrying the given constant.
func WithConstant(t Type, c any) Type {
	if t == nil {
		return nil
	}
	return t.withMeta(meta{constant: c, source: t.Source()})
}

// WithoutConstant returns t without its constant; t itself if it has none.
func WithoutConstant(t Type) Type {
	if t == nil || t.Constant() == nil {
		return t
	}
	return t.withMeta(meta{source: t.Source()})
}

// WithSource returns a copy of t pointing back at src.
func WithSource(t Type, src Node) Type {
	if t == nil {
		return nil
	}
	return t.withMeta(meta{constant: t.Constant(), source: src})
}

func typeString(t Type) string {
	if t == nil {
		return "Unknown"
	}
	return t.String()
}

func equalTypes(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equals(b)
}

// --- Predicates ---

// IsUnknown treats a missing type as unknown.
func IsUnknown(t Type) bool {
	if t == nil {
		return true
	}
	_, ok := t.(*Unknown)
	return ok
}

func IsDynamic(t Type) bool {
	_, ok := t.(*Dynamic)
	return ok
}

// IsDynamicBecauseOfNull reports the type of a bare null literal.
func IsDynamicBecauseOfNull(t Type) bool {
	return IsDynamic(t) && t.Constant() == NullValue
}

func IsTypeParam(t Type) bool {
	_, ok := t.(*TypeParamRef)
	return ok
}

func IsFunction(t Type) bool {
	_, ok := t.(*Function)
	return ok
}

func IsEnumValue(t Type) bool {
	_, ok := t.(*EnumValue)
	return ok
}

// AsClass returns t as a class instance, or nil.
func AsClass(t Type) *ClassInstance {
	c, _ := t.(*ClassInstance)
	return c
}

func isCore(t Type, name string) bool {
	c := AsClass(t)
	return c != nil && c.Class.Pack == "" && c.Class.Name == name
}

func IsVoid(t Type) bool   { return isCore(t, "Void") }
func IsInt(t Type) bool    { return isCore(t, "Int") }
func IsFloat(t Type) bool  { return isCore(t, "Float") }
func IsBool(t Type) bool   { return isCore(t, "Bool") }
func IsString(t Type) bool { return isCore(t, "String") }
func IsArray(t Type) bool  { return isCore(t, "Array") }

func IsNumeric(t Type) bool { return IsInt(t) || IsFloat(t) }

func IsAnonymous(t Type) bool {
	c := AsClass(t)
	return c != nil && c.Class.Kind == KindAnonymous
}

func IsNullable(t Type) bool {
	c := AsClass(t)
	return c != nil && c.Nullable
}

// UnwrapNull strips a Null<T> wrapper, keeping everything else.
func UnwrapNull(t Type) Type {
	c := AsClass(t)
	if c == nil || !c.Nullable {
		return t
	}
	return &ClassInstance{meta: c.meta, Class: c.Class, Args: c.Args}
}

// WrapNull returns t as Null<t>. Dynamic and type parameters are returned
// unchanged.
func WrapNull(t Type) Type {
	c := AsClass(t)
	if c == nil || c.Nullable {
		return t
	}
	return &ClassInstance{meta: c.meta, Class: c.Class, Args: c.Args, Nullable: true}
}

// ContainsTypeParameters reports whether an unbound type parameter occurs
// anywhere inside t.
func ContainsTypeParameters(t Type) bool {
	return containsMatching(t, IsTypeParam, 0)
}

// ContainsUnknowns reports whether Unknown occurs anywhere inside t.
func ContainsUnknowns(t Type) bool {
	return containsMatching(t, func(x Type) bool {
		_, ok := x.(*Unknown)
		return ok
	}, 0)
}

// IsResolved holds for types that are neither Unknown nor carry unbound
// type parameters or unknown arguments.
func IsResolved(t Type) bool {
	return !IsUnknown(t) && !ContainsTypeParameters(t) && !ContainsUnknowns(t)
}

func containsMatching(t Type, pred func(Type) bool, depth int) bool {
	if t == nil || depth > maxDepth {
		return false
	}
	if pred(t) {
		return true
	}
	switch v := t.(type) {
	case *ClassInstance:
		for _, a := range v.Args {
			if containsMatching(a, pred, depth+1) {
				return true
			}
		}
	case *Function:
		for _, a := range v.Args {
			if containsMatching(a.Type, pred, depth+1) {
				return true
			}
		}
		return containsMatching(v.Return, pred, depth+1)
	case *EnumValue:
		return containsMatching(v.Enum, pred, depth+1)
	}
	return false
}

// maxDepth bounds walks over self-referential type graphs.
const maxDepth = 32
