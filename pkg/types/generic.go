package types

import (
	"fmt"
	"slices"
	"strings"
)

func (tp *TypeParameter) String() string {
	if tp.Constraint != nil {
		return fmt.Sprintf("%s:%s", tp.Name, tp.Constraint.String())
	}
	return tp.Name
}

// ResolveSource records where a generic binding came from.
type ResolveSource int

const (
	ClassTypeParameter ResolveSource = iota
	MethodTypeParameter
	ArgumentType
	AssignType
)

func (s ResolveSource) String() string {
	switch s {
	case ClassTypeParameter:
		return "class"
	case MethodTypeParameter:
		return "method"
	case ArgumentType:
		return "argument"
	case AssignType:
		return "assign"
	}
	return fmt.Sprintf("ResolveSource(%d)", int(s))
}

// ResolverEntry is one binding of a GenericResolver.
type ResolverEntry struct {
	Name   string
	Type   Type
	Source ResolveSource
}

// GenericResolver maps type parameter names to types. A name holds at most
// one entry per source; re-adding a name under the same source replaces the
// entry and moves it to the end. Lookups by name return the entry added
// last. A nil resolver is empty.
type GenericResolver struct {
	entries []ResolverEntry
}

func NewGenericResolver() *GenericResolver {
	return &GenericResolver{}
}

// Add binds name under source. A nil type is ignored.
func (r *GenericResolver) Add(name string, t Type, source ResolveSource) *GenericResolver {
	if t == nil {
		return r
	}
	r.entries = slices.DeleteFunc(r.entries, func(e ResolverEntry) bool {
		return e.Name == name && e.Source == source
	})
	r.entries = append(r.entries, ResolverEntry{Name: name, Type: t, Source: source})
	return r
}

// AddAll copies every entry of other, keeping their sources.
func (r *GenericResolver) AddAll(other *GenericResolver) *GenericResolver {
	if other == nil {
		return r
	}
	for _, e := range other.entries {
		r.Add(e.Name, e.Type, e.Source)
	}
	return r
}

// AddAllAs copies every entry of other under a single source.
func (r *GenericResolver) AddAllAs(other *GenericResolver, source ResolveSource) *GenericResolver {
	if other == nil {
		return r
	}
	for _, e := range other.entries {
		r.Add(e.Name, e.Type, source)
	}
	return r
}

// Resolve returns the most recent binding of name, or nil.
func (r *GenericResolver) Resolve(name string) Type {
	if r == nil {
		return nil
	}
	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].Name == name {
			return r.entries[i].Type
		}
	}
	return nil
}

// ResolveFrom returns the binding of name under one source, or nil.
func (r *GenericResolver) ResolveFrom(name string, source ResolveSource) Type {
	if r == nil {
		return nil
	}
	for i := len(r.entries) - 1; i >= 0; i-- {
		if e := r.entries[i]; e.Name == name && e.Source == source {
			return e.Type
		}
	}
	return nil
}

func (r *GenericResolver) Contains(name string) bool {
	return r.Resolve(name) != nil
}

// ResolveType substitutes bound names inside t through class arguments and
// function arguments and returns. Unbound names and names bound to Unknown
// are left in place. Substituted values are not resolved again.
func (r *GenericResolver) ResolveType(t Type) Type {
	if r == nil || len(r.entries) == 0 || t == nil {
		return t
	}
	return r.resolve(t, 0)
}

func (r *GenericResolver) resolve(t Type, depth int) Type {
	if depth > maxDepth {
		return t
	}
	switch v := t.(type) {
	case *TypeParamRef:
		bound := r.Resolve(v.Name())
		if bound == nil || IsUnknown(bound) {
			return t
		}
		if src := t.Source(); src != nil && bound.Source() == nil {
			bound = WithSource(bound, src)
		}
		return bound
	case *ClassInstance:
		if len(v.Args) == 0 {
			return t
		}
		args := make([]Type, len(v.Args))
		changed := false
		for i, a := range v.Args {
			args[i] = r.resolve(a, depth+1)
			changed = changed || args[i] != a
		}
		if !changed {
			return t
		}
		return &ClassInstance{meta: v.meta, Class: v.Class, Args: args, Nullable: v.Nullable}
	case *Function:
		args := make([]Argument, len(v.Args))
		for i, a := range v.Args {
			a.Type = r.resolve(a.Type, depth+1)
			args[i] = a
		}
		return &Function{meta: v.meta, Args: args, Return: r.resolve(v.Return, depth+1), Method: v.Method}
	case *EnumValue:
		enum, _ := r.resolve(v.Enum, depth+1).(*ClassInstance)
		if enum == nil || enum == v.Enum {
			return t
		}
		return &EnumValue{meta: v.meta, Enum: enum, Constructor: v.Constructor}
	}
	return t
}

// WithoutUnknowns returns a copy without entries bound to Unknown.
func (r *GenericResolver) WithoutUnknowns() *GenericResolver {
	out := NewGenericResolver()
	if r == nil {
		return out
	}
	for _, e := range r.entries {
		if !IsUnknown(e.Type) {
			out.entries = append(out.entries, e)
		}
	}
	return out
}

// Without returns a copy lacking every entry for name.
func (r *GenericResolver) Without(name string) *GenericResolver {
	return r.RemoveAll([]string{name})
}

// RemoveAll returns a copy lacking every entry for the given names.
func (r *GenericResolver) RemoveAll(names []string) *GenericResolver {
	out := r.Copy()
	out.entries = slices.DeleteFunc(out.entries, func(e ResolverEntry) bool {
		return slices.Contains(names, e.Name)
	})
	return out
}

// RemoveClassScopeIfMethodPresent drops class-scope entries whose name is
// also bound as a method type parameter.
func (r *GenericResolver) RemoveClassScopeIfMethodPresent() *GenericResolver {
	out := r.Copy()
	methodNames := make(map[string]bool)
	for _, e := range out.entries {
		if e.Source == MethodTypeParameter {
			methodNames[e.Name] = true
		}
	}
	out.entries = slices.DeleteFunc(out.entries, func(e ResolverEntry) bool {
		return e.Source == ClassTypeParameter && methodNames[e.Name]
	})
	return out
}

// Names lists the bound names in first-seen order, without duplicates.
func (r *GenericResolver) Names() []string {
	if r == nil {
		return nil
	}
	var names []string
	for _, e := range r.entries {
		if !slices.Contains(names, e.Name) {
			names = append(names, e.Name)
		}
	}
	return names
}

func (r *GenericResolver) Entries() []ResolverEntry {
	if r == nil {
		return nil
	}
	return slices.Clone(r.entries)
}

func (r *GenericResolver) IsEmpty() bool { return r == nil || len(r.entries) == 0 }

func (r *GenericResolver) Len() int {
	if r == nil {
		return 0
	}
	return len(r.entries)
}

func (r *GenericResolver) Copy() *GenericResolver {
	out := NewGenericResolver()
	if r != nil {
		out.entries = slices.Clone(r.entries)
	}
	return out
}

// CacheKey is a stable signature of the resolver's state.
func (r *GenericResolver) CacheKey() string {
	if r == nil || len(r.entries) == 0 {
		return ""
	}
	var b strings.Builder
	for i, e := range r.entries {
		if i > 0 {
			b.WriteByte(';')
		}
		fmt.Fprintf(&b, "%s:%d=%s", e.Name, e.Source, typeString(e.Type))
	}
	return b.String()
}

func (r *GenericResolver) String() string {
	return "{" + r.CacheKey() + "}"
}

// EraseTypeParams replaces references to the named type parameters with
// Unknown.
func EraseTypeParams(t Type, names ...string) Type {
	if t == nil || len(names) == 0 {
		return t
	}
	return erase(t, names, 0)
}

func erase(t Type, names []string, depth int) Type {
	if depth > maxDepth {
		return t
	}
	switch v := t.(type) {
	case *TypeParamRef:
		if slices.Contains(names, v.Name()) {
			return NewUnknown(v.Source())
		}
	case *ClassInstance:
		if len(v.Args) == 0 {
			return t
		}
		args := make([]Type, len(v.Args))
		changed := false
		for i, a := range v.Args {
			args[i] = erase(a, names, depth+1)
			changed = changed || args[i] != a
		}
		if changed {
			return &ClassInstance{meta: v.meta, Class: v.Class, Args: args, Nullable: v.Nullable}
		}
	case *Function:
		args := make([]Argument, len(v.Args))
		for i, a := range v.Args {
			a.Type = erase(a.Type, names, depth+1)
			args[i] = a
		}
		return &Function{meta: v.meta, Args: args, Return: erase(v.Return, names, depth+1), Method: v.Method}
	case *EnumValue:
		if enum, _ := erase(v.Enum, names, depth+1).(*ClassInstance); enum != nil && enum != v.Enum {
			return &EnumValue{meta: v.meta, Enum: enum, Constructor: v.Constructor}
		}
	}
	return t
}
