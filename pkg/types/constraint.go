package types

// ConstraintTable holds the declared constraints of the type parameters in
// play at one call site. Entries are keyed by name and scope; a lookup by
// name alone prefers the method scope over the class scope.
//
// During validation the table also records bindings inferred from the
// arguments, so later parameters are checked against them.
type ConstraintTable struct {
	entries map[constraintKey]Type
}

type constraintKey struct {
	name  string
	scope ResolveSource
}

func NewConstraintTable() *ConstraintTable {
	return &ConstraintTable{entries: make(map[constraintKey]Type)}
}

// ConstraintTableFor builds the table for a callee: the declaring class's
// type parameters under class scope and the method's own under method
// scope. Constructors treat the class parameters as their own. Constraints
// are resolved through resolver.
func ConstraintTableFor(method *MethodModel, resolver *GenericResolver) *ConstraintTable {
	t := NewConstraintTable()
	if method == nil {
		return t
	}
	resolver = resolver.WithoutUnknowns()
	if c := method.Class; c != nil {
		scope := ClassTypeParameter
		if method.IsConstructor() {
			scope = MethodTypeParameter
		}
		for _, p := range c.TypeParams {
			t.Put(p.Name, resolveConstraint(p, resolver), scope)
		}
	}
	for _, p := range method.TypeParams {
		t.Put(p.Name, resolveConstraint(p, resolver), MethodTypeParameter)
	}
	return t
}

func resolveConstraint(p *TypeParameter, resolver *GenericResolver) Type {
	if p.Constraint == nil {
		return nil
	}
	return resolver.ResolveType(p.Constraint)
}

// Put records a constraint. A nil constraint declares the name without one.
func (t *ConstraintTable) Put(name string, constraint Type, scope ResolveSource) {
	t.entries[constraintKey{name, scope}] = constraint
}

// Get returns the constraint of name, method scope first.
func (t *ConstraintTable) Get(name string) Type {
	if c, ok := t.entries[constraintKey{name, MethodTypeParameter}]; ok {
		return c
	}
	return t.entries[constraintKey{name, ClassTypeParameter}]
}

// GetIn returns the constraint of name in one scope.
func (t *ConstraintTable) GetIn(name string, scope ResolveSource) Type {
	return t.entries[constraintKey{name, scope}]
}

// Contains reports whether name is declared in any scope.
func (t *ConstraintTable) Contains(name string) bool {
	return t.ContainsIn(name, MethodTypeParameter) || t.ContainsIn(name, ClassTypeParameter)
}

func (t *ConstraintTable) ContainsIn(name string, scope ResolveSource) bool {
	_, ok := t.entries[constraintKey{name, scope}]
	return ok
}

// ApplyCallee records the receiver's class arguments as class-scope
// constraints, so arguments must fit what the receiver was built with.
func (t *ConstraintTable) ApplyCallee(resolver *GenericResolver) {
	for _, e := range resolver.WithoutUnknowns().Entries() {
		t.Put(e.Name, e.Type, ClassTypeParameter)
	}
}

// Mentions reports whether a declared name of the table occurs in typ.
func (t *ConstraintTable) Mentions(typ Type) bool {
	return containsMatching(typ, func(x Type) bool {
		ref, ok := x.(*TypeParamRef)
		return ok && t.Contains(ref.Name())
	}, 0)
}

// Resolver exposes the recorded constraints as a resolver, method scope last
// so it wins on lookup.
func (t *ConstraintTable) Resolver() *GenericResolver {
	r := NewGenericResolver()
	for _, scope := range []ResolveSource{ClassTypeParameter, MethodTypeParameter} {
		for k, c := range t.entries {
			if k.scope == scope && c != nil {
				r.Add(k.name, c, scope)
			}
		}
	}
	return r
}
