package types

// UnificationRule selects how Void and null-literal operands are treated.
type UnificationRule int

const (
	// UnifyDefault lets a non-void operand win over Void.
	UnifyDefault UnificationRule = iota
	// UnifyPreferVoid lets Void win; used for function return types.
	UnifyPreferVoid
	// UnifyIgnoreVoid drops Void operands; used for literal elements.
	UnifyIgnoreVoid
	// UnifyNull additionally lets a concrete operand absorb the Dynamic
	// produced by a null literal.
	UnifyNull
)

func (r UnificationRule) String() string {
	switch r {
	case UnifyPreferVoid:
		return "prefer-void"
	case UnifyIgnoreVoid:
		return "ignore-void"
	case UnifyNull:
		return "unify-null"
	}
	return "default"
}

// Unify folds values left to right into their least common type. An empty
// list yields Unknown; a single value is returned as is.
func Unify(values []Type, rule UnificationRule) Type {
	return UnifySuggested(values, nil, rule)
}

// UnifySuggested is Unify with a hint, typically a declared type tag, that
// class operands are first unified against.
func UnifySuggested(values []Type, suggested Type, rule UnificationRule) Type {
	if len(values) == 0 {
		return NewUnknown(nil)
	}
	result := values[0]
	for _, v := range values[1:] {
		result = unifyWithSuggestion(result, v, suggested, rule)
	}
	return result
}

// UnifyPair unifies two types.
func UnifyPair(a, b Type, rule UnificationRule) Type {
	return unifyWithSuggestion(a, b, nil, rule)
}

func unifyWithSuggestion(a, b, suggested Type, rule UnificationRule) Type {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if IsUnknown(a) {
		return b
	}
	if IsUnknown(b) {
		return a
	}
	if a.Equals(b) {
		return WithoutConstant(a)
	}

	aNull, bNull := IsDynamicBecauseOfNull(a), IsDynamicBecauseOfNull(b)
	if rule == UnifyNull {
		if aNull && !IsDynamic(b) {
			return WithoutConstant(b)
		}
		if bNull && !IsDynamic(a) {
			return WithoutConstant(a)
		}
	}
	if IsDynamic(a) {
		return WithoutConstant(a)
	}
	if IsDynamic(b) {
		return WithoutConstant(b)
	}

	ca, cb := AsClass(a), AsClass(b)
	if ca != nil && cb != nil {
		if sc := AsClass(suggested); sc != nil {
			r := unifyClasses(sc, ca, rule, 0)
			if rc := AsClass(r); rc != nil {
				r = unifyClasses(rc, cb, rule, 0)
			}
			if !IsDynamic(r) {
				return r
			}
		}
		return unifyClasses(ca, cb, rule, 0)
	}

	if fa, ok := a.(*Function); ok {
		if fb, ok := b.(*Function); ok {
			return unifyFunctions(fa, fb)
		}
	}

	if r := unifyEnums(a, b); r != nil {
		return r
	}
	return NewDynamic(a.Source())
}

func unifyClasses(a, b *ClassInstance, rule UnificationRule, depth int) Type {
	if depth > maxDepth {
		return NewDynamic(a.Source())
	}
	if a.Class.Missing || b.Class.Missing {
		return NewDynamic(a.Source())
	}
	if a.Nullable || b.Nullable {
		inner := unifyClasses(AsClass(UnwrapNull(a)), AsClass(UnwrapNull(b)), rule, depth+1)
		return WrapNull(inner)
	}
	if IsInt(a) && IsFloat(b) {
		return WithoutConstant(b)
	}
	if IsFloat(a) && IsInt(b) {
		return WithoutConstant(a)
	}

	if a.Class == b.Class && len(a.Args) == 0 && len(b.Args) == 0 {
		return WithoutConstant(a)
	}

	if a.Class.Kind == KindAnonymous && CanAssign(a, b) {
		return WithoutConstant(a)
	}
	if b.Class.Kind == KindAnonymous && CanAssign(b, a) {
		return WithoutConstant(b)
	}

	compatB := b.Class.CompatibleTypes()
	for _, ancA := range Ancestors(a) {
		if !compatB.Contains(ancA.Class) {
			continue
		}
		ancB := AncestorOf(b, ancA.Class)
		if len(ancA.Args) == 0 || ancB == nil || len(ancB.Args) == 0 {
			if len(ancA.Args) > 0 {
				return ancA
			}
			if ancB != nil {
				return ancB
			}
			return ancA
		}
		return &ClassInstance{meta: meta{source: a.Source()}, Class: ancA.Class, Args: unifyArguments(ancA.Args, ancB.Args, depth)}
	}

	aVoid, bVoid := IsVoid(a), IsVoid(b)
	switch rule {
	case UnifyPreferVoid:
		if aVoid {
			return a
		}
		if bVoid {
			return b
		}
	default:
		if aVoid && !bVoid {
			return WithoutConstant(b)
		}
		if bVoid && !aVoid {
			return WithoutConstant(a)
		}
	}
	return NewDynamic(a.Source())
}

// unifyArguments unifies generic arguments pairwise. A placeholder on one
// side takes the other side's argument; arguments that do not unify become
// Dynamic.
func unifyArguments(a, b []Type, depth int) []Type {
	n := min(len(a), len(b))
	out := make([]Type, n)
	for i := 0; i < n; i++ {
		x, y := a[i], b[i]
		switch {
		case IsUnknown(x) || IsTypeParam(x) && !IsTypeParam(y):
			out[i] = y
		case IsUnknown(y) || IsTypeParam(y) && !IsTypeParam(x):
			out[i] = x
		case x.Equals(y):
			out[i] = WithoutConstant(x)
		default:
			cx, cy := AsClass(x), AsClass(y)
			if cx != nil && cy != nil {
				out[i] = unifyClasses(cx, cy, UnifyDefault, depth+1)
			} else {
				out[i] = NewDynamic(x.Source())
			}
		}
	}
	return out
}

func unifyFunctions(a, b *Function) Type {
	if len(a.Args) != len(b.Args) {
		return NewDynamic(a.Source())
	}
	args := make([]Argument, len(a.Args))
	for i := range a.Args {
		if a.Args[i].Optional != b.Args[i].Optional {
			return NewDynamic(a.Source())
		}
		args[i] = Argument{
			Name:     a.Args[i].Name,
			Optional: a.Args[i].Optional,
			Type:     UnifyPair(a.Args[i].Type, b.Args[i].Type, UnifyDefault),
		}
	}
	fn := NewFunction(args, UnifyPair(a.Return, b.Return, UnifyPreferVoid))
	fn.meta.source = a.Source()
	return fn
}

// unifyEnums handles enum values and enum classes; nil means the operands
// are not enum related.
func unifyEnums(a, b Type) Type {
	va, aIsValue := a.(*EnumValue)
	vb, bIsValue := b.(*EnumValue)
	switch {
	case aIsValue && bIsValue:
		if va.Enum.Class != vb.Enum.Class {
			return NewDynamic(a.Source())
		}
		if va.Constructor.Name == vb.Constructor.Name {
			return WithoutConstant(a)
		}
		return unifyClasses(va.Enum, vb.Enum, UnifyDefault, 0)
	case aIsValue:
		if cb := AsClass(b); cb != nil && cb.Class == va.Enum.Class {
			return unifyClasses(cb, va.Enum, UnifyDefault, 0)
		}
		return NewDynamic(a.Source())
	case bIsValue:
		if ca := AsClass(a); ca != nil && ca.Class == vb.Enum.Class {
			return unifyClasses(ca, vb.Enum, UnifyDefault, 0)
		}
		return NewDynamic(a.Source())
	}
	return nil
}
