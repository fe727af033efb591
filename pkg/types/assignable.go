package types

import (
	"fmt"
	"strings"
)

// --- Type Assignability ---

// WrongTypeMember describes a member of a structurally compared type whose
// type does not fit.
type WrongTypeMember struct {
	Name   string
	Have   Type
	Wants  Type
	Source Node // the member declaration on the assigned side, if known
}

// AssignContext collects details of a failed assignability check.
type AssignContext struct {
	// ConstraintCheck makes a type parameter on the receiving side accept
	// only what its constraint accepts.
	ConstraintCheck bool

	MissingMembers   []string
	WrongTypeMembers []WrongTypeMember
	// Incomparable is set when one side lacks a declaration model and the
	// answer is therefore a guess.
	Incomparable bool
}

func (c *AssignContext) HasMissingMembers() bool   { return c != nil && len(c.MissingMembers) > 0 }
func (c *AssignContext) HasWrongTypeMembers() bool { return c != nil && len(c.WrongTypeMembers) > 0 }

func (c *AssignContext) MissingMembersString() string {
	return strings.Join(c.MissingMembers, ", ")
}

func (c *AssignContext) WrongTypeMembersString() string {
	parts := make([]string, len(c.WrongTypeMembers))
	for i, w := range c.WrongTypeMembers {
		parts[i] = fmt.Sprintf("%s (%s should be %s)", w.Name, w.Have, w.Wants)
	}
	return strings.Join(parts, ", ")
}

// CanAssign reports whether a value of type from can be stored where to is
// expected.
func CanAssign(to, from Type) bool {
	return CanAssignWith(to, from, nil)
}

// CanAssignWith is CanAssign recording failure details into ctx, which may
// be nil.
func CanAssignWith(to, from Type, ctx *AssignContext) bool {
	if ctx == nil {
		ctx = &AssignContext{}
	}
	return canAssign(to, from, ctx, 0)
}

func canAssign(to, from Type, ctx *AssignContext, depth int) bool {
	if depth > maxDepth {
		return true
	}
	if to == nil || from == nil || IsUnknown(to) || IsUnknown(from) {
		return true
	}
	if IsDynamic(to) || IsDynamic(from) {
		return true
	}

	if ref, ok := to.(*TypeParamRef); ok {
		if ctx.ConstraintCheck && ref.Param.Constraint != nil {
			return canAssign(ref.Param.Constraint, from, ctx, depth+1)
		}
		return true
	}
	if ref, ok := from.(*TypeParamRef); ok {
		if ref.Param.Constraint != nil {
			return canAssign(to, ref.Param.Constraint, &AssignContext{}, depth+1)
		}
		return true
	}

	to = ResolveTypedef(to)
	from = ResolveTypedef(from)

	if ev, ok := from.(*EnumValue); ok {
		if target, ok := to.(*EnumValue); ok {
			return target.Enum.Class == ev.Enum.Class && target.Constructor.Name == ev.Constructor.Name
		}
		from = ev.Enum
	}
	if ev, ok := to.(*EnumValue); ok {
		to = ev.Enum
	}

	switch target := to.(type) {
	case *Function:
		source, ok := from.(*Function)
		if !ok {
			return false
		}
		return canAssignFunction(target, source, ctx, depth)
	case *ClassInstance:
		switch source := from.(type) {
		case *ClassInstance:
			return canAssignClass(target, source, ctx, depth)
		case *Function:
			// haxe.Function accepts every function value.
			return target.Class.Name == "Function" && !target.Class.Missing
		}
	}
	return false
}

func canAssignFunction(to, from *Function, ctx *AssignContext, depth int) bool {
	if len(from.Args) < len(to.Args) && !from.HasRest() {
		return false
	}
	for i, a := range from.Args {
		if i >= len(to.Args) {
			if !a.Optional && !a.Rest {
				return false
			}
			continue
		}
		// Arguments are contravariant.
		if !canAssign(a.Type, to.Args[i].Type, &AssignContext{}, depth+1) {
			return false
		}
	}
	if IsVoid(to.Return) {
		return true
	}
	return canAssign(to.Return, from.Return, &AssignContext{}, depth+1)
}

func canAssignClass(to, from *ClassInstance, ctx *AssignContext, depth int) bool {
	to = AsClass(UnwrapNull(to))
	from = AsClass(UnwrapNull(from))

	if to.Class.Missing || from.Class.Missing {
		if to.Class.QualifiedName() == from.Class.QualifiedName() {
			return true
		}
		ctx.Incomparable = true
		return false
	}

	if to.Class.Kind == KindAnonymous {
		return canAssignStructure(to, from, ctx, depth)
	}

	if abstractCast(to, from) {
		return true
	}

	ancestor := AncestorOf(from, to.Class)
	if ancestor == nil {
		return false
	}
	if len(to.Args) == 0 || len(ancestor.Args) == 0 {
		return true
	}
	for i := range to.Args {
		if i >= len(ancestor.Args) {
			break
		}
		if !sameArgument(to.Args[i], ancestor.Args[i], depth) {
			return false
		}
	}
	return true
}

// sameArgument compares generic arguments, which are invariant.
func sameArgument(a, b Type, depth int) bool {
	if IsUnknown(a) || IsUnknown(b) || IsDynamic(a) || IsDynamic(b) || IsTypeParam(a) || IsTypeParam(b) {
		return true
	}
	if a.Equals(b) {
		return true
	}
	if IsAnonymous(a) || IsAnonymous(b) || IsFunction(a) {
		return canAssign(a, b, &AssignContext{}, depth+1) && canAssign(b, a, &AssignContext{}, depth+1)
	}
	return false
}

func abstractCast(to, from *ClassInstance) bool {
	for _, t := range from.Class.To {
		if c := AsClass(t); c != nil && c.Class == to.Class {
			return true
		}
	}
	for _, f := range to.Class.From {
		if c := AsClass(f); c != nil && c.Class == from.Class {
			return true
		}
	}
	return false
}

// canAssignStructure checks every member the anonymous structure to asks
// for against the members of from.
func canAssignStructure(to, from *ClassInstance, ctx *AssignContext, depth int) bool {
	if to.Class == from.Class {
		return true
	}
	toResolver := to.GenericResolver()
	ok := true
	check := func(name string, wants Type, optional bool) {
		member, owner := FindMember(from, name)
		if member == nil {
			if !optional {
				ctx.MissingMembers = append(ctx.MissingMembers, name)
				ok = false
			}
			return
		}
		have := MemberType(member, owner)
		wants = toResolver.ResolveType(wants)
		if !canAssign(wants, have, &AssignContext{}, depth+1) {
			var src Node
			switch m := member.(type) {
			case *FieldModel:
				src = m.Decl
			case *MethodModel:
				src = m.Decl
			}
			ctx.WrongTypeMembers = append(ctx.WrongTypeMembers, WrongTypeMember{Name: name, Have: have, Wants: wants, Source: src})
			ok = false
		}
	}
	for _, f := range to.Class.Fields {
		check(f.Name, f.Type, f.Optional)
	}
	for _, m := range to.Class.Methods {
		check(m.Name, m.FunctionType(), false)
	}
	return ok
}
