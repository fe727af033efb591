package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanAssignBasics(t *testing.T) {
	w := newTestWorld()
	tests := []struct {
		name     string
		to, from Type
		want     bool
	}{
		{"same", w.std.Int(nil), w.std.Int(nil), true},
		{"int to float", w.std.Float(nil), w.std.Int(nil), true},
		{"float to int", w.std.Int(nil), w.std.Float(nil), false},
		{"string to int", w.std.Int(nil), w.std.String(nil), false},
		{"unknown", w.std.Int(nil), NewUnknown(nil), true},
		{"dynamic source", w.std.Int(nil), NewDynamic(nil), true},
		{"dynamic target", NewDynamic(nil), w.std.String(nil), true},
		{"subclass", NewInstance(w.object), NewInstance(w.derived), true},
		{"superclass", NewInstance(w.derived), NewInstance(w.object), false},
		{"interface", NewInstance(w.iface), NewInstance(w.named), true},
		{"nullable", WrapNull(w.std.Int(nil)), w.std.Int(nil), true},
		{"typedef", NewInstance(w.intAlias), w.std.Int(nil), true},
		{"generic ancestor", NewInstance(w.box, w.std.Int(nil)), NewInstance(w.intBox), true},
		{"generic ancestor mismatch", NewInstance(w.box, w.std.String(nil)), NewInstance(w.intBox), false},
		{"invariant args", w.std.ArrayOf(w.std.Float(nil), nil), w.std.ArrayOf(w.std.Int(nil), nil), false},
		{"raw target", NewInstance(w.std.Class("Array")), w.std.ArrayOf(w.std.Int(nil), nil), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanAssign(tt.to, tt.from))
		})
	}
}

func TestCanAssignFunctions(t *testing.T) {
	w := newTestWorld()
	target := fn(w.std.Void(nil), w.std.Int(nil))

	assert.True(t, CanAssign(target, fn(w.std.Bool(nil), w.std.Int(nil))), "void return accepts anything")
	assert.True(t, CanAssign(target, fn(w.std.Void(nil), w.std.Float(nil))), "arguments are contravariant")
	assert.False(t, CanAssign(target, fn(w.std.Void(nil), w.std.String(nil))))
	assert.False(t, CanAssign(target, fn(w.std.Void(nil))), "too few arguments")
	assert.False(t, CanAssign(target, w.std.Int(nil)))

	ret := fn(w.std.Float(nil))
	assert.True(t, CanAssign(ret, fn(w.std.Int(nil))))
	assert.False(t, CanAssign(ret, fn(w.std.String(nil))))
}

func TestCanAssignStructure(t *testing.T) {
	w := newTestWorld()
	wantsName := anon(&FieldModel{Name: "name", Type: w.std.String(nil)})
	assert.True(t, CanAssign(wantsName, NewInstance(w.named)))

	ctx := &AssignContext{}
	wantsMore := anon(
		&FieldModel{Name: "name", Type: w.std.Int(nil)},
		&FieldModel{Name: "email", Type: w.std.String(nil)},
		&FieldModel{Name: "nick", Type: w.std.String(nil), Optional: true},
	)
	assert.False(t, CanAssignWith(wantsMore, NewInstance(w.named), ctx))
	assert.Equal(t, []string{"email"}, ctx.MissingMembers)
	require.Len(t, ctx.WrongTypeMembers, 1)
	assert.Equal(t, "name", ctx.WrongTypeMembers[0].Name)
	assert.Equal(t, "email", ctx.MissingMembersString())
	assert.Equal(t, "name (String should be Int)", ctx.WrongTypeMembersString())
}

func TestCanAssignTypeParameters(t *testing.T) {
	w := newTestWorld()
	constrained := NewTypeParamRef(&TypeParameter{Name: "T", Constraint: NewInstance(w.object)})

	assert.True(t, CanAssign(constrained, w.std.String(nil)))
	assert.False(t, CanAssignWith(constrained, w.std.String(nil), &AssignContext{ConstraintCheck: true}))
	assert.True(t, CanAssignWith(constrained, NewInstance(w.derived), &AssignContext{ConstraintCheck: true}))

	assert.True(t, CanAssign(NewInstance(w.object), constrained))
	assert.False(t, CanAssign(w.std.String(nil), constrained))
}

func TestCanAssignMissingModel(t *testing.T) {
	w := newTestWorld()
	missing := NewInstance(NewMissingClass("pkg.Gone"))
	ctx := &AssignContext{}
	assert.False(t, CanAssignWith(w.std.Int(nil), missing, ctx))
	assert.True(t, ctx.Incomparable)
	assert.True(t, CanAssign(missing, NewInstance(NewMissingClass("pkg.Gone"))))
}

func TestCanAssignEnums(t *testing.T) {
	w := newTestWorld()
	color := NewInstance(w.enum)
	red := NewEnumValue(color, w.enum.EnumConstructor("Red"))
	rgb := NewEnumValue(color, w.enum.EnumConstructor("Rgb"))

	assert.True(t, CanAssign(color, red))
	assert.True(t, CanAssign(red, red))
	assert.False(t, CanAssign(red, rgb))
	assert.Equal(t, "Color", red.String())
}
