package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnifyEdges(t *testing.T) {
	w := newTestWorld()
	assert.True(t, IsUnknown(Unify(nil, UnifyDefault)))

	single := WithConstant(w.std.Int(nil), int64(3))
	assert.Same(t, single, Unify([]Type{single}, UnifyDefault))

	got := Unify([]Type{WithConstant(w.std.Int(nil), int64(1)), WithConstant(w.std.Int(nil), int64(2))}, UnifyDefault)
	assert.True(t, IsInt(got))
	assert.Nil(t, got.Constant())
}

func TestUnifyPairs(t *testing.T) {
	w := newTestWorld()
	base, derived := NewInstance(w.object), NewInstance(w.derived)
	tests := []struct {
		name string
		a, b Type
		rule UnificationRule
		want string
	}{
		{"int float", w.std.Int(nil), w.std.Float(nil), UnifyDefault, "Float"},
		{"float int", w.std.Float(nil), w.std.Int(nil), UnifyDefault, "Float"},
		{"dynamic wins", w.std.Int(nil), NewDynamic(nil), UnifyDefault, "Dynamic"},
		{"unknown ignored", NewUnknown(nil), w.std.String(nil), UnifyDefault, "String"},
		{"common ancestor", derived, base, UnifyDefault, "Base"},
		{"ancestor either order", base, derived, UnifyDefault, "Base"},
		{"unrelated", w.std.String(nil), w.std.Bool(nil), UnifyDefault, "Dynamic"},
		{"void default", w.std.Void(nil), w.std.Int(nil), UnifyDefault, "Int"},
		{"void ignored", w.std.Int(nil), w.std.Void(nil), UnifyIgnoreVoid, "Int"},
		{"void preferred", w.std.Int(nil), w.std.Void(nil), UnifyPreferVoid, "Void"},
		{"generic args", w.std.ArrayOf(w.std.Int(nil), nil), w.std.ArrayOf(w.std.Float(nil), nil), UnifyDefault, "Array<Float>"},
		{"generic unknown arg", w.std.ArrayOf(NewUnknown(nil), nil), w.std.ArrayOf(w.std.String(nil), nil), UnifyDefault, "Array<String>"},
		{"generic bad arg", w.std.ArrayOf(w.std.Bool(nil), nil), w.std.ArrayOf(w.std.String(nil), nil), UnifyDefault, "Array<Dynamic>"},
		{"nullable", WrapNull(w.std.Int(nil)), w.std.Float(nil), UnifyDefault, "Null<Float>"},
		{"interface", NewInstance(w.named), NewInstance(w.iface), UnifyDefault, "Named"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UnifyPair(tt.a, tt.b, tt.rule).String())
		})
	}
}

func TestUnifyNullLiteral(t *testing.T) {
	w := newTestWorld()
	null := WithConstant(NewDynamic(nil), NullValue)
	str := w.std.String(nil)

	assert.True(t, IsString(Unify([]Type{null, str}, UnifyNull)))
	assert.True(t, IsString(Unify([]Type{str, null}, UnifyNull)))
	assert.True(t, IsDynamic(Unify([]Type{null, str}, UnifyDefault)))
}

func TestUnifyFunctions(t *testing.T) {
	w := newTestWorld()
	a := fn(w.std.Void(nil), w.std.Int(nil))
	b := fn(w.std.Int(nil), w.std.Float(nil))
	assert.Equal(t, "(Float) -> Void", UnifyPair(a, b, UnifyDefault).String())

	c := fn(w.std.Void(nil), w.std.Int(nil), w.std.Int(nil))
	assert.True(t, IsDynamic(UnifyPair(a, c, UnifyDefault)))
}

func TestUnifyEnumValues(t *testing.T) {
	w := newTestWorld()
	color := NewInstance(w.enum)
	red := NewEnumValue(color, w.enum.EnumConstructor("Red"))
	rgb := NewEnumValue(color, w.enum.EnumConstructor("Rgb"))

	got := UnifyPair(red, rgb, UnifyDefault)
	assert.False(t, IsEnumValue(got))
	assert.Equal(t, "Color", got.String())

	assert.True(t, IsEnumValue(UnifyPair(red, red, UnifyDefault)))
	assert.Equal(t, "Color", UnifyPair(color, rgb, UnifyDefault).String())
	assert.True(t, IsDynamic(UnifyPair(red, w.std.Int(nil), UnifyDefault)))
}

func TestUnifySuggested(t *testing.T) {
	w := newTestWorld()
	other := NewClass("Other", KindClass)
	other.Super = NewInstance(w.object)

	got := UnifySuggested([]Type{NewInstance(w.derived), NewInstance(other)}, NewInstance(w.object), UnifyDefault)
	assert.Equal(t, "Base", got.String())
}

func TestAncestorsAndMembers(t *testing.T) {
	w := newTestWorld()
	anc := Ancestors(NewInstance(w.intBox))
	if assert.Len(t, anc, 2) {
		assert.Equal(t, "Box<Int>", anc[1].String())
	}

	m, owner := FindMember(NewInstance(w.intBox), "value")
	if assert.NotNil(t, m) {
		assert.True(t, IsInt(MemberType(m, owner)))
	}
	g, owner := FindMember(NewInstance(w.intBox), "get")
	if assert.NotNil(t, g) {
		assert.Equal(t, "() -> Int", MemberType(g, owner).String())
	}

	assert.True(t, w.derived.IsSubclassOf(w.object))
	assert.False(t, w.object.IsSubclassOf(w.derived))
	assert.Equal(t, 2, w.named.CompatibleTypes().Size())
}

func TestElementType(t *testing.T) {
	w := newTestWorld()
	assert.True(t, IsString(w.std.ElementType(w.std.ArrayOf(w.std.String(nil), nil))))
	assert.True(t, IsInt(w.std.ElementType(w.std.IntIterator(nil))))
	assert.True(t, IsBool(w.std.ElementType(w.std.RestOf(w.std.Bool(nil), nil))))
	assert.True(t, IsUnknown(w.std.ElementType(w.std.Bool(nil))))
}
