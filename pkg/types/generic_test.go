package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolverLastAddedWins(t *testing.T) {
	w := newTestWorld()
	r := NewGenericResolver()
	r.Add("T", w.std.Int(nil), ClassTypeParameter)
	r.Add("T", w.std.String(nil), MethodTypeParameter)

	assert.True(t, IsString(r.Resolve("T")))
	assert.True(t, IsInt(r.ResolveFrom("T", ClassTypeParameter)))
	assert.Equal(t, 2, r.Len())

	// Re-adding under an existing source replaces and moves to the end.
	r.Add("T", w.std.Float(nil), ClassTypeParameter)
	assert.Equal(t, 2, r.Len())
	assert.True(t, IsFloat(r.Resolve("T")))
}

func TestResolverIgnoresNil(t *testing.T) {
	r := NewGenericResolver().Add("T", nil, ArgumentType)
	assert.True(t, r.IsEmpty())

	var nilResolver *GenericResolver
	assert.Nil(t, nilResolver.Resolve("T"))
	assert.Equal(t, "", nilResolver.CacheKey())
}

func TestResolverWithoutUnknowns(t *testing.T) {
	w := newTestWorld()
	r := NewGenericResolver()
	r.Add("T", NewUnknown(nil), ClassTypeParameter)
	r.Add("U", w.std.Bool(nil), MethodTypeParameter)

	clean := r.WithoutUnknowns()
	assert.False(t, clean.Contains("T"))
	assert.True(t, clean.Contains("U"))
	// The original is untouched.
	assert.True(t, r.Contains("T"))
}

func TestResolverRemoveClassScopeIfMethodPresent(t *testing.T) {
	w := newTestWorld()
	r := NewGenericResolver()
	r.Add("T", w.std.Int(nil), ClassTypeParameter)
	r.Add("U", w.std.Int(nil), ClassTypeParameter)
	r.Add("T", NewUnknown(nil), MethodTypeParameter)

	out := r.RemoveClassScopeIfMethodPresent()
	assert.Nil(t, out.ResolveFrom("T", ClassTypeParameter))
	assert.NotNil(t, out.ResolveFrom("U", ClassTypeParameter))
	assert.Equal(t, []string{"U", "T"}, out.Names())
}

func TestResolveTypeSubstitutes(t *testing.T) {
	w := newTestWorld()
	tp := &TypeParameter{Name: "T"}
	ref := NewTypeParamRef(tp)
	r := NewGenericResolver().Add("T", w.std.String(nil), ArgumentType)

	arr := r.ResolveType(w.std.ArrayOf(ref, nil))
	assert.Equal(t, "Array<String>", arr.String())

	f := r.ResolveType(fn(ref, ref, w.std.Int(nil)))
	assert.Equal(t, "(String, Int) -> String", f.String())

	// Unknown bindings leave the reference in place.
	r2 := NewGenericResolver().Add("T", NewUnknown(nil), ClassTypeParameter)
	assert.True(t, IsTypeParam(r2.ResolveType(ref)))
}

func TestResolveTypeIsSinglePass(t *testing.T) {
	tp := &TypeParameter{Name: "T"}
	up := &TypeParameter{Name: "U"}
	r := NewGenericResolver().
		Add("T", NewTypeParamRef(up), ArgumentType).
		Add("U", NewDynamic(nil), ArgumentType)

	got := r.ResolveType(NewTypeParamRef(tp))
	require.True(t, IsTypeParam(got))
	assert.Equal(t, "U", got.String())
}

func TestCacheKeyTracksState(t *testing.T) {
	w := newTestWorld()
	a := NewGenericResolver().Add("T", w.std.Int(nil), ClassTypeParameter)
	b := NewGenericResolver().Add("T", w.std.Int(nil), ClassTypeParameter)
	assert.Equal(t, a.CacheKey(), b.CacheKey())

	b.Add("T", w.std.Float(nil), ArgumentType)
	assert.NotEqual(t, a.CacheKey(), b.CacheKey())
}

func TestInstanceGenericResolver(t *testing.T) {
	w := newTestWorld()
	r := NewInstance(w.box).GenericResolver()
	assert.True(t, IsUnknown(r.Resolve("T")))

	r = NewInstance(w.box, w.std.Bool(nil)).GenericResolver()
	assert.True(t, IsBool(r.Resolve("T")))
}

func TestConstraintTable(t *testing.T) {
	w := newTestWorld()
	ct := &TypeParameter{Name: "T", Scope: ClassTypeParameter}
	mt := &TypeParameter{Name: "T", Constraint: NewInstance(w.object), Scope: MethodTypeParameter}
	holder := NewClass("Holder", KindClass)
	holder.TypeParams = []*TypeParameter{ct}
	m := &MethodModel{Name: "put", TypeParams: []*TypeParameter{mt}}
	holder.AddMethod(m)

	table := ConstraintTableFor(m, nil)
	assert.True(t, table.ContainsIn("T", ClassTypeParameter))
	assert.Nil(t, table.GetIn("T", ClassTypeParameter))
	// Method scope is preferred.
	assert.Equal(t, "Base", table.Get("T").String())

	table.ApplyCallee(NewGenericResolver().Add("T", w.std.Int(nil), ClassTypeParameter))
	assert.True(t, IsInt(table.GetIn("T", ClassTypeParameter)))
	assert.Equal(t, "Base", table.Resolver().Resolve("T").String())

	assert.True(t, table.Mentions(w.std.ArrayOf(NewTypeParamRef(mt), nil)))
	assert.False(t, table.Mentions(w.std.Int(nil)))
}

func TestConstructorConstraintsUseMethodScope(t *testing.T) {
	w := newTestWorld()
	ctor := &MethodModel{Name: "new"}
	w.box.AddMethod(ctor)
	require.Same(t, ctor, w.box.Constructor)

	table := ConstraintTableFor(ctor, nil)
	assert.True(t, table.ContainsIn("T", MethodTypeParameter))
	assert.False(t, table.ContainsIn("T", ClassTypeParameter))
}
