package types

// testWorld is a hand built set of models shared by the package tests.
type testWorld struct {
	std *Std

	object   *ClassModel // class Base
	derived  *ClassModel // class Derived extends Base
	box      *ClassModel // class Box<T>
	intBox   *ClassModel // class IntBox extends Box<Int>
	iface    *ClassModel // interface Named
	named    *ClassModel // class Person implements Named
	enum     *ClassModel // enum Color { Red; Rgb(r:Int, g:Int, b:Int); }
	intAlias *ClassModel // typedef Count = Int
}

func newTestWorld() *testWorld {
	w := &testWorld{std: NewStd()}
	for _, name := range []string{"Void", "Int", "Float", "Bool", "String", "Dynamic", "EReg", "IntIterator"} {
		kind := KindAbstract
		if name == "String" || name == "EReg" || name == "IntIterator" {
			kind = KindClass
		}
		w.std.Register(NewClass(name, kind))
	}
	w.std.Class("Int").To = []Type{NewInstance(w.std.Class("Float"))}

	array := NewClass("Array", KindClass)
	at := &TypeParameter{Name: "T", Scope: ClassTypeParameter}
	array.TypeParams = []*TypeParameter{at}
	array.AddField(&FieldModel{Name: "length", Type: w.std.Int(nil)})
	array.AddMethod(&MethodModel{Name: "push", Params: []*ParameterModel{{Name: "x", Type: NewTypeParamRef(at)}}, Return: w.std.Int(nil)})
	w.std.Register(array)

	rest := NewClass("Rest", KindAbstract)
	rest.Pack = "haxe"
	rest.TypeParams = []*TypeParameter{{Name: "T", Scope: ClassTypeParameter}}
	w.std.Register(rest)

	w.object = NewClass("Base", KindClass)
	w.object.AddField(&FieldModel{Name: "id", Type: w.std.Int(nil)})
	w.derived = NewClass("Derived", KindClass)
	w.derived.Super = NewInstance(w.object)

	w.box = NewClass("Box", KindClass)
	bt := &TypeParameter{Name: "T", Scope: ClassTypeParameter}
	w.box.TypeParams = []*TypeParameter{bt}
	w.box.AddField(&FieldModel{Name: "value", Type: NewTypeParamRef(bt)})
	w.box.AddMethod(&MethodModel{Name: "get", Return: NewTypeParamRef(bt)})

	w.intBox = NewClass("IntBox", KindClass)
	w.intBox.Super = NewInstance(w.box, w.std.Int(nil))

	w.iface = NewClass("Named", KindInterface)
	w.iface.AddField(&FieldModel{Name: "name", Type: w.std.String(nil)})
	w.named = NewClass("Person", KindClass)
	w.named.Interfaces = []*ClassInstance{NewInstance(w.iface)}
	w.named.AddField(&FieldModel{Name: "name", Type: w.std.String(nil)})
	w.named.AddField(&FieldModel{Name: "age", Type: w.std.Int(nil)})

	w.enum = NewClass("Color", KindEnum)
	w.enum.AddEnumConstructor(&EnumConstructor{Name: "Red"})
	w.enum.AddEnumConstructor(&EnumConstructor{Name: "Rgb", Params: []*ParameterModel{
		{Name: "r", Type: w.std.Int(nil)}, {Name: "g", Type: w.std.Int(nil)}, {Name: "b", Type: w.std.Int(nil)},
	}})

	w.intAlias = NewClass("Count", KindTypedef)
	w.intAlias.Alias = w.std.Int(nil)
	return w
}

// anon builds an anonymous structure with the given fields.
func anon(fields ...*FieldModel) *ClassInstance {
	c := NewClass("", KindAnonymous)
	for _, f := range fields {
		c.AddField(f)
	}
	return NewInstance(c)
}

func fn(ret Type, args ...Type) *Function {
	out := make([]Argument, len(args))
	for i, a := range args {
		out[i] = Argument{Type: a}
	}
	return NewFunction(out, ret)
}
