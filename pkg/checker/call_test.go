package checker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hxinfer/pkg/parser"
	"hxinfer/pkg/types"
)

func validateCall(t *testing.T, s *Session, call *parser.CallExpression) *CallValidation {
	t.Helper()
	require.NotNil(t, call)
	v, err := s.ValidateCall(call)
	require.NoError(t, err)
	require.NotNil(t, v)
	return v
}

func errorMessages(v *CallValidation) []string {
	var out []string
	for _, e := range v.Errors {
		out = append(out, e.Msg)
	}
	return out
}

const defaultsSource = `
class Main {
	static function f(a:Int, b:Int = 0):Int { return a + b; }
	static function g(?a:Int, b:String):String { return b; }
	static function opt(a:Int, ?b:Int, ?c:String) {}
	static function main() {
		f(1);
		f(1, 2, 3);
		f();
		f("s");
		g("x");
		opt(1, "s", "t");
	}
}`

func TestArity(t *testing.T) {
	s, file := newTestSession(t, defaultsSource)
	calls := []*parser.CallExpression{}
	parser.Inspect(file, func(n parser.Node) bool {
		if c, ok := n.(*parser.CallExpression); ok && c.Callee.String() == "f" {
			calls = append(calls, c)
		}
		return true
	})
	require.Len(t, calls, 4)

	ok := validateCall(t, s, calls[0])
	assert.Empty(t, ok.Errors)
	assert.True(t, ok.Completed)
	assert.True(t, ok.IsMethod)
	assert.Equal(t, map[int]int{0: 0}, ok.ArgumentToParameter)
	assert.Equal(t, []string{"a", "b"}, ok.ParameterNames)
	assert.Equal(t, "Int", ok.ReturnType.String())

	tooMany := validateCall(t, s, calls[1])
	require.Len(t, tooMany.Errors, 1)
	assert.Equal(t, "Too many arguments, expected at most 2 but got 3", tooMany.Errors[0].Msg)
	assert.Equal(t, calls[1].ArgsRange(), tooMany.Errors[0].TextRange)

	missing := validateCall(t, s, calls[2])
	assert.Equal(t, []string{"Not enough arguments, expected at least 1 but got 0"}, errorMessages(missing))

	wrong := validateCall(t, s, calls[3])
	require.Len(t, wrong.Errors, 1)
	assert.Equal(t, "Type mismatch (Expected: 'Int' got: 'String')", wrong.Errors[0].Msg)
	assert.Equal(t, calls[3].Args[0].Range(), wrong.Errors[0].TextRange)
}

func TestOptionalParameterIsSkipped(t *testing.T) {
	s, file := newTestSession(t, defaultsSource)
	v := validateCall(t, s, findCall(file, "g"))
	assert.Empty(t, v.Errors)
	assert.Equal(t, map[int]int{0: 1}, v.ArgumentToParameter)
	assert.Equal(t, "String", v.ParameterTypes[1].String())

	// The second argument takes the last optional, leaving the third unmatched.
	call := findCall(file, "opt")
	left := validateCall(t, s, call)
	require.Len(t, left.Errors, 1)
	assert.Equal(t, call.Args[2].Range(), left.Errors[0].TextRange)
	assert.Equal(t, 0, left.ArgumentToParameter[0])
	assert.Equal(t, 2, left.ArgumentToParameter[1])
	assert.NotContains(t, left.ArgumentToParameter, 2)
}

func TestOverloadedCallIsNotChecked(t *testing.T) {
	s, file := newTestSession(t, `
class Main {
	@:overload(function(a:String):Int {})
	static function ov(a:Int):Int { return a; }
	static function main() {
		ov("x", 1, 2);
	}
}`)
	v := validateCall(t, s, findCall(file, "ov"))
	assert.True(t, v.Overloaded)
	assert.Empty(t, v.Errors)
	assert.Empty(t, v.Warnings)
	assert.False(t, v.Completed)
	assert.Equal(t, "Int", v.ReturnType.String())
}

func TestGenericMethodBinding(t *testing.T) {
	s, file := newTestSession(t, `
class Main {
	static function id<T>(x:T):T { return x; }
	static function pair<A, B>(a:A, b:B):Map<A, B> { return null; }
	static function first<T>(a:Array<T>):T { return a[0]; }
	static function main() {
		id(5);
		pair("k", 1.5);
		first([]);
	}
}`)
	v := validateCall(t, s, findCall(file, "id"))
	assert.Empty(t, v.Errors)
	assert.Equal(t, "Int", v.ReturnType.String())
	require.NotNil(t, v.Resolver.Resolve("T"))
	assert.Equal(t, "Int", v.Resolver.Resolve("T").String())
	assert.Equal(t, "Int", v.ParameterTypes[0].String())

	p := validateCall(t, s, findCall(file, "pair"))
	assert.Equal(t, "Map<String, Float>", p.ReturnType.String())

	unbound := validateCall(t, s, findCall(file, "first"))
	assert.Empty(t, unbound.Errors)
	assert.Equal(t, "Unknown", unbound.ReturnType.String())
}

func TestConstraintRejectsBinding(t *testing.T) {
	s, file := newTestSession(t, `
class Animal { public function new() {} }
class Main {
	static function keep<T:Animal>(x:T):T { return x; }
	static function main() {
		keep("not an animal");
	}
}`)
	v := validateCall(t, s, findCall(file, "keep"))
	assert.Nil(t, v.Resolver.WithoutUnknowns().Resolve("T"))
	require.Len(t, v.Errors, 1)
	assert.Contains(t, v.Errors[0].Msg, "Type mismatch")
}

func TestConstructorInference(t *testing.T) {
	s, file := newTestSession(t, `
class Box<T> {
	public var value:T;
	public function new(v:T) { value = v; }
}
class Crate extends Box<String> {}
class Main {
	static function main() {
		var a = new Box(1);
		var b = new Box<Int>("s");
		var c = new Crate("x");
	}
}`)
	assert.Equal(t, "Box<Int>", evalString(t, s, findVar(file, "a")))

	explicit := find(file, func(n *parser.NewExpression) bool { return n.Type.String() == "Box<Int>" })
	v, err := s.ValidateNew(explicit)
	require.NoError(t, err)
	assert.True(t, v.IsConstructor)
	assert.Equal(t, []string{"Type mismatch (Expected: 'Int' got: 'String')"}, errorMessages(v))

	assert.Equal(t, "Crate", evalString(t, s, findVar(file, "c")))
	inherited := find(file, func(n *parser.NewExpression) bool { return n.Type.String() == "Crate" })
	cv, err := s.ValidateConstructor(inherited)
	require.NoError(t, err)
	assert.Empty(t, cv.Errors)
	assert.Equal(t, "String", cv.ParameterTypes[0].String())
}

func TestStructuralMismatch(t *testing.T) {
	s, file := newTestSession(t, `
typedef Point = { x:Int, y:Int };
class Main {
	static function plot(p:Point) {}
	static function main() {
		plot({x: 1});
		plot({x: 1, y: "two"});
		plot({x: 1, y: 2});
	}
}`)
	calls := []*parser.CallExpression{}
	parser.Inspect(file, func(n parser.Node) bool {
		if c, ok := n.(*parser.CallExpression); ok {
			calls = append(calls, c)
		}
		return true
	})
	require.Len(t, calls, 3)

	missing := validateCall(t, s, calls[0])
	assert.Equal(t, []string{"Incompatible structure, missing members: y"}, errorMessages(missing))

	wrong := validateCall(t, s, calls[1])
	require.Len(t, wrong.Errors, 1)
	assert.Equal(t, "have 'String' wants 'Int'", wrong.Errors[0].Msg)
	obj := calls[1].Args[0].(*parser.ObjectLiteral)
	assert.Equal(t, obj.Fields[1].Range(), wrong.Errors[0].TextRange)

	assert.Empty(t, validateCall(t, s, calls[2]).Errors)
}

func TestUnableToCompare(t *testing.T) {
	s, file := newTestSession(t, `
class Main {
	static function take(x:Nowhere) {}
	static function main() {
		take(1);
	}
}`)
	v := validateCall(t, s, findCall(file, "take"))
	assert.Empty(t, v.Errors)
	require.Len(t, v.Warnings, 1)
	assert.Equal(t, "Unable to compare argument with parameter type 'Nowhere', type definition could not be found", v.Warnings[0].Msg)
}

func TestStaticExtension(t *testing.T) {
	s, file := newTestSession(t, `
using StringTools;
class Main {
	static function main() {
		var name = "haxe";
		var starts = name.startsWith("h");
		var n = 5;
		n.startsWith("h");
	}
}`)
	assert.Equal(t, "Bool", evalString(t, s, findVar(file, "starts")))

	calls := []*parser.CallExpression{}
	parser.Inspect(file, func(n parser.Node) bool {
		if c, ok := n.(*parser.CallExpression); ok {
			calls = append(calls, c)
		}
		return true
	})
	require.Len(t, calls, 2)

	good := validateCall(t, s, calls[0])
	assert.True(t, good.IsStaticExtension)
	assert.Empty(t, good.Errors)
	assert.Equal(t, map[int]int{0: 1}, good.ArgumentToParameter)

	bad := validateCall(t, s, calls[1])
	assert.True(t, bad.IsStaticExtension)
	assert.False(t, bad.Completed)
	require.Len(t, bad.Errors, 1)
	assert.Equal(t, "Can not use extension method, wrong type", bad.Errors[0].Msg)
	assert.Equal(t, calls[1].Range(), bad.Errors[0].TextRange)
}

func TestRestParameters(t *testing.T) {
	s, file := newTestSession(t, `
class Main {
	static function sum(first:Int, ...rest:Int):Int { return first; }
	static function main() {
		sum(1, 2, 3);
		sum(1, 2, "x");
		var more = [4, 5];
		sum(1, ...more);
	}
}`)
	calls := []*parser.CallExpression{}
	parser.Inspect(file, func(n parser.Node) bool {
		if c, ok := n.(*parser.CallExpression); ok {
			calls = append(calls, c)
		}
		return true
	})
	require.Len(t, calls, 3)

	v := validateCall(t, s, calls[0])
	assert.Empty(t, v.Errors)
	assert.Equal(t, map[int]int{0: 0, 1: 1, 2: 1}, v.ArgumentToParameter)

	bad := validateCall(t, s, calls[1])
	assert.Equal(t, []string{"Type mismatch (Expected: 'Int' got: 'String')"}, errorMessages(bad))

	assert.Empty(t, validateCall(t, s, calls[2]).Errors)
}

func TestLambdaArgumentInference(t *testing.T) {
	s, file := newTestSession(t, wrap(`
		var arr = [1, 2];
		var doubled = arr.map(x -> x * 2);
		var names = arr.map(function(i) { return "#" + i; });
	`))
	assert.Equal(t, "Array<Int>", evalString(t, s, findVar(file, "doubled")))
	assert.Equal(t, "Array<String>", evalString(t, s, findVar(file, "names")))

	x := find(file, func(p *parser.Parameter) bool { return p.Name.Value == "x" })
	assert.Equal(t, "Int", evalString(t, s, x))
}

func TestFunctionValueCall(t *testing.T) {
	s, file := newTestSession(t, wrap(`
		var f = (a:Int, b:String) -> b;
		var r = f(1, "s");
		f("s", 1);
	`))
	assert.Equal(t, "String", evalString(t, s, findVar(file, "r")))

	calls := []*parser.CallExpression{}
	parser.Inspect(file, func(n parser.Node) bool {
		if c, ok := n.(*parser.CallExpression); ok {
			calls = append(calls, c)
		}
		return true
	})
	require.Len(t, calls, 2)
	v := validateCall(t, s, calls[1])
	assert.True(t, v.IsFunction)
	assert.Len(t, v.Errors, 2)
}

func TestDirectEntryPoints(t *testing.T) {
	s, file := newTestSession(t, `
import haxe.ds.Option;
class Main {
	static function main() {
		call(1, "a");
		Some("v");
	}
}`)
	std := s.prog.Std()
	fn := types.NewFunction([]types.Argument{
		{Name: "n", Type: std.Int(nil)},
		{Name: "s", Type: std.String(nil)},
	}, std.Bool(nil))

	v, err := s.ValidateFunctionCall(findCall(file, "call"), fn)
	require.NoError(t, err)
	assert.Empty(t, v.Errors)
	assert.Equal(t, "Bool", v.ReturnType.String())

	option, ok := std.Lookup("haxe.ds.Option")
	require.True(t, ok)
	ev, err := s.ValidateEnumConstructor(findCall(file, "Some"), option.EnumConstructor("Some"))
	require.NoError(t, err)
	assert.True(t, ev.IsMethod)
	assert.Equal(t, "Option<String>", ev.ReturnType.String())
}

func TestValidateMethodCall(t *testing.T) {
	s, file := newTestSession(t, `
class Main {
	static function main() {
		var arr = ["a"];
		arr.push("b");
	}
}`)
	array, ok := s.prog.Std().Lookup("Array")
	require.True(t, ok)
	v, err := s.ValidateMethodCall(findCall(file, "arr.push"), array.Method("push"))
	require.NoError(t, err)
	assert.Empty(t, v.Errors)
	assert.Equal(t, "String", v.ParameterTypes[0].String())
	assert.Contains(t, v.Dump(), "completed")
}
