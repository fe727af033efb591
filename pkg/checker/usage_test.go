package checker

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"hxinfer/pkg/parser"
)

func TestUsageInference(t *testing.T) {
	tests := []struct {
		name string
		decl string
		body string
		want string
	}{
		{"single assignment", "a", `var a; a = new Foo();`, "Foo"},
		{"null initializer then object", "a", `var a = null; a = new Foo();`, "Foo"},
		{"null assignment then object", "a", `var a; a = null; a = new Foo();`, "Foo"},
		{"object then null assignment", "a", `var a; a = new Foo(); a = null;`, "Foo"},
		{"only null", "a", `var a; a = null;`, "Dynamic"},
		{"passed as an argument", "a", `var a; takesInt(a);`, "Int"},
		{"assigned to a typed variable", "a", `var a; var b:String = a;`, "String"},
		{"array improved by push", "l", `var l = []; l.push(1);`, "Array<Int>"},
		{"array improved by index assignment", "l", `var l = []; l[0] = "s";`, "Array<String>"},
		{"map improved by set", "m", `var m = new Map(); m.set("k", 1.5);`, "Map<String, Float>"},
		{"unused", "a", `var a;`, "Unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, file := newTestSession(t, `
class Foo { public function new() {} }
class Main {
	static function takesInt(i:Int) {}
	static function main() {
		`+tt.body+`
	}
}`)
			assert.Equal(t, tt.want, evalString(t, s, findVar(file, tt.decl)))
		})
	}
}

func TestUntypedParameterFromUsage(t *testing.T) {
	s, file := newTestSession(t, `
class Main {
	static function takesInt(i:Int) {}
	static function greet(name, count) {
		takesInt(count);
		return "hi " + name;
	}
}`)
	param := func(name string) *parser.Parameter {
		return find(file, func(p *parser.Parameter) bool { return p.Name.Value == name })
	}
	assert.Equal(t, "Int", evalString(t, s, param("count")))
	assert.Equal(t, "Unknown", evalString(t, s, param("name")))
}

func TestUntypedParameterFromDefault(t *testing.T) {
	s, file := newTestSession(t, `
class Main {
	static function pad(s:String, width = 8) {}
}`)
	width := find(file, func(p *parser.Parameter) bool { return p.Name.Value == "width" })
	assert.Equal(t, "Int", evalString(t, s, width))
}

func TestUntypedFieldFromUsage(t *testing.T) {
	s, file := newTestSession(t, `
class Counter {
	var count;
	public function new() {}
	public function reset() {
		count = 0;
	}
}`)
	field := find(file, func(f *parser.FieldDeclaration) bool { return f.Name.Value == "count" })
	assert.Equal(t, "Int", evalString(t, s, field))
}
