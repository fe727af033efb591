package types

// Std gives access to the core types every program sees: the primitives,
// the standard containers and the macro types. Models are registered by the
// loader of the standard prelude; a name that was never registered resolves
// to a stable missing placeholder.
type Std struct {
	classes map[string]*ClassModel
}

func NewStd() *Std {
	return &Std{classes: make(map[string]*ClassModel)}
}

// Register makes c reachable by its qualified name.
func (s *Std) Register(c *ClassModel) {
	s.classes[c.QualifiedName()] = c
}

// Class returns the model registered under a qualified name.
func (s *Std) Class(qualified string) *ClassModel {
	if c, ok := s.classes[qualified]; ok {
		return c
	}
	c := NewMissingClass(qualified)
	s.classes[qualified] = c
	return c
}

// Lookup returns the registered model, without creating a placeholder.
func (s *Std) Lookup(qualified string) (*ClassModel, bool) {
	c, ok := s.classes[qualified]
	if ok && c.Missing {
		return nil, false
	}
	return c, ok
}

func (s *Std) instance(name string, src Node, args ...Type) *ClassInstance {
	inst := NewInstance(s.Class(name), args...)
	inst.meta.source = src
	return inst
}

func (s *Std) Void(src Node) *ClassInstance   { return s.instance("Void", src) }
func (s *Std) Int(src Node) *ClassInstance    { return s.instance("Int", src) }
func (s *Std) Float(src Node) *ClassInstance  { return s.instance("Float", src) }
func (s *Std) Bool(src Node) *ClassInstance   { return s.instance("Bool", src) }
func (s *Std) String(src Node) *ClassInstance { return s.instance("String", src) }
func (s *Std) EReg(src Node) *ClassInstance   { return s.instance("EReg", src) }

func (s *Std) IntIterator(src Node) *ClassInstance { return s.instance("IntIterator", src) }

func (s *Std) ArrayOf(elem Type, src Node) *ClassInstance {
	return s.instance("Array", src, orUnknown(elem))
}

func (s *Std) MapOf(key, value Type, src Node) *ClassInstance {
	return s.instance("Map", src, orUnknown(key), orUnknown(value))
}

func (s *Std) IteratorOf(elem Type, src Node) *ClassInstance {
	return s.instance("Iterator", src, orUnknown(elem))
}

// RestOf is the declared type of a rest parameter with element type elem.
func (s *Std) RestOf(elem Type, src Node) *ClassInstance {
	return s.instance("haxe.Rest", src, orUnknown(elem))
}

// ClassOf is the type of a class used as a value.
func (s *Std) ClassOf(t Type, src Node) *ClassInstance {
	return s.instance("Class", src, orUnknown(t))
}

// EnumOf is the type of an enum used as a value.
func (s *Std) EnumOf(t Type, src Node) *ClassInstance {
	return s.instance("Enum", src, orUnknown(t))
}

func (s *Std) Expr(src Node) *ClassInstance {
	return s.instance("haxe.macro.Expr", src)
}

func (s *Std) ExprOf(t Type, src Node) *ClassInstance {
	return s.instance("haxe.macro.ExprOf", src, orUnknown(t))
}

func (s *Std) ComplexType(src Node) *ClassInstance {
	return s.instance("haxe.macro.ComplexType", src)
}

func (s *Std) TypeDefinition(src Node) *ClassInstance {
	return s.instance("haxe.macro.TypeDefinition", src)
}

// IsRest reports whether t is the declared type of a rest parameter.
func (s *Std) IsRest(t Type) bool {
	c := AsClass(t)
	return c != nil && c.Class == s.Class("haxe.Rest")
}

// ElementType is the element of an Array, Rest, Iterator or Iterable
// instance; Unknown for anything else.
func (s *Std) ElementType(t Type) Type {
	c := AsClass(UnwrapNull(t))
	if c == nil {
		return NewUnknown(nil)
	}
	if IsArray(c) || s.IsRest(c) {
		if len(c.Args) == 1 {
			return c.Args[0]
		}
		return NewUnknown(nil)
	}
	if IsInt(c) || c.Class == s.Class("IntIterator") {
		return s.Int(nil)
	}
	// Anything with an iterator() or next() member.
	if m, owner := FindMember(c, "iterator"); m != nil {
		if fn, ok := MemberType(m, owner).(*Function); ok {
			return s.ElementType(fn.Return)
		}
	}
	if m, owner := FindMember(c, "next"); m != nil {
		if fn, ok := MemberType(m, owner).(*Function); ok {
			return fn.Return
		}
	}
	return NewUnknown(nil)
}

func orUnknown(t Type) Type {
	if t == nil {
		return NewUnknown(nil)
	}
	return t
}
