package parser

import "reflect"

// Children returns the direct child nodes of n in source order.
func Children(n Node) []Node {
	var out []Node
	add := func(nodes ...Node) {
		for _, c := range nodes {
			if !isNil(c) {
				out = append(out, c)
			}
		}
	}

	switch n := n.(type) {
	case *File:
		for _, i := range n.Imports {
			add(i)
		}
		for _, u := range n.Usings {
			add(u)
		}
		for _, d := range n.Decls {
			add(d)
		}
	case *Metadata:
		addAll(add, n.Args)
	case *ClassDeclaration:
		addAll(add, n.Meta)
		add(n.Name)
		addAll(add, n.TypeParams)
		add(n.Underlying)
		addAll(add, n.From)
		addAll(add, n.To)
		addAll(add, n.Extends)
		addAll(add, n.Implements)
		addAll(add, n.Members)
	case *EnumDeclaration:
		addAll(add, n.Meta)
		add(n.Name)
		addAll(add, n.TypeParams)
		addAll(add, n.Constructors)
	case *EnumConstructorDeclaration:
		add(n.Name)
		addAll(add, n.Params)
	case *TypedefDeclaration:
		addAll(add, n.Meta)
		add(n.Name)
		addAll(add, n.TypeParams)
		add(n.Type)
	case *FieldDeclaration:
		addAll(add, n.Meta)
		add(n.Name, n.Type, n.Init)
	case *MethodDeclaration:
		addAll(add, n.Meta)
		add(n.Name)
		addAll(add, n.TypeParams)
		addAll(add, n.Params)
		add(n.ReturnType, n.Body)
	case *TypeParameter:
		add(n.Name, n.Constraint)
	case *Parameter:
		add(n.Name, n.Type, n.Default)

	case *TypeReference:
		addAll(add, n.Params)
	case *FunctionType:
		for _, a := range n.Args {
			add(a.Type)
		}
		add(n.Return)
	case *AnonymousField:
		add(n.Name, n.Type)
	case *AnonymousType:
		addAll(add, n.Extends)
		addAll(add, n.Fields)

	case *ArrayLiteral:
		addAll(add, n.Elements)
	case *ArrayComprehension:
		add(n.Loop)
	case *MapLiteral:
		for i := range n.Keys {
			add(n.Keys[i], n.Values[i])
		}
	case *ObjectField:
		add(n.Value)
	case *ObjectLiteral:
		addAll(add, n.Fields)
	case *FunctionLiteral:
		add(n.Name)
		addAll(add, n.TypeParams)
		addAll(add, n.Params)
		add(n.ReturnType, n.Body)
	case *CallExpression:
		add(n.Callee)
		addAll(add, n.Args)
	case *NewExpression:
		add(n.Type)
		addAll(add, n.Args)
	case *MemberExpression:
		add(n.Object, n.Property)
	case *IndexExpression:
		add(n.Left, n.Index)
	case *InfixExpression:
		add(n.Left, n.Right)
	case *AssignmentExpression:
		add(n.Left, n.Value)
	case *PrefixExpression:
		add(n.Right)
	case *UpdateExpression:
		add(n.Argument)
	case *TernaryExpression:
		add(n.Condition, n.Consequence, n.Alternative)
	case *ParenExpression:
		add(n.Inner)
	case *TypeCheckExpression:
		add(n.Expr, n.Type)
	case *IsExpression:
		add(n.Expr, n.Type)
	case *CastExpression:
		add(n.Expr, n.Type)
	case *IntervalExpression:
		add(n.From, n.To)
	case *SpreadElement:
		add(n.Argument)
	case *UntypedExpression:
		add(n.Expr)
	case *VarDeclaration:
		add(n.Name, n.Type, n.Init)
	case *VarDeclarationList:
		addAll(add, n.Decls)
	case *BlockExpression:
		addAll(add, n.Expressions)
	case *IfExpression:
		add(n.Condition, n.Consequence, n.Alternative)
	case *WhileExpression:
		if n.DoWhile {
			add(n.Body, n.Condition)
		} else {
			add(n.Condition, n.Body)
		}
	case *LoopVariable:
		add(n.Name)
	case *ForExpression:
		add(n.Key, n.Value, n.Iterable, n.Body)
	case *CaptureVariable:
		add(n.Name)
	case *SwitchCase:
		addAll(add, n.Patterns)
		add(n.Guard, n.Body)
	case *SwitchExpression:
		add(n.Subject)
		addAll(add, n.Cases)
		add(n.Default)
	case *ReturnExpression:
		add(n.Value)
	case *ThrowExpression:
		add(n.Value)
	case *CatchClause:
		add(n.Var, n.Body)
	case *TryExpression:
		add(n.Body)
		addAll(add, n.Catches)
	case *MacroExpression:
		add(n.Expr, n.Type, n.Class)
	case *ReificationExpression:
		add(n.Inner)
	}
	return out
}

func addAll[T Node](add func(...Node), nodes []T) {
	for _, n := range nodes {
		add(n)
	}
}

// isNil reports a nil interface or a typed nil pointer.
func isNil(n Node) bool {
	if n == nil {
		return true
	}
	v := reflect.ValueOf(n)
	return v.Kind() == reflect.Ptr && v.IsNil()
}

// Inspect traverses the tree depth-first. If f returns false the children
// of that node are skipped.
func Inspect(n Node, f func(Node) bool) {
	if isNil(n) || !f(n) {
		return
	}
	for _, c := range Children(n) {
		Inspect(c, f)
	}
}

// LinkParents sets the parent pointer of every node below root.
func LinkParents(root Node) {
	for _, c := range Children(root) {
		c.setParent(root)
		LinkParents(c)
	}
}

// Ancestor returns the closest enclosing node accepted by match.
func Ancestor(n Node, match func(Node) bool) Node {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if match(p) {
			return p
		}
	}
	return nil
}

// NodeAt returns the innermost node whose range contains the offset.
func NodeAt(root Node, offset int) Node {
	var found Node
	Inspect(root, func(n Node) bool {
		if !n.Range().ContainsOffset(offset) {
			return false
		}
		found = n
		return true
	})
	return found
}
