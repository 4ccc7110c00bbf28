// Package resolver implements the static lexical-scope pre-pass: for every
// name-referencing expression it records the number of enclosing scopes
// between the use and its binding, so the interpreter never has to search.
package resolver

import (
	"lox-lang/internal/ast"
	"lox-lang/internal/diag"
)

// functionType tracks what kind of function body is currently being walked,
// used to validate 'return' placement.
type functionType int

const (
	ftNone functionType = iota
	ftFunction
	ftInitializer
	ftMethod
)

// classType tracks whether 'this' is currently in scope.
type classType int

const (
	ctNone classType = iota
	ctClass
)

// variableState is the two-state lifecycle of a declared name within a
// scope: declared-but-not-yet-initialized, or fully defined.
type variableState bool

const (
	declared variableState = false
	defined  variableState = true
)

type scope map[string]variableState

// Resolver walks a parsed program and produces a side table mapping each
// Variable/Assign/This expression (by pointer identity) to its lexical
// distance from the scope that declares it. Expressions left out of the
// table are resolved as globals at run time.
type Resolver struct {
	scopes []scope

	currentFunction functionType
	currentClass    classType

	locals map[ast.Expr]int
	diags  []diag.Diagnostic
}

// New creates a Resolver ready to walk a program.
func New() *Resolver {
	return &Resolver{locals: make(map[ast.Expr]int)}
}

// Resolve walks every top-level declaration in file and returns the
// distance side table plus any static errors found.
func (r *Resolver) Resolve(file *ast.File) (map[ast.Expr]int, []diag.Diagnostic) {
	r.resolveStmts(file.Body)
	return r.locals, r.diags
}

func (r *Resolver) errorAt(s ast.Node, message string) {
	sp := s.GetSpan()
	r.diags = append(r.diags, diag.Errorf(sp, "%s", message))
}

// ---- scope stack ----

func (r *Resolver) beginScope() {
	r.scopes = append(r.scopes, scope{})
}

func (r *Resolver) endScope() {
	r.scopes = r.scopes[:len(r.scopes)-1]
}

func (r *Resolver) peekScope() scope {
	return r.scopes[len(r.scopes)-1]
}

func (r *Resolver) declare(name string, node ast.Node) {
	if len(r.scopes) == 0 {
		return
	}
	sc := r.peekScope()
	if _, ok := sc[name]; ok {
		r.errorAt(node, "Already a variable with this name in this scope.")
	}
	sc[name] = declared
}

func (r *Resolver) define(name string) {
	if len(r.scopes) == 0 {
		return
	}
	r.peekScope()[name] = defined
}

// resolveLocal scans the scope stack top-down (distance 0 = nearest
// enclosing local frame) and records the distance for expr if name is
// found; leaves expr unresolved (global) otherwise.
func (r *Resolver) resolveLocal(expr ast.Expr, name string) {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if _, ok := r.scopes[i][name]; ok {
			r.locals[expr] = len(r.scopes) - 1 - i
			return
		}
	}
}

// ---- statements ----

func (r *Resolver) resolveStmts(stmts []ast.Stmt) {
	for _, s := range stmts {
		r.resolveStmt(s)
	}
}

func (r *Resolver) resolveStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.ExpressionStmt:
		r.resolveExpr(s.Expr)
	case *ast.PrintStmt:
		r.resolveExpr(s.Expr)
	case *ast.VarStmt:
		r.declare(s.Name.Lexeme, s)
		if s.Initializer != nil {
			r.resolveExpr(s.Initializer)
		}
		r.define(s.Name.Lexeme)
	case *ast.BlockStmt:
		r.beginScope()
		r.resolveStmts(s.Stmts)
		r.endScope()
	case *ast.IfStmt:
		r.resolveExpr(s.Condition)
		r.resolveStmt(s.Then)
		if s.Else != nil {
			r.resolveStmt(s.Else)
		}
	case *ast.WhileStmt:
		r.resolveExpr(s.Condition)
		r.resolveStmt(s.Body)
	case *ast.FunctionStmt:
		r.declare(s.Name.Lexeme, s)
		r.define(s.Name.Lexeme)
		r.resolveFunction(s, ftFunction)
	case *ast.ReturnStmt:
		if r.currentFunction == ftNone {
			r.errorAt(s, "Can't return from top-level code.")
		}
		if s.Value != nil {
			if r.currentFunction == ftInitializer {
				r.errorAt(s, "Can't return a value from an initializer.")
			}
			r.resolveExpr(s.Value)
		}
	case *ast.ClassStmt:
		r.resolveClass(s)
	default:
		panic("resolver: unhandled statement node")
	}
}

func (r *Resolver) resolveClass(stmt *ast.ClassStmt) {
	enclosingClass := r.currentClass
	r.currentClass = ctClass

	r.declare(stmt.Name.Lexeme, stmt)
	r.define(stmt.Name.Lexeme)

	r.beginScope()
	r.peekScope()["this"] = defined

	for _, method := range stmt.Methods {
		declaration := ftMethod
		if method.Name.Lexeme == "init" {
			declaration = ftInitializer
		}
		r.resolveFunction(method, declaration)
	}

	r.endScope()
	r.currentClass = enclosingClass
}

func (r *Resolver) resolveFunction(fn *ast.FunctionStmt, ft functionType) {
	enclosingFunction := r.currentFunction
	r.currentFunction = ft

	r.beginScope()
	for _, param := range fn.Params {
		r.declare(param.Lexeme, fn)
		r.define(param.Lexeme)
	}
	r.resolveStmts(fn.Body)
	r.endScope()

	r.currentFunction = enclosingFunction
}

// ---- expressions ----

func (r *Resolver) resolveExpr(expr ast.Expr) {
	switch e := expr.(type) {
	case *ast.LiteralExpr:
		// no names to resolve
	case *ast.VariableExpr:
		if len(r.scopes) > 0 {
			if state, ok := r.peekScope()[e.Name.Lexeme]; ok && state == declared {
				r.errorAt(e, "Can't read local variable in its own initializer.")
			}
		}
		r.resolveLocal(e, e.Name.Lexeme)
	case *ast.AssignExpr:
		r.resolveExpr(e.Value)
		r.resolveLocal(e, e.Name.Lexeme)
	case *ast.UnaryExpr:
		r.resolveExpr(e.Right)
	case *ast.BinaryExpr:
		r.resolveExpr(e.Left)
		r.resolveExpr(e.Right)
	case *ast.LogicalExpr:
		r.resolveExpr(e.Left)
		r.resolveExpr(e.Right)
	case *ast.GroupingExpr:
		r.resolveExpr(e.Inner)
	case *ast.CallExpr:
		r.resolveExpr(e.Callee)
		for _, arg := range e.Args {
			r.resolveExpr(arg)
		}
	case *ast.GetExpr:
		r.resolveExpr(e.Object)
	case *ast.SetExpr:
		r.resolveExpr(e.Value)
		r.resolveExpr(e.Object)
	case *ast.ThisExpr:
		if r.currentClass == ctNone {
			r.errorAt(e, "Can't use 'this' outside of a class.")
			return
		}
		r.resolveLocal(e, "this")
	case *ast.SuperExpr:
		// 'super' is never resolvable: the parser already reported it as
		// unsupported. Nothing further to do here.
	default:
		panic("resolver: unhandled expression node")
	}
}
