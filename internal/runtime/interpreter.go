// Package runtime implements the tree-walking interpreter and runtime value
// system for Lox.
package runtime

import (
	"fmt"
	"io"

	"lox-lang/internal/ast"
	"lox-lang/internal/span"
	"lox-lang/internal/token"
)

// ============================================================
// Control flow signals
// ============================================================

// ExecSignal represents a control-flow signal produced by statement
// execution. Lox has only one non-local control construct: return.
type ExecSignal int

const (
	SigNone ExecSignal = iota
	SigReturn
)

// ExecResult carries a control-flow signal and, for SigReturn, its value.
type ExecResult struct {
	Signal ExecSignal
	Value  Value
}

var resultNone = ExecResult{Signal: SigNone}

// ============================================================
// Runtime error
// ============================================================

// RuntimeError is a dynamic-type or undefined-name failure discovered during
// evaluation. Its message and the line of the token that triggered it are
// rendered as "<msg>\n[line N]".
type RuntimeError struct {
	Message string
	Span    span.Span
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s\n[line %d]", e.Message, e.Span.Start.Line)
}

func runtimeErr(s span.Span, format string, args ...interface{}) *RuntimeError {
	return &RuntimeError{Message: fmt.Sprintf(format, args...), Span: s}
}

func runtimeErrTok(tok token.Token, format string, args ...interface{}) *RuntimeError {
	return runtimeErr(tok.Span, format, args...)
}

// ============================================================
// Interpreter
// ============================================================

// Interpreter walks the AST and executes it. A single instance persists
// across REPL lines so that top-level definitions accumulate in its global
// environment.
type Interpreter struct {
	global *Environment
	env    *Environment
	locals map[ast.Expr]int
	output io.Writer
}

// NewInterpreter creates an interpreter with native functions registered in
// its global environment, writing 'print' output to w.
func NewInterpreter(output io.Writer) *Interpreter {
	global := NewEnvironment(nil)
	RegisterBuiltins(global)
	return &Interpreter{
		global: global,
		env:    global,
		output: output,
	}
}

// Resolve adds the resolver's variable-distance side table to the tables of
// earlier runs. It must be called (with the result for the program about to
// run) before Run; entries from earlier REPL lines are kept so functions
// declared there still find their locals.
func (i *Interpreter) Resolve(locals map[ast.Expr]int) {
	if i.locals == nil {
		i.locals = make(map[ast.Expr]int, len(locals))
	}
	for expr, distance := range locals {
		i.locals[expr] = distance
	}
}

// Run executes every top-level statement in file. A return reaching this
// level indicates an interpreter bug (the resolver rejects top-level
// returns statically), so it is reported as a runtime error rather than
// silently accepted.
func (i *Interpreter) Run(file *ast.File) error {
	for _, stmt := range file.Body {
		result, err := i.execStmt(stmt)
		if err != nil {
			return err
		}
		if result.Signal == SigReturn {
			return runtimeErr(stmt.GetSpan(), "return outside of function")
		}
	}
	return nil
}

// ============================================================
// Statement execution
// ============================================================

func (i *Interpreter) execStmt(stmt ast.Stmt) (ExecResult, error) {
	switch s := stmt.(type) {
	case *ast.ExpressionStmt:
		_, err := i.evalExpr(s.Expr)
		return resultNone, err

	case *ast.PrintStmt:
		val, err := i.evalExpr(s.Expr)
		if err != nil {
			return resultNone, err
		}
		fmt.Fprintln(i.output, Stringify(val))
		return resultNone, nil

	case *ast.VarStmt:
		var val Value = NilVal{}
		if s.Initializer != nil {
			v, err := i.evalExpr(s.Initializer)
			if err != nil {
				return resultNone, err
			}
			val = v
		}
		i.env.Define(s.Name.Lexeme, val)
		return resultNone, nil

	case *ast.BlockStmt:
		return i.execBlock(s.Stmts, NewEnvironment(i.env))

	case *ast.IfStmt:
		cond, err := i.evalExpr(s.Condition)
		if err != nil {
			return resultNone, err
		}
		if IsTruthy(cond) {
			return i.execStmt(s.Then)
		}
		if s.Else != nil {
			return i.execStmt(s.Else)
		}
		return resultNone, nil

	case *ast.WhileStmt:
		for {
			cond, err := i.evalExpr(s.Condition)
			if err != nil {
				return resultNone, err
			}
			if !IsTruthy(cond) {
				break
			}
			result, err := i.execStmt(s.Body)
			if err != nil {
				return resultNone, err
			}
			if result.Signal == SigReturn {
				return result, nil
			}
		}
		return resultNone, nil

	case *ast.FunctionStmt:
		fn := &UserFunction{Decl: s, Closure: i.env}
		i.env.Define(s.Name.Lexeme, fn)
		return resultNone, nil

	case *ast.ReturnStmt:
		var val Value = NilVal{}
		if s.Value != nil {
			v, err := i.evalExpr(s.Value)
			if err != nil {
				return resultNone, err
			}
			val = v
		}
		return ExecResult{Signal: SigReturn, Value: val}, nil

	case *ast.ClassStmt:
		return i.execClassStmt(s)

	default:
		return resultNone, runtimeErr(stmt.GetSpan(), "unhandled statement type: %T", stmt)
	}
}

// execBlock runs stmts in blockEnv, restoring the interpreter's previous
// environment on every exit path (normal, return, or error).
func (i *Interpreter) execBlock(stmts []ast.Stmt, blockEnv *Environment) (ExecResult, error) {
	prevEnv := i.env
	i.env = blockEnv
	defer func() { i.env = prevEnv }()

	for _, stmt := range stmts {
		result, err := i.execStmt(stmt)
		if err != nil {
			return resultNone, err
		}
		if result.Signal != SigNone {
			return result, nil
		}
	}
	return resultNone, nil
}

func (i *Interpreter) execClassStmt(s *ast.ClassStmt) (ExecResult, error) {
	cls := &Class{Name: s.Name.Lexeme, Methods: make(map[string]*UserFunction)}
	for _, method := range s.Methods {
		fn := &UserFunction{
			Decl:          method,
			Closure:       i.env,
			IsInitializer: method.Name.Lexeme == "init",
		}
		cls.Methods[method.Name.Lexeme] = fn
	}
	i.env.Define(s.Name.Lexeme, cls)
	return resultNone, nil
}

// ============================================================
// Expression evaluation
// ============================================================

func (i *Interpreter) evalExpr(expr ast.Expr) (Value, error) {
	switch e := expr.(type) {
	case *ast.LiteralExpr:
		return literalValue(e.Value), nil
	case *ast.GroupingExpr:
		return i.evalExpr(e.Inner)
	case *ast.VariableExpr:
		return i.lookupVariable(e.Name, e)
	case *ast.AssignExpr:
		return i.evalAssign(e)
	case *ast.UnaryExpr:
		return i.evalUnary(e)
	case *ast.BinaryExpr:
		return i.evalBinary(e)
	case *ast.LogicalExpr:
		return i.evalLogical(e)
	case *ast.CallExpr:
		return i.evalCall(e)
	case *ast.GetExpr:
		return i.evalGet(e)
	case *ast.SetExpr:
		return i.evalSet(e)
	case *ast.ThisExpr:
		return i.lookupVariable(e.Keyword, e)
	case *ast.SuperExpr:
		return nil, runtimeErrTok(e.Keyword, "'super' is not supported.")
	default:
		return nil, runtimeErr(expr.GetSpan(), "unhandled expression type: %T", expr)
	}
}

// literalValue converts a parsed Go literal (float64, string, bool, nil) into
// a runtime Value.
func literalValue(v interface{}) Value {
	switch val := v.(type) {
	case nil:
		return NilVal{}
	case float64:
		return NumberVal(val)
	case string:
		return StringVal(val)
	case bool:
		return BoolVal(val)
	default:
		return NilVal{}
	}
}

// lookupVariable resolves name using the resolver's distance table when
// available, falling back to the global environment for names the resolver
// left unrecorded.
func (i *Interpreter) lookupVariable(name token.Token, expr ast.Expr) (Value, error) {
	if distance, ok := i.locals[expr]; ok {
		return i.env.GetAt(distance, name.Lexeme), nil
	}
	if val, ok := i.global.Get(name.Lexeme); ok {
		return val, nil
	}
	return nil, runtimeErrTok(name, "Undefined variable '%s'.", name.Lexeme)
}

func (i *Interpreter) evalAssign(e *ast.AssignExpr) (Value, error) {
	val, err := i.evalExpr(e.Value)
	if err != nil {
		return nil, err
	}
	if distance, ok := i.locals[e]; ok {
		i.env.AssignAt(distance, e.Name.Lexeme, val)
		return val, nil
	}
	if err := i.global.Set(e.Name.Lexeme, val); err != nil {
		return nil, runtimeErrTok(e.Name, "Undefined variable '%s'.", e.Name.Lexeme)
	}
	return val, nil
}

func (i *Interpreter) evalUnary(e *ast.UnaryExpr) (Value, error) {
	right, err := i.evalExpr(e.Right)
	if err != nil {
		return nil, err
	}
	switch e.Op.Kind {
	case token.BANG:
		return BoolVal(!IsTruthy(right)), nil
	case token.MINUS:
		n, ok := right.(NumberVal)
		if !ok {
			return nil, runtimeErrTok(e.Op, "Operand must be a number.")
		}
		return NumberVal(-float64(n)), nil
	default:
		return nil, runtimeErrTok(e.Op, "unknown unary operator: %s", e.Op.Lexeme)
	}
}

func (i *Interpreter) evalLogical(e *ast.LogicalExpr) (Value, error) {
	left, err := i.evalExpr(e.Left)
	if err != nil {
		return nil, err
	}
	if e.Op.Kind == token.OR {
		if IsTruthy(left) {
			return left, nil
		}
	} else if !IsTruthy(left) {
		return left, nil
	}
	return i.evalExpr(e.Right)
}

func (i *Interpreter) evalBinary(e *ast.BinaryExpr) (Value, error) {
	left, err := i.evalExpr(e.Left)
	if err != nil {
		return nil, err
	}
	right, err := i.evalExpr(e.Right)
	if err != nil {
		return nil, err
	}

	switch e.Op.Kind {
	case token.EQUAL_EQUAL:
		return BoolVal(IsEqual(left, right)), nil
	case token.BANG_EQUAL:
		return BoolVal(!IsEqual(left, right)), nil
	case token.PLUS:
		if ln, lok := left.(NumberVal); lok {
			if rn, rok := right.(NumberVal); rok {
				return NumberVal(float64(ln) + float64(rn)), nil
			}
		}
		if ls, lok := left.(StringVal); lok {
			if rs, rok := right.(StringVal); rok {
				return StringVal(string(ls) + string(rs)), nil
			}
		}
		return nil, runtimeErrTok(e.Op, "Operands must be two numbers or two strings.")
	}

	ln, lok := left.(NumberVal)
	rn, rok := right.(NumberVal)
	if !lok || !rok {
		return nil, runtimeErrTok(e.Op, "Operands must be numbers.")
	}

	switch e.Op.Kind {
	case token.MINUS:
		return NumberVal(float64(ln) - float64(rn)), nil
	case token.STAR:
		return NumberVal(float64(ln) * float64(rn)), nil
	case token.SLASH:
		return NumberVal(float64(ln) / float64(rn)), nil
	case token.GREATER:
		return BoolVal(ln > rn), nil
	case token.GREATER_EQUAL:
		return BoolVal(ln >= rn), nil
	case token.LESS:
		return BoolVal(ln < rn), nil
	case token.LESS_EQUAL:
		return BoolVal(ln <= rn), nil
	default:
		return nil, runtimeErrTok(e.Op, "unknown binary operator: %s", e.Op.Lexeme)
	}
}

func (i *Interpreter) evalCall(e *ast.CallExpr) (Value, error) {
	callee, err := i.evalExpr(e.Callee)
	if err != nil {
		return nil, err
	}

	args := make([]Value, len(e.Args))
	for idx, argExpr := range e.Args {
		val, err := i.evalExpr(argExpr)
		if err != nil {
			return nil, err
		}
		args[idx] = val
	}

	callable, ok := callee.(Callable)
	if !ok {
		return nil, runtimeErrTok(e.Paren, "Can only call functions and classes.")
	}
	if len(args) != callable.Arity() {
		return nil, runtimeErrTok(e.Paren, "Expected %d arguments but got %d.", callable.Arity(), len(args))
	}
	return callable.Call(i, args)
}

func (i *Interpreter) evalGet(e *ast.GetExpr) (Value, error) {
	obj, err := i.evalExpr(e.Object)
	if err != nil {
		return nil, err
	}
	instance, ok := obj.(*Instance)
	if !ok {
		return nil, runtimeErrTok(e.Name, "Only instances have properties.")
	}
	val, ok := instance.Get(e.Name.Lexeme)
	if !ok {
		return nil, runtimeErrTok(e.Name, "Undefined property '%s'.", e.Name.Lexeme)
	}
	return val, nil
}

func (i *Interpreter) evalSet(e *ast.SetExpr) (Value, error) {
	obj, err := i.evalExpr(e.Object)
	if err != nil {
		return nil, err
	}
	instance, ok := obj.(*Instance)
	if !ok {
		return nil, runtimeErrTok(e.Name, "Only instances have fields.")
	}
	val, err := i.evalExpr(e.Value)
	if err != nil {
		return nil, err
	}
	instance.Set(e.Name.Lexeme, val)
	return val, nil
}
