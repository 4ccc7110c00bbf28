package runtime

import (
	"fmt"

	"lox-lang/internal/ast"
)

// Callable is a value that can appear as the callee of a Call expression.
type Callable interface {
	Value
	Arity() int
	Call(interp *Interpreter, args []Value) (Value, error)
}

// ---- user-defined functions ----

// UserFunction is a function or method declared in source. Its closure is
// the environment active at its declaration site, not at call time; this is
// what makes closures observe their declaration-time bindings.
type UserFunction struct {
	Decl          *ast.FunctionStmt
	Closure       *Environment
	IsInitializer bool
}

func (f *UserFunction) TypeName() string { return "function" }
func (f *UserFunction) String() string   { return fmt.Sprintf("<fn %s>", f.Decl.Name.Lexeme) }
func (f *UserFunction) Arity() int       { return len(f.Decl.Params) }

// Bind returns a copy of f whose closure has a fresh frame with 'this'
// pre-installed, used when a method is fetched off an instance.
func (f *UserFunction) Bind(instance *Instance) *UserFunction {
	env := NewEnvironment(f.Closure)
	env.Define("this", instance)
	return &UserFunction{Decl: f.Decl, Closure: env, IsInitializer: f.IsInitializer}
}

// Call creates a new environment child of the closure, binds parameters to
// args, and executes the body as a block that IS that parameter frame (no
// extra nesting). A Return control signal unwinds to here; falling off the
// end, or an explicit bare 'return', yields 'this' for an initializer and
// Nil otherwise.
func (f *UserFunction) Call(interp *Interpreter, args []Value) (Value, error) {
	env := NewEnvironment(f.Closure)
	for i, param := range f.Decl.Params {
		env.Define(param.Lexeme, args[i])
	}

	result, err := interp.execBlock(f.Decl.Body, env)
	if err != nil {
		return nil, err
	}

	if f.IsInitializer {
		return f.Closure.GetAt(0, "this"), nil
	}
	if result.Signal == SigReturn {
		return result.Value, nil
	}
	return NilVal{}, nil
}

// ---- native functions ----

// NativeFn is the Go signature backing a NativeFunction.
type NativeFn func(interp *Interpreter, args []Value) (Value, error)

// NativeFunction wraps a Go function as a Lox callable (only 'clock' in this
// implementation).
type NativeFunction struct {
	Name   string
	Params int
	Fn     NativeFn
}

func (f *NativeFunction) TypeName() string { return "function" }
func (f *NativeFunction) String() string   { return fmt.Sprintf("<native fn %s>", f.Name) }
func (f *NativeFunction) Arity() int       { return f.Params }
func (f *NativeFunction) Call(interp *Interpreter, args []Value) (Value, error) {
	return f.Fn(interp, args)
}

// ---- classes & instances ----

// Class is a callable that constructs Instances. Calling it runs 'init' (if
// defined) and returns the new instance regardless of what init returns.
type Class struct {
	Name    string
	Methods map[string]*UserFunction
}

func (c *Class) TypeName() string { return "class" }
func (c *Class) String() string   { return c.Name }

func (c *Class) FindMethod(name string) *UserFunction {
	return c.Methods[name]
}

func (c *Class) Arity() int {
	if init := c.FindMethod("init"); init != nil {
		return init.Arity()
	}
	return 0
}

func (c *Class) Call(interp *Interpreter, args []Value) (Value, error) {
	instance := &Instance{Class: c, Fields: make(map[string]Value)}
	if init := c.FindMethod("init"); init != nil {
		if _, err := init.Bind(instance).Call(interp, args); err != nil {
			return nil, err
		}
	}
	return instance, nil
}

// Instance is a class instance: fields first, then methods on the class.
type Instance struct {
	Class  *Class
	Fields map[string]Value
}

func (o *Instance) TypeName() string { return o.Class.Name }
func (o *Instance) String() string   { return o.Class.Name + " instance" }

// Get implements property lookup: fields shadow methods. A found method is
// bound with a fresh 'this' frame before being returned.
func (o *Instance) Get(name string) (Value, bool) {
	if value, ok := o.Fields[name]; ok {
		return value, true
	}
	if method := o.Class.FindMethod(name); method != nil {
		return method.Bind(o), true
	}
	return nil, false
}

// Set stores value into the instance's own field map.
func (o *Instance) Set(name string, value Value) {
	o.Fields[name] = value
}
