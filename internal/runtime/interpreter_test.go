package runtime

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"lox-lang/internal/diag"
	"lox-lang/internal/lexer"
	"lox-lang/internal/parser"
	"lox-lang/internal/resolver"
)

// runSource lexes, parses, resolves and executes source, returning captured
// stdout and any error. Static (lex/parse/resolve) errors are surfaced as a
// plain error too, mirroring how the driver aborts before interpretation.
func runSource(source string) (string, error) {
	l := lexer.New(source, "test.lox")
	tokens, lexDiags := l.Tokenize()
	if len(lexDiags) > 0 {
		return "", errFromDiags(lexDiags)
	}

	p := parser.New(tokens)
	file, parseDiags := p.ParseFile()
	if len(parseDiags) > 0 {
		return "", errFromDiags(parseDiags)
	}

	r := resolver.New()
	locals, resolveDiags := r.Resolve(file)
	if len(resolveDiags) > 0 {
		return "", errFromDiags(resolveDiags)
	}

	var buf bytes.Buffer
	interp := NewInterpreter(&buf)
	interp.Resolve(locals)
	err := interp.Run(file)
	return buf.String(), err
}

func errFromDiags(diags []diag.Diagnostic) error {
	msgs := make([]string, len(diags))
	for i, d := range diags {
		msgs[i] = d.String()
	}
	return fmt.Errorf("%s", strings.Join(msgs, "\n"))
}

func expectOutput(t *testing.T, source, expected string) {
	t.Helper()
	out, err := runSource(source)
	if err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	if strings.TrimRight(out, "\n") != strings.TrimRight(expected, "\n") {
		t.Errorf("output mismatch:\nexpected: %q\ngot:      %q", expected, out)
	}
}

func expectError(t *testing.T, source, contains string) {
	t.Helper()
	_, err := runSource(source)
	if err == nil {
		t.Fatalf("expected error containing %q, got nil", contains)
	}
	if !strings.Contains(err.Error(), contains) {
		t.Errorf("expected error containing %q, got: %v", contains, err)
	}
}

// ---- Tests ----

func TestPrintLiteral(t *testing.T) {
	expectOutput(t, `print 42;`, "42\n")
}

func TestPrintString(t *testing.T) {
	expectOutput(t, `print "hello";`, "hello\n")
}

func TestArithmetic(t *testing.T) {
	expectOutput(t, `print 1 + 2 * 3;`, "7\n")
	expectOutput(t, `print (1 + 2) * 3;`, "9\n")
	expectOutput(t, `print 10 / 3;`, "3.3333333333333335\n")
}

func TestVarDecl(t *testing.T) {
	expectOutput(t, `
var x = 10;
print x;
`, "10\n")
}

func TestGlobalRedefinition(t *testing.T) {
	// Lox explicitly permits redeclaring a global with 'var'.
	expectOutput(t, `
var greeting = "hi";
var greeting = "bye";
print greeting;
`, "bye\n")
}

func TestVarReassign(t *testing.T) {
	expectOutput(t, `
var x = 1;
x = 2;
print x;
`, "2\n")
}

func TestUndefinedVarError(t *testing.T) {
	expectError(t, `print y;`, "Undefined variable 'y'.")
}

func TestBlockShadowing(t *testing.T) {
	expectOutput(t, `
var x = "outer";
{
  var x = "inner";
  print x;
}
print x;
`, "inner\nouter\n")
}

func TestIfElse(t *testing.T) {
	expectOutput(t, `
var x = 10;
if (x > 5) {
  print "big";
} else {
  print "small";
}
`, "big\n")

	expectOutput(t, `
var x = 3;
if (x > 5) {
  print "big";
} else if (x > 1) {
  print "medium";
} else {
  print "small";
}
`, "medium\n")
}

func TestWhileLoop(t *testing.T) {
	expectOutput(t, `
var i = 0;
var sum = 0;
while (i < 5) {
  sum = sum + i;
  i = i + 1;
}
print sum;
`, "10\n")
}

func TestForLoop(t *testing.T) {
	expectOutput(t, `
var sum = 0;
for (var i = 0; i < 5; i = i + 1) {
  sum = sum + i;
}
print sum;
`, "10\n")
}

func TestFunction(t *testing.T) {
	expectOutput(t, `
fun add(a, b) {
  return a + b;
}
print add(3, 4);
`, "7\n")
}

func TestRecursion(t *testing.T) {
	expectOutput(t, `
fun fib(n) {
  if (n <= 1) return n;
  return fib(n - 1) + fib(n - 2);
}
print fib(10);
`, "55\n")
}

func TestClosureCounter(t *testing.T) {
	expectOutput(t, `
fun makeCounter() {
  var count = 0;
  fun inc() {
    count = count + 1;
    return count;
  }
  return inc;
}
var counter = makeCounter();
print counter();
print counter();
`, "1\n2\n")
}

func TestClassAndThis(t *testing.T) {
	expectOutput(t, `
class Egotist {
  speak() {
    print this;
  }
}
var e = Egotist();
e.speak();
`, "Egotist instance\n")
}

func TestInitializerReturnsSelf(t *testing.T) {
	expectOutput(t, `
class Foo {
  init() {
    return;
  }
}
print Foo().init();
`, "Foo instance\n")
}

func TestInstanceFieldsAndMethods(t *testing.T) {
	expectOutput(t, `
class Point {
  init(x, y) {
    this.x = x;
    this.y = y;
  }
  move(dx, dy) {
    this.x = this.x + dx;
    this.y = this.y + dy;
  }
}
var p = Point(1, 2);
p.move(3, 4);
print p.x;
print p.y;
`, "4\n6\n")
}

func TestStringConcat(t *testing.T) {
	expectOutput(t, `print "hello" + " " + "world";`, "hello world\n")
}

func TestLogicalOpsShortCircuit(t *testing.T) {
	expectOutput(t, `print false and undefinedName;`, "false\n")
	expectOutput(t, `print true or undefinedName;`, "true\n")
	expectOutput(t, `print !true;`, "false\n")
}

func TestComparison(t *testing.T) {
	expectOutput(t, `print 1 == 1;`, "true\n")
	expectOutput(t, `print 1 != 2;`, "true\n")
	expectOutput(t, `print 3 > 2;`, "true\n")
	expectOutput(t, `print 2 <= 2;`, "true\n")
}

func TestNilEquality(t *testing.T) {
	expectOutput(t, `print nil == nil;`, "true\n")
	expectOutput(t, `print nil != 1;`, "true\n")
}

func TestUnaryMinus(t *testing.T) {
	expectOutput(t, `print -5;`, "-5\n")
	expectOutput(t, `print -3.14;`, "-3.14\n")
}

func TestWrongArityRuntimeError(t *testing.T) {
	expectError(t, `
fun add(a, b) { return a + b; }
add(1);
`, "Expected 2 arguments but got 1.")
}

func TestUndefinedPropertyError(t *testing.T) {
	expectError(t, `
class Empty {}
var e = Empty();
print e.missing;
`, "Undefined property 'missing'.")
}

func TestAddTypeMismatchError(t *testing.T) {
	expectError(t, `print 1 + "two";`, "Operands must be two numbers or two strings.")
}

func TestTopLevelReturnIsStaticError(t *testing.T) {
	expectError(t, `return 1;`, "Can't return from top-level code.")
}

func TestThisOutsideClassIsStaticError(t *testing.T) {
	expectError(t, `print this;`, "Can't use 'this' outside of a class.")
}

func TestDuplicateLocalIsStaticError(t *testing.T) {
	expectError(t, `
{
  var a = 1;
  var a = 2;
}
`, "Already a variable with this name in this scope.")
}

func TestNestedFunction(t *testing.T) {
	expectOutput(t, `
fun outer() {
  var x = 10;
  fun inner() {
    return x + 1;
  }
  return inner();
}
print outer();
`, "11\n")
}

func TestFibonacciSequence(t *testing.T) {
	source := `
fun fib(n) {
  if (n <= 1) return n;
  return fib(n - 1) + fib(n - 2);
}
var i = 0;
while (i < 10) {
  print fib(i);
  i = i + 1;
}
`
	expectOutput(t, source, "0\n1\n1\n2\n3\n5\n8\n13\n21\n34\n")
}
