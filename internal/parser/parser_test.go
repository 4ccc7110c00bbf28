package parser

import (
	"encoding/json"
	"testing"

	"lox-lang/internal/ast"
	"lox-lang/internal/lexer"
)

func parseOK(t *testing.T, source string) *ast.File {
	t.Helper()
	l := lexer.New(source, "test.lox")
	tokens, lexDiags := l.Tokenize()
	if len(lexDiags) > 0 {
		t.Fatalf("lex errors: %v", lexDiags)
	}
	p := New(tokens)
	file, parseDiags := p.ParseFile()
	if len(parseDiags) > 0 {
		t.Fatalf("parse errors: %v", parseDiags)
	}
	return file
}

func parseToJSON(t *testing.T, source string) string {
	t.Helper()
	file := parseOK(t, source)
	m := ast.NodeToMap(file)
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		t.Fatalf("json error: %v", err)
	}
	return string(data)
}

func TestParseVarDecl(t *testing.T) {
	file := parseOK(t, `var x = 42;`)
	if len(file.Body) != 1 {
		t.Fatalf("expected 1 node, got %d", len(file.Body))
	}
	decl, ok := file.Body[0].(*ast.VarStmt)
	if !ok {
		t.Fatalf("expected VarStmt, got %T", file.Body[0])
	}
	if decl.Name.Lexeme != "x" {
		t.Errorf("expected name 'x', got %q", decl.Name.Lexeme)
	}
}

func TestParseVarDeclNoInitializer(t *testing.T) {
	file := parseOK(t, `var x;`)
	decl := file.Body[0].(*ast.VarStmt)
	if decl.Initializer != nil {
		t.Error("expected nil initializer")
	}
}

func TestParseBinaryPrecedence(t *testing.T) {
	file := parseOK(t, `print 1 + 2 * 3;`)
	stmt := file.Body[0].(*ast.PrintStmt)
	binExpr, ok := stmt.Expr.(*ast.BinaryExpr)
	if !ok {
		t.Fatalf("expected BinaryExpr, got %T", stmt.Expr)
	}
	if binExpr.Op.Lexeme != "+" {
		t.Errorf("expected '+', got %q", binExpr.Op.Lexeme)
	}
	rightBin, ok := binExpr.Right.(*ast.BinaryExpr)
	if !ok {
		t.Fatalf("expected right BinaryExpr, got %T", binExpr.Right)
	}
	if rightBin.Op.Lexeme != "*" {
		t.Errorf("expected '*', got %q", rightBin.Op.Lexeme)
	}
}

func TestParseIfElse(t *testing.T) {
	source := `if (x > 0) { print x; } else { print -1; }`
	file := parseOK(t, source)
	ifStmt, ok := file.Body[0].(*ast.IfStmt)
	if !ok {
		t.Fatalf("expected IfStmt, got %T", file.Body[0])
	}
	if ifStmt.Condition == nil {
		t.Fatal("condition is nil")
	}
	if ifStmt.Else == nil {
		t.Error("else branch is nil")
	}
}

func TestParseWhileStmt(t *testing.T) {
	source := `while (i < 10) { i = i + 1; }`
	file := parseOK(t, source)
	whileStmt, ok := file.Body[0].(*ast.WhileStmt)
	if !ok {
		t.Fatalf("expected WhileStmt, got %T", file.Body[0])
	}
	if whileStmt.Condition == nil {
		t.Fatal("condition is nil")
	}
	if whileStmt.Body == nil {
		t.Fatal("body is nil")
	}
}

func TestParseForDesugarsToWhile(t *testing.T) {
	source := `for (var i = 0; i < 3; i = i + 1) print i;`
	file := parseOK(t, source)
	block, ok := file.Body[0].(*ast.BlockStmt)
	if !ok {
		t.Fatalf("expected desugared for to be a BlockStmt, got %T", file.Body[0])
	}
	if len(block.Stmts) != 2 {
		t.Fatalf("expected init + while, got %d stmts", len(block.Stmts))
	}
	if _, ok := block.Stmts[0].(*ast.VarStmt); !ok {
		t.Errorf("expected first stmt to be VarStmt, got %T", block.Stmts[0])
	}
	whileStmt, ok := block.Stmts[1].(*ast.WhileStmt)
	if !ok {
		t.Fatalf("expected second stmt to be WhileStmt, got %T", block.Stmts[1])
	}
	innerBlock, ok := whileStmt.Body.(*ast.BlockStmt)
	if !ok {
		t.Fatalf("expected while body to be a BlockStmt (body + increment), got %T", whileStmt.Body)
	}
	if len(innerBlock.Stmts) != 2 {
		t.Fatalf("expected body + increment, got %d stmts", len(innerBlock.Stmts))
	}
}

func TestParseFuncDecl(t *testing.T) {
	source := `fun add(a, b) { return a + b; }`
	file := parseOK(t, source)
	fn, ok := file.Body[0].(*ast.FunctionStmt)
	if !ok {
		t.Fatalf("expected FunctionStmt, got %T", file.Body[0])
	}
	if fn.Name.Lexeme != "add" {
		t.Errorf("expected name 'add', got %q", fn.Name.Lexeme)
	}
	if len(fn.Params) != 2 {
		t.Errorf("expected 2 params, got %d", len(fn.Params))
	}
}

func TestParseClassDecl(t *testing.T) {
	source := `class Point {
  init(x, y) {
    this.x = x;
    this.y = y;
  }
  move(dx, dy) {
    this.x = this.x + dx;
  }
}`
	file := parseOK(t, source)
	cls, ok := file.Body[0].(*ast.ClassStmt)
	if !ok {
		t.Fatalf("expected ClassStmt, got %T", file.Body[0])
	}
	if cls.Name.Lexeme != "Point" {
		t.Errorf("expected name 'Point', got %q", cls.Name.Lexeme)
	}
	if len(cls.Methods) != 2 {
		t.Errorf("expected 2 methods, got %d", len(cls.Methods))
	}
}

func TestParseCallExprAsExprStmt(t *testing.T) {
	file := parseOK(t, `clock();`)
	stmt, ok := file.Body[0].(*ast.ExpressionStmt)
	if !ok {
		t.Fatalf("expected ExpressionStmt, got %T", file.Body[0])
	}
	call, ok := stmt.Expr.(*ast.CallExpr)
	if !ok {
		t.Fatalf("expected CallExpr, got %T", stmt.Expr)
	}
	if len(call.Args) != 0 {
		t.Errorf("expected 0 args, got %d", len(call.Args))
	}
}

func TestParseGetExprChain(t *testing.T) {
	file := parseOK(t, `obj.method(1).prop;`)
	stmt := file.Body[0].(*ast.ExpressionStmt)
	get, ok := stmt.Expr.(*ast.GetExpr)
	if !ok {
		t.Fatalf("expected GetExpr, got %T", stmt.Expr)
	}
	if get.Name.Lexeme != "prop" {
		t.Errorf("expected property 'prop', got %q", get.Name.Lexeme)
	}
}

func TestParseAssignment(t *testing.T) {
	file := parseOK(t, `x = 42;`)
	stmt := file.Body[0].(*ast.ExpressionStmt)
	assign, ok := stmt.Expr.(*ast.AssignExpr)
	if !ok {
		t.Fatalf("expected AssignExpr, got %T", stmt.Expr)
	}
	if assign.Name.Lexeme != "x" {
		t.Errorf("expected 'x', got %q", assign.Name.Lexeme)
	}
}

func TestParseInvalidAssignmentTargetDoesNotAbort(t *testing.T) {
	l := lexer.New(`1 = 2; var y = 3;`, "test.lox")
	tokens, _ := l.Tokenize()
	p := New(tokens)
	file, diags := p.ParseFile()
	if len(diags) == 0 {
		t.Fatal("expected a diagnostic for an invalid assignment target")
	}
	if diags[0].Message != "Invalid assignment target." {
		t.Errorf("unexpected message: %q", diags[0].Message)
	}
	if len(file.Body) != 2 {
		t.Fatalf("expected parsing to continue past the bad target, got %d stmts", len(file.Body))
	}
}

func TestParseJSONOutput(t *testing.T) {
	jsonStr := parseToJSON(t, `var x = 1;`)
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(jsonStr), &m); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if m["kind"] != "File" {
		t.Errorf("expected kind 'File', got %v", m["kind"])
	}
}

func TestParseErrorRecovery(t *testing.T) {
	// Missing closing paren - parser should still produce a best-effort AST.
	source := "var x = add(1, 2;\nvar y = 3;"
	l := lexer.New(source, "test.lox")
	tokens, _ := l.Tokenize()
	p := New(tokens)
	file, diags := p.ParseFile()

	if len(diags) == 0 {
		t.Error("expected parse errors")
	}
	if file == nil {
		t.Fatal("file is nil")
	}
}

func TestParseTopLevelReturnIsAllowedSyntactically(t *testing.T) {
	// The grammar allows 'return' anywhere a statement is allowed; the
	// top-level restriction is a resolver-level static check, not a parser
	// error (see internal/resolver).
	file := parseOK(t, `return 1;`)
	if _, ok := file.Body[0].(*ast.ReturnStmt); !ok {
		t.Fatalf("expected ReturnStmt, got %T", file.Body[0])
	}
}
