// Package parser implements the syntax analysis for Lox: a strictly LL(1)
// recursive-descent parser with one dedicated procedure per grammar
// non-terminal and panic-mode error recovery.
package parser

import (
	"fmt"

	"lox-lang/internal/ast"
	"lox-lang/internal/diag"
	"lox-lang/internal/span"
	"lox-lang/internal/token"
)

const maxArgs = 255

// parseError is thrown internally (via panic/recover, confined to this
// package) to unwind to the nearest synchronization point. It is never a
// language-level concept — just an internal control-transfer mechanism for
// panic-mode recovery, mirroring the reference design's own use of an
// exception purely as an unwind signal within the parser.
type parseError struct{}

// Parser performs syntax analysis on a stream of tokens.
type Parser struct {
	tokens []token.Token
	pos    int
	diags  []diag.Diagnostic
}

// New creates a new parser from a token slice.
func New(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens, pos: 0}
}

// ParseFile parses the entire token stream into a program.
func (p *Parser) ParseFile() (file *ast.File, diags []diag.Diagnostic) {
	f := &ast.File{}
	startPos := p.peek().Span.Start

	for !p.isAtEnd() {
		if decl := p.declaration(); decl != nil {
			f.Body = append(f.Body, decl)
		}
	}

	endPos := p.peek().Span.End
	f.Span = span.Span{Start: startPos, End: endPos}
	return f, p.diags
}

// ---- navigation helpers ----

func (p *Parser) peek() token.Token {
	if p.pos >= len(p.tokens) {
		return token.Token{Kind: token.EOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) previous() token.Token {
	if p.pos == 0 {
		return p.peek()
	}
	return p.tokens[p.pos-1]
}

func (p *Parser) isAtEnd() bool {
	return p.peek().Kind == token.EOF
}

func (p *Parser) check(kind token.Kind) bool {
	return p.peek().Kind == kind
}

func (p *Parser) advance() token.Token {
	tok := p.peek()
	if !p.isAtEnd() {
		p.pos++
	}
	return tok
}

func (p *Parser) match(kinds ...token.Kind) bool {
	for _, k := range kinds {
		if p.check(k) {
			p.advance()
			return true
		}
	}
	return false
}

// consume requires the next token to be kind, reporting a parse error
// (unwound via panic/recover to the nearest synchronize point) otherwise.
func (p *Parser) consume(kind token.Kind, message string) token.Token {
	if p.check(kind) {
		return p.advance()
	}
	panic(p.error(p.peek(), message))
}

func (p *Parser) error(tok token.Token, message string) parseError {
	where := " at '" + tok.Lexeme + "'"
	if tok.Kind == token.EOF {
		where = " at end"
	}
	p.diags = append(p.diags, diag.ErrorAt(tok.Span, where, "%s", message))
	return parseError{}
}

// report records an error without unwinding (used for the 255-argument /
// parameter limit, which is reported but must not abort the parse).
func (p *Parser) report(tok token.Token, message string) {
	where := " at '" + tok.Lexeme + "'"
	if tok.Kind == token.EOF {
		where = " at end"
	}
	p.diags = append(p.diags, diag.ErrorAt(tok.Span, where, "%s", message))
}

// synchronize discards tokens until a likely statement boundary: the token
// just consumed was a ';', or the next token starts a new declaration.
func (p *Parser) synchronize() {
	p.advance()

	for !p.isAtEnd() {
		if p.previous().Kind == token.SEMICOLON {
			return
		}
		switch p.peek().Kind {
		case token.CLASS, token.FUN, token.VAR, token.FOR, token.IF,
			token.WHILE, token.PRINT, token.RETURN:
			return
		}
		p.advance()
	}
}

// ============================================================
// Declarations
// ============================================================

func (p *Parser) declaration() (stmt ast.Stmt) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(parseError); ok {
				p.synchronize()
				stmt = nil
				return
			}
			panic(r)
		}
	}()

	switch {
	case p.match(token.CLASS):
		return p.classDeclaration()
	case p.match(token.FUN):
		return p.function("function")
	case p.match(token.VAR):
		return p.varDeclaration()
	default:
		return p.statement()
	}
}

func (p *Parser) classDeclaration() ast.Stmt {
	start := p.previous()
	name := p.consume(token.IDENTIFIER, "Expect class name.")

	p.consume(token.LEFT_BRACE, "Expect '{' before class body.")

	var methods []*ast.FunctionStmt
	for !p.check(token.RIGHT_BRACE) && !p.isAtEnd() {
		methods = append(methods, p.function("method"))
	}

	end := p.consume(token.RIGHT_BRACE, "Expect '}' after class body.")

	return &ast.ClassStmt{
		StmtBase: stmtBase(start.Span.Start, end.Span.End),
		Name:     name,
		Methods:  methods,
	}
}

// function parses a function/method body: IDENT "(" parameters? ")" block.
// kind is "function" or "method", used only in error messages.
func (p *Parser) function(kind string) *ast.FunctionStmt {
	start := p.previous()
	name := p.consume(token.IDENTIFIER, "Expect "+kind+" name.")

	p.consume(token.LEFT_PAREN, "Expect '(' after "+kind+" name.")
	var params []token.Token
	if !p.check(token.RIGHT_PAREN) {
		for {
			if len(params) >= maxArgs {
				p.report(p.peek(), fmt.Sprintf("Can't have more than %d parameters.", maxArgs))
			}
			params = append(params, p.consume(token.IDENTIFIER, "Expect parameter name."))
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.consume(token.RIGHT_PAREN, "Expect ')' after parameters.")

	p.consume(token.LEFT_BRACE, "Expect '{' before "+kind+" body.")
	body := p.block()

	return &ast.FunctionStmt{
		StmtBase: stmtBase(start.Span.Start, p.previous().Span.End),
		Name:     name,
		Params:   params,
		Body:     body,
	}
}

func (p *Parser) varDeclaration() ast.Stmt {
	start := p.previous()
	name := p.consume(token.IDENTIFIER, "Expect variable name.")

	var initializer ast.Expr
	if p.match(token.EQUAL) {
		initializer = p.expression()
	}

	end := p.consume(token.SEMICOLON, "Expect ';' after variable declaration.")
	return &ast.VarStmt{
		StmtBase:    stmtBase(start.Span.Start, end.Span.End),
		Name:        name,
		Initializer: initializer,
	}
}

// ============================================================
// Statements
// ============================================================

func (p *Parser) statement() ast.Stmt {
	switch {
	case p.match(token.FOR):
		return p.forStatement()
	case p.match(token.IF):
		return p.ifStatement()
	case p.match(token.PRINT):
		return p.printStatement()
	case p.match(token.RETURN):
		return p.returnStatement()
	case p.match(token.WHILE):
		return p.whileStatement()
	case p.match(token.LEFT_BRACE):
		start := p.previous()
		stmts := p.block()
		return &ast.BlockStmt{StmtBase: stmtBase(start.Span.Start, p.previous().Span.End), Stmts: stmts}
	default:
		return p.expressionStatement()
	}
}

func (p *Parser) printStatement() ast.Stmt {
	start := p.previous()
	value := p.expression()
	end := p.consume(token.SEMICOLON, "Expect ';' after value.")
	return &ast.PrintStmt{StmtBase: stmtBase(start.Span.Start, end.Span.End), Expr: value}
}

func (p *Parser) returnStatement() ast.Stmt {
	keyword := p.previous()
	var value ast.Expr
	if !p.check(token.SEMICOLON) {
		value = p.expression()
	}
	end := p.consume(token.SEMICOLON, "Expect ';' after return value.")
	return &ast.ReturnStmt{StmtBase: stmtBase(keyword.Span.Start, end.Span.End), Keyword: keyword, Value: value}
}

func (p *Parser) whileStatement() ast.Stmt {
	start := p.previous()
	p.consume(token.LEFT_PAREN, "Expect '(' after 'while'.")
	condition := p.expression()
	p.consume(token.RIGHT_PAREN, "Expect ')' after condition.")
	body := p.statement()
	return &ast.WhileStmt{StmtBase: stmtBase(start.Span.Start, p.previous().Span.End), Condition: condition, Body: body}
}

// forStatement desugars 'for (init; cond; incr) body' into
// '{ init; while (cond') { body; incr; } }' at parse time: the only
// desugaring this parser performs.
func (p *Parser) forStatement() ast.Stmt {
	start := p.previous()
	p.consume(token.LEFT_PAREN, "Expect '(' after 'for'.")

	var initializer ast.Stmt
	switch {
	case p.match(token.SEMICOLON):
		initializer = nil
	case p.check(token.VAR):
		p.advance()
		initializer = p.varDeclaration()
	default:
		initializer = p.expressionStatement()
	}

	var condition ast.Expr
	if !p.check(token.SEMICOLON) {
		condition = p.expression()
	}
	p.consume(token.SEMICOLON, "Expect ';' after loop condition.")

	var increment ast.Expr
	if !p.check(token.RIGHT_PAREN) {
		increment = p.expression()
	}
	end := p.consume(token.RIGHT_PAREN, "Expect ')' after for clauses.")

	body := p.statement()

	if increment != nil {
		body = &ast.BlockStmt{
			StmtBase: stmtBase(start.Span.Start, end.Span.End),
			Stmts: []ast.Stmt{
				body,
				&ast.ExpressionStmt{StmtBase: stmtBase(increment.GetSpan().Start, increment.GetSpan().End), Expr: increment},
			},
		}
	}

	if condition == nil {
		condition = &ast.LiteralExpr{ExprBase: exprBase(start.Span.Start, start.Span.End), Value: true}
	}
	body = &ast.WhileStmt{StmtBase: stmtBase(start.Span.Start, end.Span.End), Condition: condition, Body: body}

	if initializer != nil {
		body = &ast.BlockStmt{StmtBase: stmtBase(start.Span.Start, end.Span.End), Stmts: []ast.Stmt{initializer, body}}
	}

	return body
}

func (p *Parser) ifStatement() ast.Stmt {
	start := p.previous()
	p.consume(token.LEFT_PAREN, "Expect '(' after 'if'.")
	condition := p.expression()
	p.consume(token.RIGHT_PAREN, "Expect ')' after if condition.")

	thenBranch := p.statement()
	var elseBranch ast.Stmt
	if p.match(token.ELSE) {
		elseBranch = p.statement()
	}

	return &ast.IfStmt{
		StmtBase:  stmtBase(start.Span.Start, p.previous().Span.End),
		Condition: condition,
		Then:      thenBranch,
		Else:      elseBranch,
	}
}

func (p *Parser) block() []ast.Stmt {
	var stmts []ast.Stmt
	for !p.check(token.RIGHT_BRACE) && !p.isAtEnd() {
		if decl := p.declaration(); decl != nil {
			stmts = append(stmts, decl)
		}
	}
	p.consume(token.RIGHT_BRACE, "Expect '}' after block.")
	return stmts
}

func (p *Parser) expressionStatement() ast.Stmt {
	expr := p.expression()
	end := p.consume(token.SEMICOLON, "Expect ';' after expression.")
	return &ast.ExpressionStmt{StmtBase: stmtBase(expr.GetSpan().Start, end.Span.End), Expr: expr}
}

// ============================================================
// Expressions: one dedicated procedure per precedence level, lowest to
// highest — assignment, or, and, equality, comparison, term, factor, unary,
// call, primary.
// ============================================================

func (p *Parser) expression() ast.Expr {
	return p.assignment()
}

func (p *Parser) assignment() ast.Expr {
	expr := p.or()

	if p.match(token.EQUAL) {
		equals := p.previous()
		value := p.assignment()

		switch target := expr.(type) {
		case *ast.VariableExpr:
			return &ast.AssignExpr{
				ExprBase: exprBase(expr.GetSpan().Start, value.GetSpan().End),
				Name:     target.Name,
				Value:    value,
			}
		case *ast.GetExpr:
			return &ast.SetExpr{
				ExprBase: exprBase(expr.GetSpan().Start, value.GetSpan().End),
				Object:   target.Object,
				Name:     target.Name,
				Value:    value,
			}
		default:
			// Reported but not synchronized: the parser keeps the LHS and
			// continues, per the assignment-target rule.
			p.report(equals, "Invalid assignment target.")
			return expr
		}
	}

	return expr
}

func (p *Parser) or() ast.Expr {
	expr := p.and()
	for p.check(token.OR) {
		op := p.advance()
		right := p.and()
		expr = &ast.LogicalExpr{ExprBase: exprBase(expr.GetSpan().Start, right.GetSpan().End), Left: expr, Op: op, Right: right}
	}
	return expr
}

func (p *Parser) and() ast.Expr {
	expr := p.equality()
	for p.check(token.AND) {
		op := p.advance()
		right := p.equality()
		expr = &ast.LogicalExpr{ExprBase: exprBase(expr.GetSpan().Start, right.GetSpan().End), Left: expr, Op: op, Right: right}
	}
	return expr
}

func (p *Parser) equality() ast.Expr {
	expr := p.comparison()
	for p.match(token.BANG_EQUAL, token.EQUAL_EQUAL) {
		op := p.previous()
		right := p.comparison()
		expr = &ast.BinaryExpr{ExprBase: exprBase(expr.GetSpan().Start, right.GetSpan().End), Left: expr, Op: op, Right: right}
	}
	return expr
}

func (p *Parser) comparison() ast.Expr {
	expr := p.term()
	for p.match(token.GREATER, token.GREATER_EQUAL, token.LESS, token.LESS_EQUAL) {
		op := p.previous()
		right := p.term()
		expr = &ast.BinaryExpr{ExprBase: exprBase(expr.GetSpan().Start, right.GetSpan().End), Left: expr, Op: op, Right: right}
	}
	return expr
}

func (p *Parser) term() ast.Expr {
	expr := p.factor()
	for p.match(token.MINUS, token.PLUS) {
		op := p.previous()
		right := p.factor()
		expr = &ast.BinaryExpr{ExprBase: exprBase(expr.GetSpan().Start, right.GetSpan().End), Left: expr, Op: op, Right: right}
	}
	return expr
}

func (p *Parser) factor() ast.Expr {
	expr := p.unary()
	for p.match(token.SLASH, token.STAR) {
		op := p.previous()
		right := p.unary()
		expr = &ast.BinaryExpr{ExprBase: exprBase(expr.GetSpan().Start, right.GetSpan().End), Left: expr, Op: op, Right: right}
	}
	return expr
}

func (p *Parser) unary() ast.Expr {
	if p.match(token.BANG, token.MINUS) {
		op := p.previous()
		right := p.unary()
		return &ast.UnaryExpr{ExprBase: exprBase(op.Span.Start, right.GetSpan().End), Op: op, Right: right}
	}
	return p.call()
}

func (p *Parser) call() ast.Expr {
	expr := p.primary()

	for {
		switch {
		case p.match(token.LEFT_PAREN):
			expr = p.finishCall(expr)
		case p.match(token.DOT):
			name := p.consume(token.IDENTIFIER, "Expect property name after '.'.")
			expr = &ast.GetExpr{ExprBase: exprBase(expr.GetSpan().Start, name.Span.End), Object: expr, Name: name}
		default:
			return expr
		}
	}
}

func (p *Parser) finishCall(callee ast.Expr) ast.Expr {
	var args []ast.Expr
	if !p.check(token.RIGHT_PAREN) {
		for {
			if len(args) >= maxArgs {
				p.report(p.peek(), fmt.Sprintf("Can't have more than %d arguments.", maxArgs))
			}
			args = append(args, p.expression())
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	paren := p.consume(token.RIGHT_PAREN, "Expect ')' after arguments.")
	return &ast.CallExpr{ExprBase: exprBase(callee.GetSpan().Start, paren.Span.End), Callee: callee, Paren: paren, Args: args}
}

func (p *Parser) primary() ast.Expr {
	tok := p.peek()

	switch {
	case p.match(token.FALSE):
		return &ast.LiteralExpr{ExprBase: exprBase(tok.Span.Start, tok.Span.End), Value: false}
	case p.match(token.TRUE):
		return &ast.LiteralExpr{ExprBase: exprBase(tok.Span.Start, tok.Span.End), Value: true}
	case p.match(token.NIL):
		return &ast.LiteralExpr{ExprBase: exprBase(tok.Span.Start, tok.Span.End), Value: nil}
	case p.match(token.NUMBER, token.STRING):
		return &ast.LiteralExpr{ExprBase: exprBase(tok.Span.Start, tok.Span.End), Value: tok.Literal}
	case p.match(token.SUPER):
		// 'super' is a recognized token but this implementation has no
		// superclass calls.
		p.consume(token.DOT, "Expect '.' after 'super'.")
		method := p.consume(token.IDENTIFIER, "Expect superclass method name.")
		p.error(tok, "'super' is not supported: this implementation has no superclass calls.")
		return &ast.SuperExpr{ExprBase: exprBase(tok.Span.Start, method.Span.End), Keyword: tok, Method: method}
	case p.match(token.THIS):
		return &ast.ThisExpr{ExprBase: exprBase(tok.Span.Start, tok.Span.End), Keyword: tok}
	case p.match(token.IDENTIFIER):
		return &ast.VariableExpr{ExprBase: exprBase(tok.Span.Start, tok.Span.End), Name: tok}
	case p.match(token.LEFT_PAREN):
		expr := p.expression()
		end := p.consume(token.RIGHT_PAREN, "Expect ')' after expression.")
		return &ast.GroupingExpr{ExprBase: exprBase(tok.Span.Start, end.Span.End), Inner: expr}
	}

	panic(p.error(tok, "Expect expression."))
}

// ============================================================
// Span helpers
// ============================================================

func exprBase(start, end span.Position) ast.ExprBase {
	return ast.ExprBase{NodeBase: ast.NodeBase{Span: span.Span{Start: start, End: end}}}
}

func stmtBase(start, end span.Position) ast.StmtBase {
	return ast.StmtBase{NodeBase: ast.NodeBase{Span: span.Span{Start: start, End: end}}}
}
