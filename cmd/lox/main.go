// Command lox is the CLI entry point for the Lox toolchain: a REPL when run
// with no arguments, or a one-shot interpreter when given a script path.
package main

import (
	"fmt"
	"os"

	"lox-lang/internal/ast"
	"lox-lang/internal/diag"
	"lox-lang/internal/lexer"
	"lox-lang/internal/parser"
	"lox-lang/internal/resolver"
	"lox-lang/internal/runtime"
)

const (
	exitOK      = 0
	exitUsage   = 64
	exitStatic  = 65
	exitRuntime = 70
)

func main() {
	args := os.Args[1:]

	dumpAST := false
	var scriptArgs []string
	for _, a := range args {
		if a == "-ast" || a == "--ast" {
			dumpAST = true
			continue
		}
		scriptArgs = append(scriptArgs, a)
	}

	switch len(scriptArgs) {
	case 0:
		runRepl()
	case 1:
		runFile(scriptArgs[0], dumpAST)
	default:
		fmt.Fprintln(os.Stderr, "Usage: lox [script]")
		os.Exit(exitUsage)
	}
}

func runFile(path string, dumpAST bool) {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: cannot read file %s: %v\n", path, err)
		os.Exit(exitUsage)
	}

	l := lexer.New(string(source), path)
	tokens, lexDiags := l.Tokenize()

	p := parser.New(tokens)
	file, parseDiags := p.ParseFile()

	staticDiags := append(lexDiags, parseDiags...)

	var locals map[ast.Expr]int
	if len(staticDiags) == 0 {
		r := resolver.New()
		var resolveDiags []diag.Diagnostic
		locals, resolveDiags = r.Resolve(file)
		staticDiags = append(staticDiags, resolveDiags...)
	}

	if dumpAST {
		printJSON(map[string]interface{}{
			"ast":         ast.NodeToMap(file),
			"diagnostics": diagsToSlice(staticDiags),
		})
	}

	if len(staticDiags) > 0 {
		if !dumpAST {
			printDiagsText(staticDiags)
		}
		os.Exit(exitStatic)
	}
	if dumpAST {
		return
	}

	interp := runtime.NewInterpreter(os.Stdout)
	interp.Resolve(locals)
	if err := interp.Run(file); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitRuntime)
	}
	os.Exit(exitOK)
}

func printDiagsText(diags []diag.Diagnostic) {
	for _, d := range diags {
		fmt.Fprintln(os.Stderr, d.String())
	}
}

func diagsToSlice(diags []diag.Diagnostic) []map[string]interface{} {
	result := make([]map[string]interface{}, len(diags))
	for i, d := range diags {
		result[i] = map[string]interface{}{
			"severity": d.Severity.String(),
			"message":  d.Message,
			"where":    d.Where,
			"line":     d.Span.Start.Line,
			"column":   d.Span.Start.Column,
		}
	}
	return result
}
