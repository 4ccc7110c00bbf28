package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"lox-lang/internal/diag"
	"lox-lang/internal/lexer"
	"lox-lang/internal/parser"
	"lox-lang/internal/resolver"
	"lox-lang/internal/runtime"
)

const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorGray  = "\033[90m"
	colorBold  = "\033[1m"
	colorCyan  = "\033[36m"
)

// runRepl reads lines from stdin, balancing braces across lines so a
// multi-line block or function body can be entered before it runs. One
// Interpreter persists for the whole session so top-level definitions
// accumulate in its global environment, per the driver's single-run-per-line
// contract.
func runRepl() {
	historyFile := ""
	if home, err := os.UserHomeDir(); err == nil {
		historyFile = filepath.Join(home, ".lox_history")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            colorGreen + "> " + colorReset,
		HistoryFile:       historyFile,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "readline init failed: %v\n", err)
		os.Exit(exitUsage)
	}
	defer rl.Close()

	fmt.Fprintf(rl.Stdout(), "%s%slox%s %s(Ctrl+D to quit)%s\n\n",
		colorBold, colorCyan, colorReset, colorGray, colorReset)

	interp := runtime.NewInterpreter(rl.Stdout())

	var accumulated strings.Builder
	braceDepth := 0

	for {
		if braceDepth > 0 {
			rl.SetPrompt(colorGray + "...   " + colorReset)
		} else {
			rl.SetPrompt(colorGreen + "> " + colorReset)
		}

		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				if braceDepth > 0 {
					accumulated.Reset()
					braceDepth = 0
					continue
				}
				continue
			}
			if err == io.EOF {
				fmt.Fprintln(rl.Stdout())
			}
			break
		}

		braceDepth += strings.Count(line, "{") - strings.Count(line, "}")
		accumulated.WriteString(line)
		accumulated.WriteString("\n")

		if braceDepth > 0 {
			continue
		}
		braceDepth = 0

		source := accumulated.String()
		accumulated.Reset()
		if strings.TrimSpace(source) == "" {
			continue
		}

		runReplLine(rl, interp, source)
	}
}

func runReplLine(rl *readline.Instance, interp *runtime.Interpreter, source string) {
	l := lexer.New(source, "<repl>")
	tokens, lexDiags := l.Tokenize()
	if len(lexDiags) > 0 {
		printDiagsColored(rl.Stderr(), lexDiags)
		return
	}

	p := parser.New(tokens)
	file, parseDiags := p.ParseFile()
	if len(parseDiags) > 0 {
		printDiagsColored(rl.Stderr(), parseDiags)
		return
	}

	r := resolver.New()
	locals, resolveDiags := r.Resolve(file)
	if len(resolveDiags) > 0 {
		printDiagsColored(rl.Stderr(), resolveDiags)
		return
	}

	interp.Resolve(locals)
	if err := interp.Run(file); err != nil {
		fmt.Fprintf(rl.Stderr(), "%s%s%s\n", colorRed, err, colorReset)
	}
}

func printDiagsColored(w io.Writer, diags []diag.Diagnostic) {
	for _, d := range diags {
		fmt.Fprintf(w, "%s%s%s\n", colorRed, d.String(), colorReset)
	}
}
