// Package snippet implements the compile/execute half of a plan step
// (SPEC_FULL.md §4.7): Compile statically validates an LLM-generated Go
// snippet before Run hands it to the yaegi sandbox.
package snippet

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/scanner"
	"go/token"
	"strconv"
	"strings"

	"onemcp/internal/onemcp/onemcperr"
)

const entrypointName = "Run"

// CompileResult is everything the executor needs out of a snippet that
// compiled cleanly: the (possibly import-augmented) source that yaegi
// evaluates, its package name, and whether a Run function was found.
type CompileResult struct {
	Source       string
	PackageName  string
	HasEntrypoint bool
}

// Diagnostic is one compile problem, shaped for inclusion in the repair
// loop's next prompt to the LLM.
type Diagnostic struct {
	Line    int
	Message string
}

// Compile parses source and checks it against the sandbox's constraints:
// valid Go syntax, an entrypoint function named Run, and an import
// list drawn only from allowedImports. Before that check runs, an
// import-inference pass adds a missing import for any allow-listed package
// the snippet references but forgot to import (e.g. calling json.Marshal
// without "encoding/json"), so a generated snippet isn't sent through a
// repair round-trip for an omission Compile can resolve on its own. It does
// not run go/types across the onemcpsdk package boundary — the sandbox's
// real capability guarantees come from yaegi's symbol allow-listing at
// execution time, not from static typing of a throwaway snippet string (see
// DESIGN.md).
func Compile(source string) (*CompileResult, []Diagnostic, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "snippet.go", source, parser.AllErrors)
	if err != nil {
		return nil, parseDiagnostics(err), onemcperr.CompilationError("snippet: syntax error", err)
	}

	if added := inferMissingImports(file); len(added) > 0 {
		var buf bytes.Buffer
		if err := format.Node(&buf, fset, file); err != nil {
			return nil, nil, onemcperr.CompilationError("snippet: failed to render inferred imports", err)
		}
		source = buf.String()
	}

	var diags []Diagnostic
	for _, imp := range file.Imports {
		path, unquoteErr := strconv.Unquote(imp.Path.Value)
		if unquoteErr != nil {
			continue
		}
		if !isAllowedImport(path) {
			diags = append(diags, Diagnostic{
				Line:    fset.Position(imp.Pos()).Line,
				Message: fmt.Sprintf("import %q is not permitted in a sandboxed snippet", path),
			})
		}
	}

	hasEntrypoint := findEntrypoint(file) != nil
	if !hasEntrypoint {
		diags = append(diags, Diagnostic{Message: fmt.Sprintf("missing required entrypoint function %q", entrypointName)})
	}

	if len(diags) > 0 {
		return nil, diags, onemcperr.CompilationError("snippet: failed validation", diagnosticsError(diags))
	}

	return &CompileResult{
		Source:        source,
		PackageName:   file.Name.Name,
		HasEntrypoint: hasEntrypoint,
	}, nil, nil
}

func findEntrypoint(file *ast.File) *ast.FuncDecl {
	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if ok && fn.Recv == nil && fn.Name.Name == entrypointName {
			return fn
		}
	}
	return nil
}

func parseDiagnostics(err error) []Diagnostic {
	list, ok := err.(scanner.ErrorList)
	if !ok {
		return []Diagnostic{{Message: err.Error()}}
	}
	diags := make([]Diagnostic, 0, len(list))
	for _, e := range list {
		diags = append(diags, Diagnostic{Line: e.Pos.Line, Message: e.Msg})
	}
	return diags
}

func diagnosticsError(diags []Diagnostic) error {
	parts := make([]string, len(diags))
	for i, d := range diags {
		parts[i] = d.Message
	}
	return fmt.Errorf("%s", strings.Join(parts, "; "))
}
