package snippet

import (
	"go/ast"
	"go/token"
	"strconv"
)

// allowedImports is the sandbox's import whitelist. A generated snippet may
// only reach the outside world through onemcpsdk; everything else is either
// a side-effect-free stdlib package or forbidden outright (no os/exec, os,
// net, unsafe, reflect, syscall, plugin).
var allowedImports = map[string]bool{
	"context":        true,
	"encoding/json":  true,
	"errors":         true,
	"fmt":            true,
	"math":           true,
	"sort":           true,
	"strconv":        true,
	"strings":        true,
	"time":           true,
	"onemcp/internal/onemcp/snippet/onemcpsdk": true,
}

func isAllowedImport(path string) bool {
	return allowedImports[path]
}

// importPathByPackageName maps each allow-listed package's conventional
// identifier to its import path, the table the inference pass below uses to
// resolve a bare qualifier like "json" back to "encoding/json".
var importPathByPackageName = map[string]string{
	"context":   "context",
	"json":      "encoding/json",
	"errors":    "errors",
	"fmt":       "fmt",
	"math":      "math",
	"sort":      "sort",
	"strconv":   "strconv",
	"strings":   "strings",
	"time":      "time",
	"onemcpsdk": "onemcp/internal/onemcp/snippet/onemcpsdk",
}

// inferMissingImports walks file for selector expressions qualified by a
// known allow-listed package name (e.g. json.Marshal) that file does not
// already import, and adds the missing import to file's import declaration.
// It reports the import paths it added. An LLM-generated snippet routinely
// uses a helper without remembering to import it; this closes that gap
// before the import whitelist check runs, rather than sending the snippet
// through a repair round-trip for a one-line omission.
func inferMissingImports(file *ast.File) []string {
	present := make(map[string]bool, len(file.Imports))
	for _, imp := range file.Imports {
		path, err := unquoteImportPath(imp)
		if err != nil {
			continue
		}
		present[path] = true
	}

	used := make(map[string]bool)
	ast.Inspect(file, func(n ast.Node) bool {
		sel, ok := n.(*ast.SelectorExpr)
		if !ok {
			return true
		}
		ident, ok := sel.X.(*ast.Ident)
		if !ok {
			return true
		}
		if path, known := importPathByPackageName[ident.Name]; known {
			used[path] = true
		}
		return true
	})

	var added []string
	for path := range used {
		if present[path] {
			continue
		}
		addImportSpec(file, path)
		added = append(added, path)
	}
	return added
}

func unquoteImportPath(imp *ast.ImportSpec) (string, error) {
	return strconv.Unquote(imp.Path.Value)
}

// addImportSpec appends path to file's existing import declaration, or
// creates one as the file's first declaration if it has none.
func addImportSpec(file *ast.File, path string) {
	spec := &ast.ImportSpec{Path: &ast.BasicLit{Kind: token.STRING, Value: strconv.Quote(path)}}
	for _, decl := range file.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if ok && gd.Tok == token.IMPORT {
			gd.Specs = append(gd.Specs, spec)
			file.Imports = append(file.Imports, spec)
			return
		}
	}
	gd := &ast.GenDecl{Tok: token.IMPORT, Specs: []ast.Spec{spec}}
	file.Decls = append([]ast.Decl{gd}, file.Decls...)
	file.Imports = append(file.Imports, spec)
}
