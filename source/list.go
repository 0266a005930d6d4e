package source

import (
	"fmt"
	"go/ast"
	"go/token"
	"strconv"
)

// SuiteCases statically enumerates the case names a suite body declares. It
// locates the suite registration call spanning line in the declaring file and
// collects the string literals passed to .Case calls inside the suite
// function. Cases with computed names cannot be read without running the
// body and are skipped.
func (r *FileReader) SuiteCases(file string, line int) ([]string, error) {
	pf := r.parse(file)
	if pf.err != nil {
		return nil, pf.err
	}

	var body *ast.FuncLit
	ast.Inspect(pf.file, func(n ast.Node) bool {
		if body != nil {
			return false
		}
		call, ok := n.(*ast.CallExpr)
		if !ok || calleeName(call) != "Suite" || len(call.Args) < 2 {
			return true
		}
		start := pf.fset.Position(call.Pos()).Line
		end := pf.fset.Position(call.End()).Line
		if line < start || end < line {
			return true
		}
		if fn, ok := call.Args[len(call.Args)-1].(*ast.FuncLit); ok {
			body = fn
			return false
		}
		return true
	})
	if body == nil {
		return nil, fmt.Errorf("no suite declaration found at %s:%d", file, line)
	}

	var names []string
	ast.Inspect(body, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok || len(call.Args) < 2 {
			return true
		}
		sel, ok := call.Fun.(*ast.SelectorExpr)
		if !ok || sel.Sel.Name != "Case" {
			return true
		}
		lit, ok := call.Args[0].(*ast.BasicLit)
		if !ok || lit.Kind != token.STRING {
			return true
		}
		if name, err := strconv.Unquote(lit.Value); err == nil {
			names = append(names, name)
		}
		return true
	})
	return names, nil
}

// calleeName returns the bare name of a call's function, for both the
// qualified form pkg.Suite and the dot-imported form Suite.
func calleeName(call *ast.CallExpr) string {
	switch fun := call.Fun.(type) {
	case *ast.SelectorExpr:
		return fun.Sel.Name
	case *ast.Ident:
		return fun.Name
	}
	return ""
}
