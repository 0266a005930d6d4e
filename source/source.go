// Package source resolves check call sites back to their literal Go text,
// so a failed Assert(x).Eq(3) reports the expression "x == 3" rather than
// only the formatted values.
package source

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/parser"
	"go/printer"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/mod/modfile"
)

// Reader resolves the source text of a check call site. Implementations
// return an error when the text cannot be recovered; callers then fall back
// to formatted runtime values.
type Reader interface {
	// CallText returns the text of the expression captured by the builder
	// call named method at file:line and, when the chained terminal takes
	// an operand, the operand's text.
	CallText(file string, line int, method, terminal string) (lhs, rhs string, err error)
}

// FileReader parses Go files on demand and caches the syntax trees for the
// lifetime of the run. Safe for concurrent use.
type FileReader struct {
	mu    sync.Mutex
	files map[string]*parsedFile

	rootOnce sync.Once
	root     string
}

type parsedFile struct {
	fset *token.FileSet
	file *ast.File
	err  error
}

// NewFileReader returns an empty reader. Files parse lazily on first use.
func NewFileReader() *FileReader {
	return &FileReader{files: make(map[string]*parsedFile)}
}

// CallText locates the builder call at file:line and renders its argument.
// Chained terminals on the same statement also yield the operand text, so
// multi-line chains and wrapped operands come back as written. When two
// checks share one line the first in source order wins.
func (r *FileReader) CallText(file string, line int, method, terminal string) (string, string, error) {
	pf := r.parse(file)
	if pf.err != nil {
		return "", "", pf.err
	}

	var lhs, rhs string
	found := false
	ast.Inspect(pf.file, func(n ast.Node) bool {
		if found {
			return false
		}
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}
		sel, ok := call.Fun.(*ast.SelectorExpr)
		if !ok {
			return true
		}
		if sel.Sel.Name == terminal {
			inner, ok := sel.X.(*ast.CallExpr)
			if ok && len(inner.Args) == 1 && r.methodAt(pf.fset, inner, method, line) {
				lhs = render(pf.fset, inner.Args[0])
				if len(call.Args) > 0 {
					rhs = render(pf.fset, call.Args[0])
				}
				found = true
				return false
			}
		}
		// A builder without a visible terminal still names its value.
		if lhs == "" && sel.Sel.Name == method && len(call.Args) == 1 && r.methodAt(pf.fset, call, method, line) {
			lhs = render(pf.fset, call.Args[0])
		}
		return true
	})

	if lhs == "" {
		return "", "", fmt.Errorf("no %s call found at %s:%d", method, file, line)
	}
	return lhs, rhs, nil
}

func (r *FileReader) methodAt(fset *token.FileSet, call *ast.CallExpr, method string, line int) bool {
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok || sel.Sel.Name != method {
		return false
	}
	start := fset.Position(call.Pos()).Line
	end := fset.Position(call.End()).Line
	return start <= line && line <= end
}

func (r *FileReader) parse(file string) *parsedFile {
	r.mu.Lock()
	defer r.mu.Unlock()
	if pf, ok := r.files[file]; ok {
		return pf
	}
	pf := &parsedFile{fset: token.NewFileSet()}
	pf.file, pf.err = parser.ParseFile(pf.fset, r.resolve(file), nil, parser.SkipObjectResolution)
	r.files[file] = pf
	return pf
}

// resolve maps a build-time path recorded in the binary onto the working
// tree. When the recorded path no longer exists, successively shorter path
// suffixes are tried under the enclosing module root.
func (r *FileReader) resolve(file string) string {
	if _, err := os.Stat(file); err == nil {
		return file
	}
	root := r.moduleRoot()
	if root == "" {
		return file
	}
	parts := strings.Split(filepath.ToSlash(file), "/")
	for i := 1; i < len(parts); i++ {
		cand := filepath.Join(root, filepath.FromSlash(strings.Join(parts[i:], "/")))
		if _, err := os.Stat(cand); err == nil {
			return cand
		}
	}
	return file
}

// moduleRoot walks up from the working directory to the nearest directory
// holding a valid go.mod.
func (r *FileReader) moduleRoot() string {
	r.rootOnce.Do(func() {
		dir, err := os.Getwd()
		if err != nil {
			return
		}
		for {
			gomod := filepath.Join(dir, "go.mod")
			if data, err := os.ReadFile(gomod); err == nil {
				if mf, perr := modfile.Parse(gomod, data, nil); perr == nil && mf.Module != nil {
					r.root = dir
				}
				return
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				return
			}
			dir = parent
		}
	})
	return r.root
}

func render(fset *token.FileSet, e ast.Expr) string {
	var buf bytes.Buffer
	if err := printer.Fprint(&buf, fset, e); err != nil {
		return ""
	}
	s := buf.String()
	if strings.ContainsAny(s, "\n\t") {
		s = strings.Join(strings.Fields(s), " ")
	}
	return s
}
