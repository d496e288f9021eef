// Package testutil provides reusable testing helpers for enforcing
// architectural boundaries across the repository.
package testutil

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// AssertNoDirectImports scans all non-test .go files in dir (typically "."
// from within the package under test) and fails if any import path satisfies
// the forbidden predicate. It does not follow build tags.
func AssertNoDirectImports(t testing.TB, dir string, forbidden func(importPath string) bool, reason string) {
	t.Helper()
	viols, err := directImportViolations(dir, forbidden)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(viols) > 0 {
		t.Fatalf("forbidden direct imports detected (%s):\n%s", reason, strings.Join(viols, "\n"))
	}
}

// InternalImportForbidden matches any import path containing /internal/.
// The pkg/ tree is the stable surface and must not reach into internal
// packages.
func InternalImportForbidden(path string) bool {
	return strings.Contains(path, "/internal/")
}

// WireImportForbidden matches the wire codec package. Only the export and
// import adapters and the CLI speak the wire format; the core never
// serializes directly.
func WireImportForbidden(path string) bool {
	return strings.HasSuffix(path, "/internal/wire")
}

func directImportViolations(dir string, forbidden func(importPath string) bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	fset := token.NewFileSet()
	var viols []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		fileAst, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, 0)
		if err != nil {
			return nil, err
		}
		for _, imp := range fileAst.Imports {
			ip := strings.Trim(imp.Path.Value, "\"")
			if forbidden(ip) {
				viols = append(viols, ip+" (in "+name+")")
			}
		}
	}
	return viols, nil
}
