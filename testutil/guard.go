// Package testutil provides test helpers that enforce the package layering:
// pkg/domain depends on nothing internal, storage backends depend only on
// the domain, and nothing below cmd/ reaches for the CLI.
package testutil

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

// Module is the import path prefix of this repository.
const Module = "monkeycore"

// InternalImportForbidden matches any import path with an /internal/
// segment.
func InternalImportForbidden(path string) bool {
	return strings.Contains(path, "/internal/")
}

// ModuleImportsExcept matches imports of this module other than the listed
// package paths.
func ModuleImportsExcept(allowed ...string) func(string) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		set[a] = struct{}{}
	}
	return func(path string) bool {
		if path != Module && !strings.HasPrefix(path, Module+"/") {
			return false
		}
		_, ok := set[path]
		return !ok
	}
}

// ThirdPartyExcept matches non-stdlib imports outside this module that are
// not listed. Standard library paths have no dot in their first element.
func ThirdPartyExcept(allowed ...string) func(string) bool {
	return func(path string) bool {
		first, _, _ := strings.Cut(path, "/")
		if !strings.Contains(first, ".") {
			return false
		}
		for _, a := range allowed {
			if path == a || strings.HasPrefix(path, a+"/") {
				return false
			}
		}
		return true
	}
}

// AnyOf matches when any predicate does.
func AnyOf(preds ...func(string) bool) func(string) bool {
	return func(path string) bool {
		for _, p := range preds {
			if p(path) {
				return true
			}
		}
		return false
	}
}

// AssertNoDirectImports fails t if a non-test .go file directly in dir
// imports a path matching forbidden. Subdirectories are not scanned.
func AssertNoDirectImports(t testing.TB, dir string, forbidden func(importPath string) bool, reason string) {
	t.Helper()
	viols, err := directImportViolations(dir, forbidden)
	if err != nil {
		t.Fatalf("scan %s: %v", dir, err)
	}
	failIfViolations(t, reason, viols)
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
		f, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.ImportsOnly)
		if err != nil {
			return nil, err
		}
		for _, imp := range f.Imports {
			if ip := strings.Trim(imp.Path.Value, `"`); forbidden(ip) {
				viols = append(viols, ip+" (in "+name+")")
			}
		}
	}
	sort.Strings(viols)
	return viols, nil
}

type fatalLogger interface {
	Fatalf(format string, args ...any)
}

func failIfViolations(t fatalLogger, reason string, viols []string) {
	if len(viols) > 0 {
		t.Fatalf("forbidden imports (%s):\n%s", reason, strings.Join(viols, "\n"))
	}
}
