package blob

import (
	"sort"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

// layerRule restricts imports of guarded to packages under one of owners.
type layerRule struct {
	guarded string
	owners  []string
}

var layerRules = []layerRule{
	{guarded: "monkeycore/internal/infra/blob", owners: []string{"monkeycore/internal/blob", "monkeycore/internal/infra/blob"}},
	{guarded: "monkeycore/internal/infra/persistence", owners: []string{"monkeycore/internal/core", "monkeycore/internal/infra/persistence"}},
	{guarded: "monkeycore/cmd", owners: []string{"monkeycore/cmd"}},
}

func underPrefix(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func (r layerRule) violates(pkgPath, importPath string) bool {
	if !underPrefix(importPath, r.guarded) {
		return false
	}
	for _, owner := range r.owners {
		if underPrefix(pkgPath, owner) {
			return false
		}
	}
	return true
}

// TestLayering loads the module with its tests and checks every import
// against layerRules. Callers reach blobs through blob.Store and storage
// through core.PersistentStore.
func TestLayering(t *testing.T) {
	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedImports, Tests: true}
	pkgs, err := packages.Load(cfg, "monkeycore/...")
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}
	seen := make(map[string]struct{})
	for _, pkg := range pkgs {
		for importPath := range pkg.Imports {
			for _, rule := range layerRules {
				if rule.violates(pkg.PkgPath, importPath) {
					seen[pkg.PkgPath+": "+importPath] = struct{}{}
				}
			}
		}
	}
	if len(seen) == 0 {
		return
	}
	violations := make([]string, 0, len(seen))
	for v := range seen {
		violations = append(violations, v)
	}
	sort.Strings(violations)
	t.Fatalf("forbidden imports:\n%s", strings.Join(violations, "\n"))
}

func TestLayerRuleViolates(t *testing.T) {
	rule := layerRules[0]
	cases := []struct {
		pkg, imp string
		want     bool
	}{
		{"monkeycore/internal/archive", "monkeycore/internal/infra/blob/s3", true},
		{"monkeycore/internal/blob", "monkeycore/internal/infra/blob/fs", false},
		{"monkeycore/internal/infra/blob/s3", "monkeycore/internal/infra/blob/core", false},
		{"monkeycore/internal/archive", "monkeycore/internal/blob", false},
		{"monkeycore/internal/blobby", "monkeycore/internal/infra/blobs", false},
	}
	for _, c := range cases {
		if got := rule.violates(c.pkg, c.imp); got != c.want {
			t.Fatalf("violates(%q, %q) = %v, want %v", c.pkg, c.imp, got, c.want)
		}
	}
}
