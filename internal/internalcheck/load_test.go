package internalcheck

import (
	"testing"

	"golang.org/x/tools/go/packages"
)

const modulePath = "github.com/kvcache-ai/mooncake-te-go"

func loadModule(t *testing.T, mode packages.LoadMode, patterns ...string) []*packages.Package {
	t.Helper()
	if len(patterns) == 0 {
		patterns = []string{modulePath + "/..."}
	}
	pkgs, err := packages.Load(&packages.Config{Mode: mode, Tests: false}, patterns...)
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}
	if packages.PrintErrors(pkgs) > 0 {
		t.Fatalf("packages contain errors")
	}
	return pkgs
}

// allFiles returns every Go file of pkg, including those excluded by build
// constraints in the current configuration.
func allFiles(pkg *packages.Package) []string {
	files := append([]string{}, pkg.GoFiles...)
	return append(files, pkg.IgnoredFiles...)
}
