package internalcheck

import (
	"fmt"
	"go/ast"
	"go/types"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

const loggingPkg = modulePath + "/pkg/logging"

var logMethods = map[string]bool{"Debug": true, "Info": true, "Warn": true, "Error": true}

// TestNoRawAddressLogging rejects unsafe.Pointer and uintptr arguments to
// Logger methods. Addresses go through logging.Address, which honours
// redaction.
func TestNoRawAddressLogging(t *testing.T) {
	pkgs := loadModule(t,
		packages.NeedName|packages.NeedFiles|packages.NeedSyntax|packages.NeedTypes|packages.NeedTypesInfo,
		modulePath+"/pkg/transfer", modulePath+"/cmd/...")

	var findings []string
	for _, pkg := range pkgs {
		for _, file := range pkg.Syntax {
			ast.Inspect(file, func(n ast.Node) bool {
				call, ok := n.(*ast.CallExpr)
				if !ok {
					return true
				}
				sel, ok := call.Fun.(*ast.SelectorExpr)
				if !ok || !logMethods[sel.Sel.Name] || !isLogger(pkg.TypesInfo.TypeOf(sel.X)) {
					return true
				}
				for _, arg := range call.Args {
					if isRawAddress(pkg.TypesInfo.TypeOf(arg)) {
						findings = append(findings, fmt.Sprintf("%s: log raw addresses with logging.Address", pkg.Fset.Position(arg.Pos())))
					}
				}
				return true
			})
		}
	}

	if len(findings) > 0 {
		t.Fatalf("address logging policy violation:\n%s", strings.Join(findings, "\n"))
	}
}

func isLogger(typ types.Type) bool {
	named, ok := typ.(*types.Named)
	if !ok {
		return false
	}
	obj := named.Obj()
	return obj.Pkg() != nil && obj.Pkg().Path() == loggingPkg && obj.Name() == "Logger"
}

func isRawAddress(typ types.Type) bool {
	basic, ok := typ.(*types.Basic)
	if !ok {
		return false
	}
	return basic.Kind() == types.UnsafePointer || basic.Kind() == types.Uintptr
}
