// Command te-bindgen generates the cgo stubs and link directives for the
// transfer engine. It is run through go generate in internal/bindings:
//
//	te-bindgen all --header ../../include/transfer_engine_c.h --manifest ../../link.yaml --out .
//
// Any parse error or missing native library is fatal and leaves the existing
// files untouched.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "te-bindgen:", err)
		os.Exit(1)
	}
}
