// Package bindings is the only package that talks to the native transfer
// engine.
//
// The cgo surface is generated: zz_generated_engine.go is rendered by
// te-bindgen from include/transfer_engine_c.h and zz_generated_link.go from
// link.yaml. Never edit those files by hand; run
//
//	go generate ./internal/bindings
//
// after changing the header or the manifest. Generation fails, and leaves
// the committed files untouched, when the header cannot be parsed or a
// native library is missing from the search paths.
//
// The native build is opt-in through the mooncake build tag:
//
//	go build -tags mooncake ./...
//
// Without cgo, on non-Linux platforms, or without the tag every entry point
// returns ErrNotBuilt so the rest of the module compiles and tests anywhere.
//
// Addresses passed in are borrowed for the duration of the call. The engine
// keeps registered regions mapped until they are unregistered but never
// frees them.
package bindings
