package bindings

//go:generate go run ../../cmd/te-bindgen all --header ../../include/transfer_engine_c.h --manifest ../../link.yaml --out .
