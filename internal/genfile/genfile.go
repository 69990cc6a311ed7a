// Package genfile writes build-time artifacts produced by te-bindgen.
package genfile

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Write replaces path with data via a temporary file in the same directory
// and a rename, so readers never observe a partially written file. An
// existing file with identical contents is left alone to keep build caches
// warm.
func Write(path string, data []byte) error {
	return WriteFiles(File{Path: path, Data: data})
}

// File is one output of WriteFiles.
type File struct {
	Path string
	Data []byte
}

// WriteFiles is Write for a set of files. Every file is staged before the
// first rename, so a failure to stage any of them leaves all targets
// untouched.
func WriteFiles(files ...File) error {
	type staged struct{ tmp, path string }
	var pending []staged
	defer func() {
		for _, s := range pending {
			os.Remove(s.tmp)
		}
	}()

	for _, f := range files {
		if old, err := os.ReadFile(f.Path); err == nil && bytes.Equal(old, f.Data) {
			continue
		}
		if fi, err := os.Stat(f.Path); err == nil && fi.IsDir() {
			return fmt.Errorf("%s is a directory", f.Path)
		}
		tmp, err := stage(f.Path, f.Data)
		if err != nil {
			return err
		}
		pending = append(pending, staged{tmp: tmp, path: f.Path})
	}
	for _, s := range pending {
		if err := os.Rename(s.tmp, s.path); err != nil {
			return err
		}
	}
	return nil
}

// stage writes data to a temporary file next to path and returns its name.
func stage(path string, data []byte) (string, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return "", err
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return "", err
	}
	if err := os.Chmod(name, 0o644); err != nil {
		os.Remove(name)
		return "", err
	}
	return name, nil
}

// SrcDirRel expresses target relative to the directory of a generated file
// in the ${SRCDIR} form understood by #cgo directives.
func SrcDirRel(outDir, target string) (string, error) {
	absOut, err := filepath.Abs(outDir)
	if err != nil {
		return "", err
	}
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(absOut, absTarget)
	if err != nil {
		return "", fmt.Errorf("%s is not reachable from %s: %w", target, outDir, err)
	}
	rel = filepath.ToSlash(rel)
	if rel == "." {
		return "${SRCDIR}", nil
	}
	if strings.ContainsAny(rel, " \t") {
		return "", fmt.Errorf("path %q contains whitespace, which #cgo directives cannot express", rel)
	}
	return "${SRCDIR}/" + rel, nil
}
