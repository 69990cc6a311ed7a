// Package linkcfg declares how the transfer engine and its native
// dependencies are linked, verifies that every library is present, and
// renders the result as #cgo LDFLAGS directives.
package linkcfg

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/tools/imports"
	"gopkg.in/yaml.v3"

	"github.com/kvcache-ai/mooncake-te-go/internal/genfile"
)

var (
	// ErrLibraryNotFound is wrapped by *MissingError.
	ErrLibraryNotFound = errors.New("linkcfg: native library not found")

	// ErrInvalidManifest reports a malformed link manifest.
	ErrInvalidManifest = errors.New("linkcfg: invalid manifest")

	// ErrStale reports a committed link file that no longer matches the
	// manifest.
	ErrStale = errors.New("linkcfg: generated link file is stale")
)

// Library is one native dependency.
type Library struct {
	Name string `yaml:"name"`
	// Static links lib<Name>.a between -Wl,-Bstatic and -Wl,-Bdynamic.
	Static bool `yaml:"static,omitempty"`
	// Toolchain libraries (libstdc++, libpthread) live in compiler-private
	// directories and are located by asking the C compiler.
	Toolchain bool `yaml:"toolchain,omitempty"`
}

// Manifest is the on-disk link configuration. Library order is link order.
type Manifest struct {
	SearchPaths []string  `yaml:"search_paths"`
	Libraries   []Library `yaml:"libraries"`
}

// DefaultManifest mirrors the engine's own build: the static engine archive
// first, then its runtime dependencies.
func DefaultManifest() *Manifest {
	return &Manifest{
		SearchPaths: []string{"build/mooncake-transfer-engine/src"},
		Libraries: []Library{
			{Name: "transfer_engine", Static: true},
			{Name: "stdc++", Toolchain: true},
			{Name: "ibverbs"},
			{Name: "glog"},
			{Name: "gflags"},
			{Name: "pthread", Toolchain: true},
			{Name: "jsoncpp"},
			{Name: "numa"},
			{Name: "etcd-cpp-api"},
		},
	}
}

// Load reads a YAML manifest.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidManifest, path, err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &m, nil
}

// LoadOrDefault is Load, except that a missing file yields DefaultManifest.
// The boolean reports whether the default was used.
func LoadOrDefault(path string) (*Manifest, bool, error) {
	m, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultManifest(), true, nil
	}
	return m, false, err
}

// Validate checks names and paths for values that cannot be expressed as
// linker flags.
func (m *Manifest) Validate() error {
	if len(m.Libraries) == 0 {
		return fmt.Errorf("%w: no libraries", ErrInvalidManifest)
	}
	seen := map[string]bool{}
	for i, lib := range m.Libraries {
		switch {
		case lib.Name == "":
			return fmt.Errorf("%w: library %d has no name", ErrInvalidManifest, i)
		case strings.HasPrefix(lib.Name, "-") || strings.ContainsAny(lib.Name, " \t/"):
			return fmt.Errorf("%w: library name %q", ErrInvalidManifest, lib.Name)
		case lib.Static && lib.Toolchain:
			return fmt.Errorf("%w: library %q cannot be both static and toolchain", ErrInvalidManifest, lib.Name)
		case seen[lib.Name]:
			return fmt.Errorf("%w: library %q listed twice", ErrInvalidManifest, lib.Name)
		}
		seen[lib.Name] = true
	}
	for _, p := range m.SearchPaths {
		if p == "" || strings.ContainsAny(p, " \t") {
			return fmt.Errorf("%w: search path %q", ErrInvalidManifest, p)
		}
	}
	return nil
}

// Marshal renders the manifest as YAML.
func (m *Manifest) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MissingError lists every library that could not be found.
type MissingError struct {
	Libraries   []string
	SearchPaths []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("%v: %s (searched %s)", ErrLibraryNotFound,
		strings.Join(e.Libraries, ", "), strings.Join(e.SearchPaths, ":"))
}

func (e *MissingError) Unwrap() error { return ErrLibraryNotFound }

// Locator finds a toolchain library file such as "libstdc++.so". It
// returns the resolved path and whether the file exists.
type Locator func(file string) (string, bool)

// CompilerLocator asks the C compiler named by $CC (default "cc") where it
// would find file. Compilers echo the bare name back when they cannot find
// it.
func CompilerLocator() Locator {
	cc := os.Getenv("CC")
	if cc == "" {
		cc = "cc"
	}
	return func(file string) (string, bool) {
		out, err := exec.Command(cc, "-print-file-name="+file).Output()
		if err != nil {
			return "", false
		}
		p := strings.TrimSpace(string(out))
		if p == "" || p == file || !filepath.IsAbs(p) {
			return "", false
		}
		if _, err := os.Stat(p); err != nil {
			return "", false
		}
		return p, true
	}
}

// Resolution records where each library was found.
type Resolution struct {
	manifest *Manifest
	root     string
	// Paths maps library name to the file that satisfied it.
	Paths map[string]string
}

// Resolve locates every library. Relative search paths are taken relative
// to root. All missing libraries are reported together.
func (m *Manifest) Resolve(root string, locate Locator) (*Resolution, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if locate == nil {
		locate = CompilerLocator()
	}

	dirs := make([]string, len(m.SearchPaths))
	for i, p := range m.SearchPaths {
		dirs[i] = m.abs(root, p)
	}

	res := &Resolution{manifest: m, root: root, Paths: map[string]string{}}
	var missing []string
	for _, lib := range m.Libraries {
		if p, ok := lib.find(dirs, locate); ok {
			res.Paths[lib.Name] = p
			continue
		}
		missing = append(missing, lib.Name)
	}
	if len(missing) > 0 {
		return nil, &MissingError{Libraries: missing, SearchPaths: dirs}
	}
	return res, nil
}

// Plan returns a Resolution that renders the manifest's directives without
// checking that any library exists. Directives never depend on where a
// library was found, so Plan is enough to check a committed file.
func (m *Manifest) Plan(root string) *Resolution {
	return &Resolution{manifest: m, root: root, Paths: map[string]string{}}
}

func (m *Manifest) abs(root, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(root, p)
}

func (l Library) candidates() []string {
	if l.Static {
		return []string{"lib" + l.Name + ".a"}
	}
	return []string{"lib" + l.Name + ".so", "lib" + l.Name + ".a"}
}

func (l Library) find(dirs []string, locate Locator) (string, bool) {
	for _, file := range l.candidates() {
		for _, dir := range dirs {
			p := filepath.Join(dir, file)
			if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
				return p, true
			}
		}
		if l.Toolchain {
			if p, ok := locate(file); ok {
				return p, true
			}
		}
	}
	return "", false
}

// Directives returns the linker flags in link order: one -L per search path,
// then the libraries, with consecutive static libraries sharing one
// -Wl,-Bstatic/-Wl,-Bdynamic bracket. Each element is one #cgo LDFLAGS line.
func (r *Resolution) Directives(outDir string) ([]string, error) {
	var lines []string
	for _, p := range r.manifest.SearchPaths {
		if filepath.IsAbs(p) {
			lines = append(lines, "-L"+filepath.ToSlash(filepath.Clean(p)))
			continue
		}
		rel, err := genfile.SrcDirRel(outDir, filepath.Join(r.root, p))
		if err != nil {
			return nil, err
		}
		lines = append(lines, "-L"+rel)
	}

	libs := r.manifest.Libraries
	for i := 0; i < len(libs); {
		if !libs[i].Static {
			lines = append(lines, "-l"+libs[i].Name)
			i++
			continue
		}
		group := []string{"-Wl,-Bstatic"}
		for ; i < len(libs) && libs[i].Static; i++ {
			group = append(group, "-l"+libs[i].Name)
		}
		group = append(group, "-Wl,-Bdynamic")
		lines = append(lines, strings.Join(group, " "))
	}
	return lines, nil
}

// RenderOptions shapes the generated Go file.
type RenderOptions struct {
	Package  string
	BuildTag string
	// Source names the manifest in the banner.
	Source string
}

// Render produces a Go file whose only content is the cgo preamble carrying
// the link directives.
func (r *Resolution) Render(outDir string, opts RenderOptions) ([]byte, error) {
	lines, err := r.Directives(outDir)
	if err != nil {
		return nil, err
	}
	if opts.Package == "" {
		opts.Package = "bindings"
	}
	if opts.Source == "" {
		opts.Source = "link.yaml"
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "// Code generated by te-bindgen from %s. DO NOT EDIT.\n\n", opts.Source)
	if opts.BuildTag != "" {
		fmt.Fprintf(&b, "//go:build %s\n\n", opts.BuildTag)
	}
	fmt.Fprintf(&b, "package %s\n\n/*\n", opts.Package)
	for _, l := range lines {
		fmt.Fprintf(&b, "#cgo LDFLAGS: %s\n", l)
	}
	b.WriteString("*/\nimport \"C\"\n")

	return imports.Process(opts.Source+".go", b.Bytes(), &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: true,
	})
}

// WriteFile renders into outPath atomically.
func (r *Resolution) WriteFile(outPath string, opts RenderOptions) error {
	out, err := r.Render(filepath.Dir(outPath), opts)
	if err != nil {
		return err
	}
	return genfile.Write(outPath, out)
}

// Check reports ErrStale when outPath differs from what WriteFile would
// produce.
func (r *Resolution) Check(outPath string, opts RenderOptions) error {
	want, err := r.Render(filepath.Dir(outPath), opts)
	if err != nil {
		return err
	}
	got, err := os.ReadFile(outPath)
	if err != nil {
		return err
	}
	if !bytes.Equal(got, want) {
		return fmt.Errorf("%w: %s", ErrStale, outPath)
	}
	return nil
}
