package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kvcache-ai/mooncake-te-go/internal/bindgen"
	"github.com/kvcache-ai/mooncake-te-go/internal/cli"
	"github.com/kvcache-ai/mooncake-te-go/internal/genfile"
	"github.com/kvcache-ai/mooncake-te-go/internal/linkcfg"
	"github.com/kvcache-ai/mooncake-te-go/pkg/logging"
)

const (
	envPrefix = "TE_BINDGEN"

	engineFile = "zz_generated_engine.go"
	linkFile   = "zz_generated_link.go"

	defaultBuildTag = "cgo && linux && mooncake"
)

type options struct {
	header   string
	manifest string
	root     string
	out      string
	pkg      string
	buildTag string

	logger logging.Logger
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "te-bindgen",
		Short:         "Generate cgo bindings and link flags for the Mooncake transfer engine",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := cli.InitializeConfig(cmd, envPrefix); err != nil {
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}
			logger, err := cli.NewLogger(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			opts.logger = logger
			return nil
		},
	}
	cli.AddCommonFlags(root)
	pf := root.PersistentFlags()
	pf.StringVar(&opts.header, "header", "include/transfer_engine_c.h", "C header declaring the engine API")
	pf.StringVar(&opts.manifest, "manifest", "link.yaml", "link manifest")
	pf.StringVar(&opts.root, "root", "", "base for relative search paths (default: the manifest's directory)")
	pf.StringVar(&opts.out, "out", "internal/bindings", "output directory")
	pf.StringVar(&opts.pkg, "package", "bindings", "Go package name of the generated files")
	pf.StringVar(&opts.buildTag, "build-tag", defaultBuildTag, "build constraint for the generated files")

	root.AddCommand(
		newGenerateCmd(opts),
		newLinkCmd(opts),
		newAllCmd(opts),
		newCheckCmd(opts),
		newManifestCmd(opts),
	)
	return root
}

func newGenerateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Generate Go stubs from the C header",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := opts.renderEngine()
			if err != nil {
				return err
			}
			return opts.write(cmd.Context(), genfile.File{Path: opts.path(engineFile), Data: out})
		},
	}
}

func newLinkCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "link",
		Short: "Resolve native libraries and write the link directives",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := opts.renderLink(cmd.Context())
			if err != nil {
				return err
			}
			return opts.write(cmd.Context(), genfile.File{Path: opts.path(linkFile), Data: out})
		},
	}
}

func newAllCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "all",
		Short: "Run link and generate; nothing is written unless both succeed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			link, err := opts.renderLink(cmd.Context())
			if err != nil {
				return err
			}
			engine, err := opts.renderEngine()
			if err != nil {
				return err
			}
			return opts.write(cmd.Context(),
				genfile.File{Path: opts.path(linkFile), Data: link},
				genfile.File{Path: opts.path(engineFile), Data: engine},
			)
		},
	}
}

func newCheckCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify that committed files match the header and manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := bindgen.Check(opts.header, opts.path(engineFile)); err != nil {
				return err
			}
			m, err := opts.loadManifest(cmd.Context())
			if err != nil {
				return err
			}
			if err := m.Plan(opts.searchRoot()).Check(opts.path(linkFile), opts.linkRenderOptions()); err != nil {
				return err
			}
			opts.logger.Info(cmd.Context(), "generated files are up to date", "out", opts.out)
			return nil
		},
	}
}

func newManifestCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "manifest",
		Short: "Print the effective link manifest",
		Long:  "Print the link manifest as YAML. When the manifest file does not exist the built-in default is printed, which is a starting point for a custom link.yaml.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := opts.loadManifest(cmd.Context())
			if err != nil {
				return err
			}
			data, err := m.Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func (o *options) path(name string) string {
	return filepath.Join(o.out, name)
}

func (o *options) searchRoot() string {
	if o.root != "" {
		return o.root
	}
	return filepath.Dir(o.manifest)
}

func (o *options) linkRenderOptions() linkcfg.RenderOptions {
	return linkcfg.RenderOptions{
		Package:  o.pkg,
		BuildTag: o.buildTag,
		Source:   filepath.Base(o.manifest),
	}
}

func (o *options) renderEngine() ([]byte, error) {
	return bindgen.Render(o.header, o.path(engineFile), bindgen.Options{
		Package:  o.pkg,
		BuildTag: o.buildTag,
	})
}

func (o *options) loadManifest(ctx context.Context) (*linkcfg.Manifest, error) {
	m, defaulted, err := linkcfg.LoadOrDefault(o.manifest)
	if err != nil {
		return nil, err
	}
	if defaulted {
		o.logger.Warn(ctx, "manifest not found, using built-in defaults", "manifest", o.manifest)
	}
	return m, nil
}

func (o *options) renderLink(ctx context.Context) ([]byte, error) {
	m, err := o.loadManifest(ctx)
	if err != nil {
		return nil, err
	}
	res, err := m.Resolve(o.searchRoot(), nil)
	if err != nil {
		return nil, err
	}
	for _, lib := range m.Libraries {
		o.logger.Debug(ctx, "resolved library", "name", lib.Name, "path", res.Paths[lib.Name])
	}
	return res.Render(o.out, o.linkRenderOptions())
}

func (o *options) write(ctx context.Context, files ...genfile.File) error {
	if err := genfile.WriteFiles(files...); err != nil {
		return err
	}
	for _, f := range files {
		o.logger.Info(ctx, "wrote generated file", "path", f.Path)
	}
	return nil
}
