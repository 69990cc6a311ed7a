// Command te-demo registers an arena with the transfer engine and, when a
// peer segment is named, moves a block of it to or from that peer.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kvcache-ai/mooncake-te-go/internal/cli"
	"github.com/kvcache-ai/mooncake-te-go/pkg/arena"
	"github.com/kvcache-ai/mooncake-te-go/pkg/logging"
	"github.com/kvcache-ai/mooncake-te-go/pkg/transfer"
)

const envPrefix = "MC"

type demoConfig struct {
	transfer     transfer.Config
	arenaSize    int
	segment      string
	op           string
	length       uint64
	targetOffset uint64
	timeout      time.Duration
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "te-demo:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := &demoConfig{}
	cmd := &cobra.Command{
		Use:           "te-demo",
		Short:         "Exercise the Mooncake transfer engine from Go",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return cli.InitializeConfig(cmd, envPrefix)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := cli.NewLogger(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			cfg.transfer.Logger = logger
			return run(cmd.Context(), cfg, cmd.OutOrStdout(), logger)
		},
	}
	cli.AddCommonFlags(cmd)
	f := cmd.Flags()
	f.StringVar(&cfg.transfer.MetadataURI, "metadata-uri", "etcd://127.0.0.1:2379", "metadata service address")
	f.StringVar(&cfg.transfer.LocalServerName, "local-server-name", "127.0.0.1:12345", "name published for this node")
	f.StringVar(&cfg.transfer.NICPriorityMatrix, "nic-priority-matrix", "", "JSON NIC priority matrix (empty: auto-discover)")
	f.StringVar(&cfg.transfer.Location, "location", transfer.DefaultLocation, "location tag for registered memory")
	f.Uint64Var(&cfg.transfer.MaxChunkSize, "max-chunk-size", transfer.DefaultMaxChunkSize, "largest range per native registration")
	f.BoolVar(&cfg.transfer.RedactAddresses, "redact-addresses", false, "hide memory addresses in logs")
	f.IntVar(&cfg.arenaSize, "arena-size", 1<<20, "bytes of local memory to register")
	f.StringVar(&cfg.segment, "segment", "", "peer segment to transfer with (empty: register only)")
	f.StringVar(&cfg.op, "op", "write", "transfer direction: read or write")
	f.Uint64Var(&cfg.length, "length", 4096, "bytes to transfer")
	f.Uint64Var(&cfg.targetOffset, "target-offset", 0, "offset inside the peer segment")
	f.DurationVar(&cfg.timeout, "timeout", 10*time.Second, "transfer deadline")
	return cmd
}

func parseOpcode(s string) (transfer.Opcode, error) {
	switch strings.ToLower(s) {
	case "read":
		return transfer.OpRead, nil
	case "write":
		return transfer.OpWrite, nil
	}
	return 0, fmt.Errorf("unknown op %q (want read or write)", s)
}

func run(ctx context.Context, cfg *demoConfig, out io.Writer, logger logging.Logger) error {
	op, err := parseOpcode(cfg.op)
	if err != nil {
		return err
	}
	if cfg.length == 0 || cfg.length > uint64(cfg.arenaSize) {
		return fmt.Errorf("length %d must be in [1, %d]", cfg.length, cfg.arenaSize)
	}

	buf, err := arena.TryNew(cfg.arenaSize)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := buf.Close(); cerr != nil {
			logger.Warn(ctx, "arena close failed", "error", cerr)
		}
	}()

	eng, err := transfer.Open(cfg.transfer)
	if err != nil {
		if errors.Is(err, transfer.ErrNotBuilt) {
			fmt.Fprintf(out, "transfer engine unavailable: %v\n", err)
			return nil
		}
		return fmt.Errorf("opening engine: %w", err)
	}
	defer func() {
		if cerr := eng.Close(); cerr != nil {
			logger.Warn(ctx, "engine close failed", "error", cerr)
		}
	}()

	if err := eng.RegisterArena(buf); err != nil {
		return fmt.Errorf("registering arena: %w", err)
	}
	defer func() {
		if uerr := eng.UnregisterArena(buf); uerr != nil {
			logger.Warn(ctx, "unregister failed", "error", uerr)
		}
	}()
	fmt.Fprintf(out, "registered %d bytes at %s\n", buf.Size(), addrText(buf, cfg.transfer.RedactAddresses))

	if cfg.segment == "" {
		return nil
	}
	seg, err := eng.SegmentID(cfg.segment)
	if err != nil {
		return fmt.Errorf("looking up segment %q: %w", cfg.segment, err)
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()
	start := time.Now()
	err = eng.Transfer(ctx, []transfer.Request{{
		Opcode:       op,
		Source:       buf.Offset(0),
		Target:       seg,
		TargetOffset: cfg.targetOffset,
		Length:       cfg.length,
	}})
	if err != nil {
		return fmt.Errorf("%s %d bytes with %s: %w", op, cfg.length, cfg.segment, err)
	}
	fmt.Fprintf(out, "%s %d bytes with %s (segment %d) in %s\n", op, cfg.length, cfg.segment, seg, time.Since(start))
	return nil
}

func addrText(a *arena.Arena, redact bool) string {
	if redact {
		return logging.Placeholder()
	}
	return fmt.Sprintf("%#x", a.Base())
}
