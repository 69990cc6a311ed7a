package transfer

import (
	"fmt"
	"time"

	"github.com/kvcache-ai/mooncake-te-go/pkg/logging"
)

const (
	// DefaultLocation is the NUMA/device hint passed to memory registration.
	DefaultLocation = "cpu:0"

	// DefaultMaxChunkSize bounds a single native registration call. Larger
	// ranges are split and registered in parallel.
	DefaultMaxChunkSize uint64 = 1 << 30

	// DefaultPollInterval is the pause between status polls in Wait.
	DefaultPollInterval = 100 * time.Microsecond
)

// Config carries the parameters needed to start an engine instance.
type Config struct {
	// MetadataURI addresses the metadata service, e.g. "etcd://host:2379".
	MetadataURI string

	// LocalServerName is this node's name in the metadata service,
	// usually "host:port".
	LocalServerName string

	// NICPriorityMatrix is the JSON NIC preference matrix. Empty lets the
	// engine discover devices itself.
	NICPriorityMatrix string

	// Location tags registered memory. Defaults to DefaultLocation.
	Location string

	// MaxChunkSize is the largest range passed to one native registration.
	MaxChunkSize uint64

	// PollInterval paces Wait. Defaults to DefaultPollInterval.
	PollInterval time.Duration

	// RedactAddresses replaces raw addresses in log records.
	RedactAddresses bool

	// Logger receives engine events. Nil binds to slog.Default().
	Logger logging.Logger
}

func (c Config) withDefaults() Config {
	if c.Location == "" {
		c.Location = DefaultLocation
	}
	if c.MaxChunkSize == 0 {
		c.MaxChunkSize = DefaultMaxChunkSize
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.Logger == nil {
		c.Logger = logging.New(nil)
	}
	return c
}

func (c Config) validate() error {
	switch {
	case c.MetadataURI == "":
		return fmt.Errorf("%w: metadata URI is required", ErrInvalidArgument)
	case c.LocalServerName == "":
		return fmt.Errorf("%w: local server name is required", ErrInvalidArgument)
	}
	return nil
}
