// Package cli holds the cobra/viper plumbing shared by the te-* commands.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/kvcache-ai/mooncake-te-go/pkg/logging"
)

const (
	// KeyConfig names the flag pointing at an optional config file.
	KeyConfig = "config"
	// KeyLogLevel names the flag selecting the minimum log level.
	KeyLogLevel = "log-level"
)

// AddCommonFlags registers --config and --log-level on cmd's persistent
// flag set.
func AddCommonFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String(KeyConfig, "", "config file (yaml, json or toml); flags and environment take precedence")
	cmd.PersistentFlags().String(KeyLogLevel, "info", "minimum log level: debug, info, warn or error")
}

// InitializeConfig reads the config file named by --config, if any, and the
// environment, and applies their values to every flag of cmd that was not set
// on the command line. Environment variables are the flag name upper-cased
// with dashes replaced by underscores and envPrefix prepended, e.g.
// --metadata-uri becomes MC_METADATA_URI.
func InitializeConfig(cmd *cobra.Command, envPrefix string) error {
	v := viper.New()

	cfgFile, err := cmd.Flags().GetString(KeyConfig)
	if err != nil {
		return fmt.Errorf("reading flag %q: %w", KeyConfig, err)
	}
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %s: %w", cfgFile, err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if err := bindFlags(cmd, v, envPrefix); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}
	return nil
}

func bindFlags(cmd *cobra.Command, v *viper.Viper, envPrefix string) error {
	var errs []error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Name == KeyConfig {
			return
		}
		if strings.Contains(f.Name, "-") {
			env := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
			if err := v.BindEnv(f.Name, env); err != nil {
				errs = append(errs, fmt.Errorf("binding env to flag %q: %w", f.Name, err))
				return
			}
		}
		if !f.Changed && v.IsSet(f.Name) {
			if err := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name))); err != nil {
				errs = append(errs, fmt.Errorf("setting flag %q value: %w", f.Name, err))
			}
		}
	})
	return errors.Join(errs...)
}

// NewLogger builds a text logger on w at the level named by --log-level.
func NewLogger(cmd *cobra.Command, w io.Writer) (logging.Logger, error) {
	name, err := cmd.Flags().GetString(KeyLogLevel)
	if err != nil {
		return nil, err
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return nil, fmt.Errorf("invalid --%s %q: %w", KeyLogLevel, name, err)
	}
	if w == nil {
		w = os.Stderr
	}
	return logging.New(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))), nil
}
