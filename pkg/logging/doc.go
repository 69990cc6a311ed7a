// Package logging provides the context-aware Logger facade used across the
// transfer engine wrapper.
//
// The default implementation forwards to log/slog:
//
//	logger := logging.New(nil) // slog.Default()
//	logger.Info(ctx, "registered arena", "bytes", a.Size(),
//	    logging.Address("base", a.Base(), cfg.RedactAddresses))
//
// Applications with their own logging stack implement Logger directly.
package logging
