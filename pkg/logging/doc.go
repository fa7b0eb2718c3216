// Package logging builds the slog loggers used across cannedmock.
//
// Both the serve command and the server package log through a *slog.Logger.
// The level and the output format are chosen at startup, normally from the
// CANNEDMOCK_LOG_LEVEL and CANNEDMOCK_LOG_FORMAT environment variables:
//
//	logger, err := logging.FromStrings("debug", "json")
//	if err != nil {
//	    return err
//	}
//	logger.Info("route table loaded", "routes", 3)
//
// Components that take an optional logger fall back to Nop.
package logging
