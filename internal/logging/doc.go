// Package logging provides structured logging for raincloud.
//
// This package wraps a zap logger with convenience functions for the logging
// patterns used throughout the portal client and CLI. Logging is silent unless
// a level is requested, so library users and scripted CLI runs never see
// unexpected output.
//
// # Log Levels
//
// The package supports standard log levels:
//   - Debug: Portal round trips, form field names, status payload sizes
//   - Info: Login/logout, discovery results, selection shims
//   - Warn: Rejected form posts, re-logins after an expired token
//   - Error: Unrecoverable failures in long-running commands (monitor)
//
// # Structured Logging
//
//	logging.Info("Discovered controller",
//	    zap.String("serial", "ABCDEFGH"),
//	    zap.Int("faucets", 1),
//	)
//
// # Specialized Logging
//
//	logging.LogHTTPExchange("GET", "/home", 200, elapsed)
//	logging.LogFormSubmit("/home", []string{"select_controller", "select_faucet"})
//	logging.LogSelectionShim(0, 0, 1, 0)
//	logging.LogRelogin("ABCDEFGH", "1234")
//
// # Configuration
//
// Level selection comes from the --log-level flag or RAINCLOUD_LOG_LEVEL:
//
//	if err := logging.Initialize(level); err != nil {
//	    return err
//	}
//	defer logging.Sync()
//
// Output goes to stderr in console format so that JSON and YAML reports on
// stdout stay machine readable.
package logging
