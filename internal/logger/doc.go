// Package logger provides logging for the relcut application.
//
// It separates two audiences behind one interface: structured zap JSON
// entries written to a debug log file, and plain emoji-prefixed messages
// written to the user's terminal. Internal methods (Info, Warning, Error)
// feed the debug log; user-facing methods (InfoToUser, WarningToUser,
// Success, StatusMessage) always reach stdout.
//
// # Usage
//
//	log := logger.New(cfg.Debug, cfg.LogFile, cfg.Verbose)
//	defer log.Close()
//
//	log.Info("resolved release branch %s", branch)   // debug log only
//	log.Success("Pushed branch %s", branch)          // user + debug log
package logger
