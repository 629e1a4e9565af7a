// Package config manages configuration for the relcut application.
//
// Configuration merges from four sources in increasing precedence:
// built-in defaults, the optional per-repository .relcut.yml file,
// RELCUT_* environment variables, and command-line flags. Finalize
// validates the merged result and fills computed defaults such as the
// debug log location.
//
// Components never read the ambient environment themselves; the dry-run
// flag and access token travel through this struct explicitly.
package config
