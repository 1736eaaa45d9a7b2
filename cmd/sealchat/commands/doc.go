// Package commands defines the sealchat CLI.
//
// Commands
//
//   - serve   Run the relay and API server
//
// The serve command loads the TOML configuration, builds the dependency
// graph and runs the HTTP server until interrupted, then drains live
// connections and in-flight writes before exiting.
package commands
