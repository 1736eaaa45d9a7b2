// Package app loads the configuration file and wires the dependency graph:
// store, mailer, token issuer, metrics, relay core, services and HTTP server.
package app
