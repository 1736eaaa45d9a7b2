// Package server is the HTTP surface: REST routes for accounts and history,
// the authenticated websocket upgrade feeding the relay, and the metrics
// endpoint.
package server
