// Package client is a Go client for the REST and websocket API. It keeps the
// session cookie in a jar so the browser flow (login, then cookie-carrying
// websocket upgrade) can be driven from Go code and from the integration
// tests.
package client
