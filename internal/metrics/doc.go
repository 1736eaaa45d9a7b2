// Package metrics defines the prometheus collectors exported by the relay.
package metrics
