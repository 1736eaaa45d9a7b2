// Package store implements the bbolt-backed document store: account profiles
// with unique-attribute indexes, and the append-only message audit trail.
package store
