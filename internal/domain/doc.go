// Package domain holds the shared types and collaborator interfaces of the
// sealchat server: identities, relay envelopes, persisted message records,
// accounts, and the store/mailer contracts the relay and services depend on.
package domain
