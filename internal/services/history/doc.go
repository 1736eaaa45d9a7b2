// Package history serves the persisted conversation record between two
// accounts. The server never decrypts message bodies; history hands back the
// ciphertext exactly as it was relayed.
package history
