// Package account implements registration, two-step login with emailed
// one-time codes, invite-code contacts and public-key distribution.
package account
