// Package token mints and verifies the signed session tokens carried in the
// access_token cookie.
package token
