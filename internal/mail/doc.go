// Package mail implements the domain.Mailer collaborator: an SMTP client for
// production and a log-only fallback for development.
package mail
