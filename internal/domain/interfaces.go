package domain

import "context"

// AccountStore persists user accounts in the document store.
//
// CreateAccount enforces username/email uniqueness atomically and returns
// ErrUsernameTaken or ErrEmailTaken on conflict. The ByX lookups return
// (zero, false, nil) when no account matches.
type AccountStore interface {
	CreateAccount(a Account) error
	UpdateAccount(a Account) error
	AccountByID(id string) (Account, bool, error)
	AccountByUsername(username string) (Account, bool, error)
	AccountByEmail(email string) (Account, bool, error)
	AccountByInviteCode(code string) (Account, bool, error)
}

// MessageStore is the durable audit trail for delivered envelopes. The relay
// treats it as fire-and-forget: an append failure never rolls back or retries
// a delivery that already happened.
type MessageStore interface {
	AppendMessage(ctx context.Context, rec MessageRecord) (id string, err error)
	// MessagesBetween returns every record exchanged between a and b in
	// either direction, sorted by timestamp ascending.
	MessagesBetween(ctx context.Context, a, b Identity) ([]MessageRecord, error)
}

// Mailer delivers transactional email. Sends are issued from background
// goroutines; implementations must be safe for concurrent use.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}
